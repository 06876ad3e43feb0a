package routes

import (
	"github.com/Danielkai0107/courtside/handlers"
	"github.com/Danielkai0107/courtside/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRoutes wires every HTTP surface of the engine. Reads are public;
// catalog and lifecycle mutations require a staff token.
func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	categoryHandler *handlers.CategoryHandler,
	matchHandler *handlers.MatchHandler,
	sportHandler *handlers.SportHandler,
	formatHandler *handlers.FormatHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	staff := func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Use(middleware.RequireRole("staff", "admin"))
	}

	router.Route("/categories", func(r chi.Router) {
		r.Get("/{categoryID}", categoryHandler.GetCategory)
		r.Get("/{categoryID}/matches", matchHandler.ListCategoryMatches)
		r.Get("/{categoryID}/matches/ready", matchHandler.ListReadyMatches)
		r.Get("/{categoryID}/standings", categoryHandler.GetStandings)

		r.Group(func(r chi.Router) {
			staff(r)
			r.Post("/", categoryHandler.CreateCategory)
			r.Post("/{categoryID}/entries", categoryHandler.RegisterEntry)
			r.Post("/{categoryID}/close", categoryHandler.CloseRegistration)
			r.Delete("/{categoryID}", categoryHandler.CancelCategory)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", matchHandler.GetMatch)

		r.Group(func(r chi.Router) {
			staff(r)
			r.Post("/{matchID}/score", matchHandler.RecordScore)
			r.Post("/{matchID}/court", matchHandler.AssignCourt)
		})
	})

	router.Route("/sports", func(r chi.Router) {
		r.Get("/", sportHandler.ListSports)
		r.Get("/{sportID}", sportHandler.GetSport)

		r.Group(func(r chi.Router) {
			staff(r)
			r.Post("/", sportHandler.CreateSport)
			r.Put("/{sportID}", sportHandler.UpdateSport)
			r.Post("/{sportID}/presets", sportHandler.CreatePreset)
			r.Put("/{sportID}/logo", sportHandler.UploadLogo)
		})
	})

	router.Route("/formats", func(r chi.Router) {
		r.Get("/", formatHandler.ListFormats)
		r.Get("/{formatID}", formatHandler.GetFormat)

		r.Group(func(r chi.Router) {
			staff(r)
			r.Post("/", formatHandler.CreateFormat)
			r.Put("/{formatID}", formatHandler.UpdateFormat)
			r.Delete("/{formatID}", formatHandler.DeleteFormat)
		})
	})

	router.Get("/courts", matchHandler.ListCourts)

	router.Get("/ws/categories/{categoryID}", webSocketHandler.ServeWs)

	router.Get("/swagger/*", httpSwagger.Handler())
}
