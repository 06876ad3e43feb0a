package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Danielkai0107/courtside/brackets"
	"github.com/Danielkai0107/courtside/services"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict Origin to the deployed frontends before exposing this
	// outside the venue network.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WebSocketHandler struct {
	hub             *brackets.Hub
	categoryService services.CategoryService
	logger          *slog.Logger
}

func NewWebSocketHandler(hub *brackets.Hub, categoryService services.CategoryService, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, categoryService: categoryService, logger: logger}
}

// ServeWs subscribes the caller to the live event stream of one category.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	categoryID, err := strconv.Atoi(chi.URLParam(r, "categoryID"))
	if err != nil || categoryID < 1 {
		http.Error(w, "invalid categoryID", http.StatusBadRequest)
		return
	}
	// Rooms are only opened for categories that exist.
	if _, err := h.categoryService.GetCategory(r.Context(), categoryID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Int("category_id", categoryID), slog.Any("error", err))
		return
	}

	client := &brackets.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: "category:" + strconv.Itoa(categoryID),
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
