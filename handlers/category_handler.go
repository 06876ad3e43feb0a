package handlers

import (
	"net/http"

	"github.com/Danielkai0107/courtside/services"
)

type CategoryHandler struct {
	categoryService services.CategoryService
	bracketService  services.BracketService
}

func NewCategoryHandler(categoryService services.CategoryService, bracketService services.BracketService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, bracketService: bracketService}
}

// CreateCategory godoc
// @Summary Create a category with frozen scoring and format configs
// @Tags categories
// @Accept json
// @Produce json
// @Param input body services.CreateCategoryInput true "Category references"
// @Success 201 {object} models.Category
// @Router /categories [post]
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var input services.CreateCategoryInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	category, err := h.categoryService.CreateCategory(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, category, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetCategory godoc
// @Summary Get a category with its frozen configs
// @Tags categories
// @Produce json
// @Param categoryID path int true "Category ID"
// @Success 200 {object} models.Category
// @Router /categories/{categoryID} [get]
func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "categoryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	category, err := h.categoryService.GetCategoryGraph(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, category, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RegisterEntry godoc
// @Summary Register a player into an open category
// @Tags categories
// @Accept json
// @Produce json
// @Param categoryID path int true "Category ID"
// @Param input body services.RegisterEntryInput true "Player reference"
// @Success 201 {object} models.CategoryEntry
// @Router /categories/{categoryID}/entries [post]
func (h *CategoryHandler) RegisterEntry(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "categoryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.RegisterEntryInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	entry, err := h.categoryService.RegisterEntry(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, entry, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CloseRegistration godoc
// @Summary Close registration and generate the bracket
// @Tags categories
// @Produce json
// @Param categoryID path int true "Category ID"
// @Success 200 {object} models.Category
// @Router /categories/{categoryID}/close [post]
func (h *CategoryHandler) CloseRegistration(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "categoryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	category, err := h.bracketService.GenerateBracket(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, category, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetStandings godoc
// @Summary Ranked group tables for a category
// @Tags categories
// @Produce json
// @Param categoryID path int true "Category ID"
// @Success 200 {object} map[string][]brackets.Standing
// @Router /categories/{categoryID}/standings [get]
func (h *CategoryHandler) GetStandings(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "categoryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	standings, err := h.categoryService.GetStandings(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CancelCategory godoc
// @Summary Cancel a category
// @Tags categories
// @Param categoryID path int true "Category ID"
// @Success 204
// @Router /categories/{categoryID} [delete]
func (h *CategoryHandler) CancelCategory(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "categoryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.categoryService.CancelCategory(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
