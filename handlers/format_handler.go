package handlers

import (
	"net/http"

	"github.com/Danielkai0107/courtside/services"
)

type FormatHandler struct {
	formatService services.FormatService
}

func NewFormatHandler(formatService services.FormatService) *FormatHandler {
	return &FormatHandler{formatService: formatService}
}

func (h *FormatHandler) CreateFormat(w http.ResponseWriter, r *http.Request) {
	var input services.FormatInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	format, err := h.formatService.CreateFormat(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, format, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *FormatHandler) GetFormat(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "formatID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	format, err := h.formatService.GetFormat(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, format, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *FormatHandler) ListFormats(w http.ResponseWriter, r *http.Request) {
	formats, err := h.formatService.ListFormats(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"formats": formats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *FormatHandler) UpdateFormat(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "formatID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.FormatInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	format, err := h.formatService.UpdateFormat(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, format, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *FormatHandler) DeleteFormat(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "formatID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.formatService.DeleteFormat(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
