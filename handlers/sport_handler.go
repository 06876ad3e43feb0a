package handlers

import (
	"errors"
	"net/http"

	"github.com/Danielkai0107/courtside/services"
)

var errMissingContentType = errors.New("Content-Type header is required for logo upload")

type SportHandler struct {
	sportService services.SportService
}

func NewSportHandler(sportService services.SportService) *SportHandler {
	return &SportHandler{sportService: sportService}
}

func (h *SportHandler) CreateSport(w http.ResponseWriter, r *http.Request) {
	var input services.CreateSportInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	sport, err := h.sportService.CreateSport(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, sport, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SportHandler) GetSport(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "sportID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	sport, err := h.sportService.GetSport(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, sport, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SportHandler) ListSports(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	sports, err := h.sportService.ListSports(r.Context(), activeOnly)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"sports": sports}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SportHandler) UpdateSport(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "sportID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.UpdateSportInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	sport, err := h.sportService.UpdateSport(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, sport, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SportHandler) CreatePreset(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "sportID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.CreatePresetInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	preset, err := h.sportService.CreatePreset(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, preset, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadLogo accepts the raw image body; the Content-Type header names the
// image format.
func (h *SportHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "sportID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		badRequestResponse(w, r, errMissingContentType)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20) // 5MB
	sport, err := h.sportService.UploadLogo(r.Context(), id, contentType, r.Body)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, sport, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
