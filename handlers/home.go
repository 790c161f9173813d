package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"streamvault/models"
)

// selectionService resolves the daily home-screen content.
type selectionService interface {
	SelectDailyContent(ctx context.Context, scope string) ([]models.Carousel, models.Outcome, error)
	SelectHeroItems(ctx context.Context, scope string) ([]models.CarouselItem, error)
	Trailer(ctx context.Context, contentType models.ContentType, metadataID int64) (*models.Video, error)
}

type HomeHandler struct {
	Service selectionService
}

func NewHomeHandler(service selectionService) *HomeHandler {
	return &HomeHandler{Service: service}
}

// Carousels returns the day's resolved carousels for a scope.
func (h *HomeHandler) Carousels(w http.ResponseWriter, r *http.Request) {
	carousels, outcome, err := h.Service.SelectDailyContent(r.Context(), r.URL.Query().Get("scope"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if carousels == nil {
		carousels = []models.Carousel{}
	}
	writeJSON(w, map[string]any{
		"outcome":   outcome,
		"carousels": carousels,
	})
}

// Hero returns the day's hero rotation for a scope.
func (h *HomeHandler) Hero(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.SelectHeroItems(r.Context(), r.URL.Query().Get("scope"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if items == nil {
		items = []models.CarouselItem{}
	}
	writeJSON(w, items)
}

// Trailer returns the best trailer for a matched title, 404 when none exists.
func (h *HomeHandler) Trailer(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var contentType models.ContentType
	switch vars["kind"] {
	case "movie":
		contentType = models.ContentMovie
	case "series", "tv":
		contentType = models.ContentSeries
	default:
		writeError(w, http.StatusBadRequest, "unknown kind")
		return
	}
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	video, err := h.Service.Trailer(r.Context(), contentType, id)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if video == nil {
		writeError(w, http.StatusNotFound, "no trailer")
		return
	}
	writeJSON(w, video)
}
