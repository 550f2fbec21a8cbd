package handler

import (
	"net/http"
	"strings"

	"cbrrates/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type GetChangesResponse struct {
	Date    string              `json:"date"`
	Changes []domain.RateChange `json:"changes"`
}

// GetChanges compares the rates of the date with the previous calendar day.
func (h *Handler) GetChanges(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(chi.URLParam(r, "date"))

	changes, err := h.rates.Changes(r.Context(), date)
	if err != nil {
		writeServiceError(w, err, "ups, couldn't calculate changes this time",
			logrus.Fields{"handler": "GetChanges", "date": date})
		return
	}
	writeJSON(w, http.StatusOK, GetChangesResponse{Date: date, Changes: changes})
}
