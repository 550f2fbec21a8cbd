package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

func (h *Handler) GetByCode(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(chi.URLParam(r, "date"))
	code := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "code")))

	record, err := h.rates.RecordByCode(r.Context(), date, code)
	if err != nil {
		writeServiceError(w, err, "ups, couldn't get rate by code this time",
			logrus.Fields{"handler": "GetByCode", "date": date, "code": code})
		return
	}
	writeJSON(w, http.StatusOK, record)
}
