package handler

import (
	"net/http"
	"strings"

	"cbrrates/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type GetByDateResponse struct {
	Date  string                  `json:"date"`
	Rates []domain.CurrencyRecord `json:"rates"`
}

func (h *Handler) GetByDate(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(chi.URLParam(r, "date"))

	var (
		records []domain.CurrencyRecord
		err     error
	)
	// ?codes=USD,EUR narrows the response
	if codes := r.URL.Query().Get("codes"); codes != "" {
		records, err = h.rates.RecordsForCurrencies(r.Context(), date, strings.Split(codes, ","))
	} else {
		records, err = h.rates.RecordsForDate(r.Context(), date)
	}
	if err != nil {
		writeServiceError(w, err, "ups, couldn't get rates for this date",
			logrus.Fields{"handler": "GetByDate", "date": date})
		return
	}
	writeJSON(w, http.StatusOK, GetByDateResponse{Date: date, Rates: records})
}
