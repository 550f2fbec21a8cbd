package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"cbrrates/internal/rate"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ScheduleRunResponse struct {
	RunID  string         `json:"run_id"`
	Status rate.RunStatus `json:"status"`
}

// ScheduleRun starts a single-date run or a backfill in the background.
func (h *Handler) ScheduleRun(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 256)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req rate.RunRequest
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Date = strings.TrimSpace(req.Date)
	req.From = strings.TrimSpace(req.From)
	req.To = strings.TrimSpace(req.To)

	id, err := h.runs.Submit(req)
	if err != nil {
		if rate.IsClientError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		msg := "ups, couldn't schedule run this time"
		logrus.WithError(err).WithField("handler", "ScheduleRun").Error(msg)
		writeError(w, http.StatusInternalServerError, msg)
		return
	}
	writeJSON(w, http.StatusAccepted, ScheduleRunResponse{RunID: id.String(), Status: rate.RunStatusPending})
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}
	view, ok := h.runs.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	status := http.StatusOK
	if view.Status == rate.RunStatusPending {
		status = http.StatusAccepted
	}
	writeJSON(w, status, view)
}
