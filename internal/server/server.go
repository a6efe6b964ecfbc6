// Package server exposes a timetable store over the REST surface the
// console's HTTP backend talks to. It is used by `pupitre serve` for local
// development and by the httpapi tests.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/javiermolinar/pupitre/internal/timetable"
)

// Store is the storage the server serves.
type Store interface {
	timetable.Backend
	timetable.ResourceLister
}

// Server serves a Store over HTTP.
type Server struct {
	store   Store
	log     *zap.Logger
	metrics *metrics
}

// New creates a server. A nil logger disables logging.
func New(store Store, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		store:   store,
		log:     log,
		metrics: newMetrics(),
	}
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID, s.instrument)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/periods", s.handleListPeriods)
		r.Get("/resources", s.handleListResources)

		r.Get("/classes/{classId}/timetable", s.handleGetTimetable)
		r.Put("/classes/{classId}/timetable/slots", s.handleReplaceSlots)
		r.Post("/classes/{classId}/optimize", s.handleOptimize)

		r.Post("/slots", s.handleCreateSlot)
		r.Put("/slots/{slotId}", s.handleUpdateSlot)
		r.Delete("/slots/{slotId}", s.handleDeleteSlot)
	})

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serving on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

// ============================================================================
// Handlers
// ============================================================================

type timetableResponse struct {
	ClassID int64            `json:"classId"`
	Slots   []timetable.Slot `json:"slots"`
}

func (s *Server) handleListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := s.store.ListPeriods(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if periods == nil {
		periods = []timetable.Period{}
	}
	writeJSON(w, http.StatusOK, periods)
}

func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) {
	res, err := s.store.ListResources(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetTimetable(w http.ResponseWriter, r *http.Request) {
	classID, ok := pathID(w, r, "classId")
	if !ok {
		return
	}
	slots, err := s.store.GetTimetable(r.Context(), classID)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, timetableResponse{ClassID: classID, Slots: nonNil(slots)})
}

func (s *Server) handleReplaceSlots(w http.ResponseWriter, r *http.Request) {
	classID, ok := pathID(w, r, "classId")
	if !ok {
		return
	}
	var payload []timetable.SlotPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	slots, err := s.store.ReplaceSlots(r.Context(), classID, payload)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.metrics.writes.WithLabelValues("replace").Inc()
	s.log.Info("timetable replaced",
		zap.Int64("class_id", classID),
		zap.Int("slots", len(slots)),
		zap.String("request_id", RequestIDFrom(r.Context())),
	)
	writeJSON(w, http.StatusOK, nonNil(slots))
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	classID, ok := pathID(w, r, "classId")
	if !ok {
		return
	}
	if err := s.store.Optimize(r.Context(), classID); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.metrics.writes.WithLabelValues("optimize").Inc()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleCreateSlot(w http.ResponseWriter, r *http.Request) {
	var payload timetable.SlotPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	slot, err := s.store.CreateSlot(r.Context(), payload)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.metrics.writes.WithLabelValues("create").Inc()
	writeJSON(w, http.StatusCreated, slot)
}

func (s *Server) handleUpdateSlot(w http.ResponseWriter, r *http.Request) {
	slotID, ok := pathID(w, r, "slotId")
	if !ok {
		return
	}
	var payload timetable.SlotPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	slot, err := s.store.UpdateSlot(r.Context(), slotID, payload)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.metrics.writes.WithLabelValues("update").Inc()
	writeJSON(w, http.StatusOK, slot)
}

func (s *Server) handleDeleteSlot(w http.ResponseWriter, r *http.Request) {
	slotID, ok := pathID(w, r, "slotId")
	if !ok {
		return
	}
	if err := s.store.DeleteSlot(r.Context(), slotID); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.metrics.writes.WithLabelValues("delete").Inc()
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================================
// Helpers
// ============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error    string                   `json:"error"`
	Message  string                   `json:"message,omitempty"`
	Conflict *timetable.ConflictError `json:"conflict,omitempty"`
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		cerr *timetable.ConflictError
		verr *timetable.ValidationError
	)
	switch {
	case errors.As(err, &cerr):
		s.metrics.conflicts.WithLabelValues(cerr.Dimension).Inc()
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "conflict", Message: cerr.Error(), Conflict: cerr})
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "validation", verr.Error())
	case errors.Is(err, timetable.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to send.
		s.log.Debug("request cancelled", zap.String("request_id", RequestIDFrom(r.Context())))
	default:
		s.log.Error("store failure",
			zap.Error(err),
			zap.String("request_id", RequestIDFrom(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, "server_error", "")
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_"+name, "")
		return 0, false
	}
	return id, true
}

func nonNil(slots []timetable.Slot) []timetable.Slot {
	if slots == nil {
		return []timetable.Slot{}
	}
	return slots
}

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}
