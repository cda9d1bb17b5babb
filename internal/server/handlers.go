package server

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/minaironcapital/dividendos/internal/converter"
	"github.com/minaironcapital/dividendos/internal/feed"
	"github.com/minaironcapital/dividendos/internal/filter"
	"github.com/minaironcapital/dividendos/internal/validation"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// diagnosticsResponse describes the current snapshot.
type diagnosticsResponse struct {
	RunID    string                    `json:"run_id"`
	LoadedAt time.Time                 `json:"loaded_at"`
	Stats    converter.ProcessingStats `json:"stats"`
	Report   *validation.Report        `json:"report"`
}

// reloadResponse is returned by a successful reload.
type reloadResponse struct {
	RunID   string `json:"run_id"`
	Records int    `json:"records"`
	Buckets int    `json:"buckets"`
}

func unavailable(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusServiceUnavailable)
	render.JSON(w, r, errorResponse{Error: feed.ErrFeedUnavailable.Error()})
}

// current returns the snapshot, answering 503 itself when there is none.
func (s *Server) current(w http.ResponseWriter, r *http.Request) (*converter.Result, bool) {
	snap := s.Snapshot()
	if snap == nil {
		unavailable(w, r)
		return nil, false
	}
	return snap, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// handleTimeline handles GET /api/timeline.
func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.current(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, snap.Buckets)
}

// handleRecords handles GET /api/records?q=&estado=.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.current(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	state := filter.State{
		Query:  query.Get("q"),
		Status: query.Get("estado"),
	}
	render.JSON(w, r, snap.Filter(state))
}

// handleStatuses handles GET /api/statuses.
func (s *Server) handleStatuses(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.current(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, snap.Statuses)
}

// handleDiagnostics handles GET /api/diagnostics.
func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.current(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, diagnosticsResponse{
		RunID:    snap.RunID,
		LoadedAt: snap.LoadedAt,
		Stats:    snap.Stats,
		Report:   snap.Report,
	})
}

// handleReload handles POST /api/reload.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	result, err := s.Reload(r.Context())
	if err != nil {
		unavailable(w, r)
		return
	}
	render.JSON(w, r, reloadResponse{
		RunID:   result.RunID,
		Records: len(result.Records),
		Buckets: len(result.Buckets),
	})
}
