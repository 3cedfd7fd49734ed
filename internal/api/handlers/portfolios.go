package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/accumulation-tracker-backend/internal/api/response"
	"github.com/ndewijer/accumulation-tracker-backend/internal/service"
)

// defaultRunsLimit bounds GET /api/portfolio/runs when no limit is given.
const defaultRunsLimit = 50

// PortfolioHandler handles portfolio valuation HTTP requests
type PortfolioHandler struct {
	historyService      *service.HistoryService
	materializedService *service.MaterializedService
	positionService     *service.PositionService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(
	historyService *service.HistoryService,
	materializedService *service.MaterializedService,
	positionService *service.PositionService,
) *PortfolioHandler {
	return &PortfolioHandler{
		historyService:      historyService,
		materializedService: materializedService,
		positionService:     positionService,
	}
}

// Latest handles GET requests for the snapshot after the most recent transaction.
//
// Endpoint: GET /api/portfolio/latest
// Response: 200 OK with model.Snapshot
// Error: 502 Bad Gateway if a feed cannot be retrieved
func (h *PortfolioHandler) Latest(w http.ResponseWriter, r *http.Request) {
	latest, err := h.historyService.GetLatest(r.Context())
	if err != nil {
		respondServiceError(w, r, "failed to compute latest snapshot", err)
		return
	}
	respondJSON(w, http.StatusOK, latest)
}

// History handles GET requests for the snapshot history computed on demand.
//
// Endpoint: GET /api/portfolio/history
// Query params:
//   - start_date: optional, YYYY-MM-DD or RFC3339, inclusive
//   - end_date: optional, YYYY-MM-DD (whole day) or RFC3339, inclusive
//
// Response: 200 OK with array of model.Snapshot, ascending by timestamp
// Error: 400 Bad Request for malformed dates, 502 Bad Gateway if a feed cannot be retrieved
func (h *PortfolioHandler) History(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseDateRange(r)
	if err != nil {
		respondServiceError(w, r, "invalid date parameters", err)
		return
	}

	history, err := h.historyService.GetHistory(r.Context(), start, end)
	if err != nil {
		respondServiceError(w, r, "failed to compute portfolio history", err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// MaterializedHistory handles GET requests for the stored snapshot history.
// Falls back to on-demand computation until the first refresh completed.
//
// Endpoint: GET /api/portfolio/history/materialized
// Query params: same as History
// Response: 200 OK with array of model.Snapshot
func (h *PortfolioHandler) MaterializedHistory(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseDateRange(r)
	if err != nil {
		respondServiceError(w, r, "invalid date parameters", err)
		return
	}

	history, err := h.materializedService.GetHistory(r.Context(), start, end)
	if err != nil {
		respondServiceError(w, r, "failed to retrieve portfolio history", err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// Positions handles GET requests for the published current positions summary.
//
// Endpoint: GET /api/portfolio/positions
// Response: 200 OK with model.CurrentPositions
func (h *PortfolioHandler) Positions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.positionService.GetCurrentPositions(r.Context())
	if err != nil {
		respondServiceError(w, r, "failed to retrieve current positions", err)
		return
	}
	respondJSON(w, http.StatusOK, positions)
}

// Refresh handles POST requests to rematerialize the snapshot history.
//
// Endpoint: POST /api/portfolio/refresh
// Headers: X-API-Key, X-Time-Token
// Response: 200 OK with the completed model.SnapshotRun
// Error: 502 Bad Gateway if a feed cannot be retrieved, 500 if storing fails
func (h *PortfolioHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	run, err := h.materializedService.Refresh(r.Context())
	if err != nil {
		respondServiceError(w, r, "failed to refresh portfolio history", err)
		return
	}
	respondJSON(w, http.StatusOK, run)
}

// Runs handles GET requests for the most recent refresh runs.
//
// Endpoint: GET /api/portfolio/runs
// Query params:
//   - limit: optional, positive integer, defaults to 50
//
// Response: 200 OK with array of model.SnapshotRun, newest first
func (h *PortfolioHandler) Runs(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			response.RespondError(w, http.StatusBadRequest, "invalid limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := h.materializedService.ListRuns(r.Context(), limit)
	if err != nil {
		respondServiceError(w, r, "failed to retrieve refresh runs", err)
		return
	}
	respondJSON(w, http.StatusOK, runs)
}

// Run handles GET requests for a single refresh run.
//
// Endpoint: GET /api/portfolio/runs/{uuid}
// Response: 200 OK with model.SnapshotRun
// Error: 404 Not Found if no run has the ID
func (h *PortfolioHandler) Run(w http.ResponseWriter, r *http.Request) {
	run, err := h.materializedService.GetRun(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, r, "failed to retrieve refresh run", err)
		return
	}
	respondJSON(w, http.StatusOK, run)
}
