package network

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/MRamiBalles/FrostlineExpress/internal/domain/vehicle"
	"github.com/MRamiBalles/FrostlineExpress/internal/engine"
	"github.com/MRamiBalles/FrostlineExpress/internal/infra/storage"
	"github.com/MRamiBalles/FrostlineExpress/internal/platform/logger"
)

// RecapSource builds mission recaps from stored journals.
type RecapSource interface {
	Recap(ctx context.Context, missionID string) (*storage.MissionRecap, error)
}

// HistorySource lists acknowledged missions.
type HistorySource interface {
	List(ctx context.Context, limit int) ([]engine.MissionSummary, error)
}

// API serves the JSON HTTP endpoints. Recaps and history are optional and
// answer 503 when no storage is configured.
type API struct {
	engine  Commander
	recaps  RecapSource
	history HistorySource
	logger  *logger.Logger
}

// NewAPI creates the HTTP API. recaps and history may be nil.
func NewAPI(eng Commander, recaps RecapSource, history HistorySource, log *logger.Logger) *API {
	if log == nil {
		log = logger.Nop()
	}
	return &API{engine: eng, recaps: recaps, history: history, logger: log}
}

// RegisterRoutes sets up the API routes.
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/missions", a.HandleMissions)
	mux.HandleFunc("GET /api/missions/{id}", a.HandleMission)
	mux.HandleFunc("GET /api/missions/{id}/recap", a.HandleRecap)
	mux.HandleFunc("POST /api/commands", a.HandleCommand)
	mux.HandleFunc("GET /api/history", a.HandleHistory)
}

// HandleMissions returns the engine snapshot, optionally narrowed to one
// mission kind.
// GET /api/missions?kind=rescue
func (a *API) HandleMissions(w http.ResponseWriter, r *http.Request) {
	snap := a.engine.Snapshot()
	if name := r.URL.Query().Get("kind"); name != "" {
		kind, err := engine.ParseKind(name)
		if err != nil {
			a.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		snap.Pending = filterKind(snap.Pending, kind)
		snap.Deployed = filterKind(snap.Deployed, kind)
	}
	a.jsonSuccess(w, snap)
}

func filterKind(views []engine.MissionView, kind engine.Kind) []engine.MissionView {
	out := make([]engine.MissionView, 0, len(views))
	for _, v := range views {
		if v.Kind == kind.String() {
			out = append(out, v)
		}
	}
	return out
}

// HandleMission returns one pending or deployed mission.
// GET /api/missions/{id}
func (a *API) HandleMission(w http.ResponseWriter, r *http.Request) {
	view, err := a.engine.Mission(r.PathValue("id"))
	if err != nil {
		a.jsonError(w, err.Error(), statusFor(err))
		return
	}
	a.jsonSuccess(w, view)
}

// HandleRecap returns the journey recap of a mission.
// GET /api/missions/{id}/recap
func (a *API) HandleRecap(w http.ResponseWriter, r *http.Request) {
	if a.recaps == nil {
		a.jsonError(w, "Recaps need a storage backend", http.StatusServiceUnavailable)
		return
	}
	recap, err := a.recaps.Recap(r.Context(), r.PathValue("id"))
	if err != nil {
		a.jsonError(w, err.Error(), statusFor(err))
		return
	}
	a.jsonSuccess(w, recap)
}

// HandleCommand runs the same commands the websocket accepts.
// POST /api/commands
func (a *API) HandleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		a.jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ack := Ack{RequestID: cmd.RequestID, Command: cmd.Type}
	result, err := Dispatch(a.engine, cmd)
	if err != nil {
		a.logger.Event("API_"+cmd.Type, cmd.MissionID, "rejected: "+err.Error())
		ack.Error = err.Error()
		a.jsonWrite(w, commandStatus(err), ack)
		return
	}
	a.logger.Event("API_"+cmd.Type, cmd.MissionID, "ok")
	ack.OK = true
	ack.Result = result
	a.jsonSuccess(w, ack)
}

// HandleHistory lists acknowledged missions, newest first.
// GET /api/history?limit=N
func (a *API) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		a.jsonError(w, "History needs a storage backend", http.StatusServiceUnavailable)
		return
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			a.jsonError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	list, err := a.history.List(r.Context(), limit)
	if err != nil {
		a.logger.Err(err, "history query failed")
		a.jsonError(w, "History unavailable", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []engine.MissionSummary{}
	}
	a.jsonSuccess(w, map[string]interface{}{
		"count":    len(list),
		"missions": list,
	})
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrUnknownMission), errors.Is(err, storage.ErrNoJournal),
		errors.Is(err, vehicle.ErrUnknownVehicle), errors.Is(err, engine.ErrUnknownPassenger):
		return http.StatusNotFound
	case errors.Is(err, ErrUnknownCommand):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// commandStatus treats every rejection that is not a lookup or syntax
// failure as a conflict with the game state.
func commandStatus(err error) int {
	if status := statusFor(err); status != http.StatusInternalServerError {
		return status
	}
	return http.StatusConflict
}

// jsonError sends an error response.
func (a *API) jsonError(w http.ResponseWriter, message string, status int) {
	a.jsonWrite(w, status, map[string]string{"error": message})
}

// jsonSuccess sends a success response.
func (a *API) jsonSuccess(w http.ResponseWriter, data interface{}) {
	a.jsonWrite(w, http.StatusOK, data)
}

func (a *API) jsonWrite(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.logger.Err(err, "failed to write response")
	}
}
