package network

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/MRamiBalles/FrostlineExpress/internal/events"
	"github.com/MRamiBalles/FrostlineExpress/internal/platform/logger"
)

// JournalHandler exposes the in-memory journal for clients that fell behind
// the websocket stream.
type JournalHandler struct {
	eventLog *events.EventLog
	logger   *logger.Logger
}

// NewJournalHandler creates a journal handler.
func NewJournalHandler(el *events.EventLog, log *logger.Logger) *JournalHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &JournalHandler{eventLog: el, logger: log}
}

// JournalResponse is the API response for a journal query.
type JournalResponse struct {
	TotalEvents int                `json:"total_events"`
	NextOffset  int                `json:"next_offset"`
	FilteredBy  string             `json:"filtered_by,omitempty"`
	GeneratedAt string             `json:"generated_at"`
	Events      []events.GameEvent `json:"events"`
}

// HandleJournal returns journal entries.
// GET /api/journal?since=N&mission_id=XXX&type=MILESTONE_REACHED
func (jh *JournalHandler) HandleJournal(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	since := 0
	if s := q.Get("since"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			jh.jsonError(w, "Invalid since", http.StatusBadRequest)
			return
		}
		since = n
	}
	missionID := q.Get("mission_id")
	eventType := q.Get("type")

	entries, next := jh.eventLog.Since(since)
	filtered := make([]events.GameEvent, 0, len(entries))
	for _, e := range entries {
		if missionID != "" && e.MissionID != missionID {
			continue
		}
		if eventType != "" && string(e.Type) != eventType {
			continue
		}
		filtered = append(filtered, e)
	}

	filterDesc := ""
	if missionID != "" {
		filterDesc = "mission " + missionID
	}
	if eventType != "" {
		if filterDesc != "" {
			filterDesc += ", "
		}
		filterDesc += "type " + eventType
	}

	response := JournalResponse{
		TotalEvents: len(filtered),
		NextOffset:  next,
		FilteredBy:  filterDesc,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Events:      filtered,
	}

	jh.logger.Debug("journal query: " + strconv.Itoa(len(filtered)) + " events " + filterDesc)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HandleStats returns journal counts by type.
// GET /api/journal/stats
func (jh *JournalHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	all := jh.eventLog.Replay()

	byType := make(map[string]int)
	missions := make(map[string]bool)
	for _, e := range all {
		byType[string(e.Type)]++
		if e.MissionID != "" {
			missions[e.MissionID] = true
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"generated_at": time.Now().Format(time.RFC3339),
		"total_events": len(all),
		"missions":     len(missions),
		"by_type":      byType,
	})
}

// RegisterRoutes sets up the journal routes.
func (jh *JournalHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/journal", jh.HandleJournal)
	mux.HandleFunc("GET /api/journal/stats", jh.HandleStats)
}

// jsonError sends an error response.
func (jh *JournalHandler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
