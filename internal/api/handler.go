package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/sainte-lague/internal/apportion"
	"github.com/eugenenazirov/sainte-lague/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler wires the apportionment engine and storage dependencies into HTTP handlers.
type Handler struct {
	newApportioner func(apportion.Method) apportion.Apportioner
	storage        storage.Storage
	logger         *zap.Logger

	clock func() time.Time

	mu                sync.RWMutex
	settingsUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithHandlerLogger attaches a logger used for apportionment diagnostics.
func WithHandlerLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		newApportioner: func(m apportion.Method) apportion.Apportioner {
			return apportion.New(apportion.WithMethod(m))
		},
		storage: store,
		logger:  zap.NewNop(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.settingsUpdatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	_ = r
	settings, err := h.storage.GetSettings()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := settingsResponse{
		Settings:  settings,
		UpdatedAt: h.currentSettingsUpdatedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if req.DefaultSeats == nil {
		writeError(w, http.StatusBadRequest, "Invalid settings", "defaultSeats is required")
		return
	}

	settings := storage.Settings{
		DefaultSeats:     *req.DefaultSeats,
		HalfFirstDivisor: req.HalfFirstDivisor,
	}
	if err := h.storage.SetSettings(settings); err != nil {
		if errors.Is(err, storage.ErrInvalidSettings) {
			writeError(w, http.StatusBadRequest, "Invalid settings", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markSettingsUpdated()

	current, err := h.storage.GetSettings()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := settingsResponse{
		Settings:  current,
		UpdatedAt: h.currentSettingsUpdatedAt(),
		Message:   "Settings updated successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleApportion(w http.ResponseWriter, r *http.Request) {
	var req apportionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if len(req.Parties) != 0 && len(req.Parties) != len(req.Votes) {
		writeError(w, http.StatusBadRequest, "Invalid request",
			fmt.Sprintf("got %d party names for %d vote counts", len(req.Parties), len(req.Votes)))
		return
	}

	settings, err := h.storage.GetSettings()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	seats := settings.DefaultSeats
	if req.Seats != nil {
		seats = *req.Seats
	}
	half := settings.HalfFirstDivisor
	if req.HalfFirstDivisor != nil {
		half = *req.HalfFirstDivisor
	}

	h.apportion(w, r, req.Parties, req.Votes, seats, half)
}

func (h *Handler) handleListTallies(w http.ResponseWriter, r *http.Request) {
	_ = r
	tallies, err := h.storage.ListTallies()
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, talliesResponse{Tallies: tallies})
}

func (h *Handler) handlePutTally(w http.ResponseWriter, r *http.Request) {
	var req tallyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	tally := storage.Tally{
		Name:             r.PathValue("name"),
		Parties:          req.Parties,
		Votes:            req.Votes,
		Seats:            req.Seats,
		HalfFirstDivisor: req.HalfFirstDivisor,
	}
	if err := h.storage.SaveTally(tally); err != nil {
		if errors.Is(err, storage.ErrInvalidTally) {
			writeError(w, http.StatusBadRequest, "Invalid tally", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	saved, err := h.storage.GetTally(tally.Name)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *Handler) handleGetTally(w http.ResponseWriter, r *http.Request) {
	tally, ok := h.lookupTally(w, r.PathValue("name"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, tally)
}

func (h *Handler) handleDeleteTally(w http.ResponseWriter, r *http.Request) {
	if err := h.storage.DeleteTally(r.PathValue("name")); err != nil {
		if errors.Is(err, storage.ErrTallyNotFound) {
			writeError(w, http.StatusNotFound, "Tally not found", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleApportionTally(w http.ResponseWriter, r *http.Request) {
	tally, ok := h.lookupTally(w, r.PathValue("name"))
	if !ok {
		return
	}
	h.apportion(w, r, tally.Parties, tally.Votes, tally.Seats, tally.HalfFirstDivisor)
}

func (h *Handler) lookupTally(w http.ResponseWriter, name string) (storage.Tally, bool) {
	tally, err := h.storage.GetTally(name)
	if err != nil {
		if errors.Is(err, storage.ErrTallyNotFound) {
			writeError(w, http.StatusNotFound, "Tally not found", err.Error())
			return storage.Tally{}, false
		}
		writeInternalError(w, err)
		return storage.Tally{}, false
	}
	return tally, true
}

func (h *Handler) apportion(w http.ResponseWriter, r *http.Request, parties []string, votes []float64, seats int, half bool) {
	method := apportion.MethodFor(half)

	start := time.Now()
	result, err := h.newApportioner(method).Apportion(votes, seats)
	elapsed := time.Since(start)

	if err != nil {
		switch {
		case errors.Is(err, apportion.ErrInvalidVoteCount):
			writeError(w, http.StatusBadRequest, "Invalid votes", err.Error(),
				"Provide at least one party and only non-negative vote counts")
		case errors.Is(err, apportion.ErrInvalidSeatCount):
			writeError(w, http.StatusUnprocessableEntity, "Invalid seat count", err.Error(),
				fmt.Sprintf("Choose a seat count between 0 and %d", apportion.MaxSeats))
		default:
			writeInternalError(w, err)
		}
		return
	}

	if len(result.Ties) > 0 {
		h.logger.Info("final seat decided by tie-break",
			zap.Int("winner_candidates", len(result.Ties)+1),
			zap.Ints("passed_over", result.Ties),
			zap.String("request_id", requestIDFromContext(r.Context())),
		)
	}

	resp := apportionResponse{
		Seats:             result.Seats,
		Parties:           parties,
		TotalSeats:        result.TotalSeats,
		TotalVotes:        result.TotalVotes,
		Method:            result.Method.String(),
		Ties:              result.Ties,
		CalculationTimeMs: elapsed.Milliseconds(),
	}
	if resp.Ties == nil {
		resp.Ties = []int{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) currentSettingsUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.settingsUpdatedAt
}

func (h *Handler) markSettingsUpdated() {
	h.mu.Lock()
	h.settingsUpdatedAt = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type settingsRequest struct {
	DefaultSeats     *int `json:"defaultSeats"`
	HalfFirstDivisor bool `json:"halfFirstDivisor"`
}

type apportionRequest struct {
	Votes            []float64 `json:"votes"`
	Parties          []string  `json:"parties,omitempty"`
	Seats            *int      `json:"seats,omitempty"`
	HalfFirstDivisor *bool     `json:"halfFirstDivisor,omitempty"`
}

type tallyRequest struct {
	Parties          []string  `json:"parties,omitempty"`
	Votes            []float64 `json:"votes"`
	Seats            int       `json:"seats"`
	HalfFirstDivisor bool      `json:"halfFirstDivisor"`
}

type apportionResponse struct {
	Seats             []int    `json:"seats"`
	Parties           []string `json:"parties,omitempty"`
	TotalSeats        int      `json:"totalSeats"`
	TotalVotes        float64  `json:"totalVotes"`
	Method            string   `json:"method"`
	Ties              []int    `json:"ties"`
	CalculationTimeMs int64    `json:"calculationTimeMs"`
}

type settingsResponse struct {
	storage.Settings
	UpdatedAt time.Time `json:"updatedAt"`
	Message   string    `json:"message,omitempty"`
}

type talliesResponse struct {
	Tallies []storage.Tally `json:"tallies"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
