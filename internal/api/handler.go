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

	"github.com/eugenenazirov/knapsack-packer/internal/knapsack"
	"github.com/eugenenazirov/knapsack-packer/internal/storage"
)

type contextKey string

const (
	requestIDContextKey contextKey = "requestID"
	accessLogContextKey contextKey = "accessLog"
)

const (
	defaultMaxCapacity = 10_000
	defaultMaxItems    = storage.DefaultMaxItems
)

// Handler wires solver and storage dependencies into HTTP handlers.
type Handler struct {
	solver  knapsack.Solver
	storage storage.Storage

	clock       func() time.Time
	maxCapacity int
	maxItems    int

	mu             sync.RWMutex
	itemsUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithLimits bounds the capacity and item count accepted by the solve
// endpoint. Non-positive values keep the defaults.
func WithLimits(maxCapacity, maxItems int) HandlerOption {
	return func(h *Handler) {
		if maxCapacity > 0 {
			h.maxCapacity = maxCapacity
		}
		if maxItems > 0 {
			h.maxItems = maxItems
		}
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(solver knapsack.Solver, store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		solver:      solver,
		storage:     store,
		maxCapacity: defaultMaxCapacity,
		maxItems:    defaultMaxItems,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.itemsUpdatedAt = h.clock()
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

func (h *Handler) handleGetItems(w http.ResponseWriter, r *http.Request) {
	_ = r
	items, err := h.storage.GetItems()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := itemsResponse{
		Items:     toItemPayloads(items),
		UpdatedAt: h.currentItemsUpdatedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePutItems(w http.ResponseWriter, r *http.Request) {
	var req itemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if req.Items == nil {
		writeError(w, http.StatusBadRequest, "Invalid items", "items must be provided (use [] for an empty catalog)")
		return
	}

	if err := h.storage.SetItems(fromItemPayloads(req.Items)); err != nil {
		if errors.Is(err, storage.ErrInvalidItems) {
			writeError(w, http.StatusBadRequest, "Invalid items", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markItemsUpdated()

	items, err := h.storage.GetItems()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := itemsResponse{
		Items:     toItemPayloads(items),
		UpdatedAt: h.currentItemsUpdatedAt(),
		Message:   "Items updated successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req solveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if req.Capacity == nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "capacity is required")
		return
	}
	capacity := *req.Capacity
	if capacity < 0 {
		writeError(w, http.StatusBadRequest, "Invalid request", "capacity must be a non-negative integer")
		return
	}

	var items []knapsack.Item
	if req.Items != nil {
		items = fromItemPayloads(req.Items)
	} else {
		stored, err := h.storage.GetItems()
		if err != nil {
			writeInternalError(w, err)
			return
		}
		items = stored
	}
	annotate(r.Context(), zap.Int("capacity", capacity), zap.Int("items", len(items)))

	if capacity > h.maxCapacity || len(items) > h.maxItems {
		suggestion := fmt.Sprintf("Keep capacity at or below %d and use at most %d items", h.maxCapacity, h.maxItems)
		writeError(w, http.StatusUnprocessableEntity, "Problem too large",
			fmt.Sprintf("capacity %d with %d items exceeds the configured limits", capacity, len(items)), suggestion)
		return
	}

	weights, values := knapsack.Split(items)

	start := time.Now()
	solution, solveErr := h.solver.Solve(capacity, weights, values)
	elapsed := time.Since(start)

	if solveErr != nil {
		switch {
		case errors.Is(solveErr, knapsack.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, "Invalid request", solveErr.Error())
		default:
			writeInternalError(w, solveErr)
		}
		return
	}

	annotate(r.Context(),
		zap.Int("value", solution.Value()),
		zap.Int("chosen", len(solution.Items())),
		zap.Duration("solve_time", elapsed),
	)
	resp := solveResponse{
		Capacity:          capacity,
		Value:             solution.Value(),
		Items:             solution.Items(),
		TotalWeight:       solution.Weight(),
		Selected:          toItemPayloads(solution.Selected(weights, values)),
		CalculationTimeMs: elapsed.Milliseconds(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) currentItemsUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.itemsUpdatedAt
}

func (h *Handler) markItemsUpdated() {
	h.mu.Lock()
	h.itemsUpdatedAt = h.clock()
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

type itemPayload struct {
	Index  int `json:"index"`
	Weight int `json:"weight"`
	Value  int `json:"value"`
}

func toItemPayloads(items []knapsack.Item) []itemPayload {
	out := make([]itemPayload, len(items))
	for i, item := range items {
		out[i] = itemPayload{Index: item.Index, Weight: item.Weight, Value: item.Value}
	}
	return out
}

// fromItemPayloads re-indexes items by position; client supplied indices are ignored.
func fromItemPayloads(payloads []itemPayload) []knapsack.Item {
	out := make([]knapsack.Item, len(payloads))
	for i, p := range payloads {
		out[i] = knapsack.Item{Index: i, Weight: p.Weight, Value: p.Value}
	}
	return out
}

type itemsRequest struct {
	Items []itemPayload `json:"items"`
}

type solveRequest struct {
	Capacity *int          `json:"capacity"`
	Items    []itemPayload `json:"items,omitempty"`
}

type solveResponse struct {
	Capacity          int           `json:"capacity"`
	Value             int           `json:"value"`
	Items             []int         `json:"items"`
	TotalWeight       int           `json:"totalWeight"`
	Selected          []itemPayload `json:"selected"`
	CalculationTimeMs int64         `json:"calculationTimeMs"`
}

type itemsResponse struct {
	Items     []itemPayload `json:"items"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Message   string        `json:"message,omitempty"`
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
