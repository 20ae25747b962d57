package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/knapsack-packer/internal/knapsack"
	"github.com/eugenenazirov/knapsack-packer/internal/storage"
)

type controllableClock struct {
	mu  sync.RWMutex
	now time.Time
}

func newControllableClock(initial time.Time) *controllableClock {
	return &controllableClock{now: initial}
}

func (c *controllableClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

func (c *controllableClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func setupTestRouter(t *testing.T, opts ...HandlerOption) (http.Handler, *controllableClock) {
	t.Helper()

	store := storage.NewMemoryStorage()
	solver := knapsack.New()
	clock := newControllableClock(time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC))

	opts = append([]HandlerOption{WithClock(clock.Now)}, opts...)
	handler := NewHandler(solver, store, opts...)
	logger := zaptest.NewLogger(t)
	router := NewRouter(handler, logger, WithLogging(false))

	return router, clock
}

func doJSON(t *testing.T, router http.Handler, method, target string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body []byte
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = data
	}

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type solveBody struct {
	Capacity    int           `json:"capacity"`
	Value       int           `json:"value"`
	Items       []int         `json:"items"`
	TotalWeight int           `json:"totalWeight"`
	Selected    []itemPayload `json:"selected"`
}

func decodeSolve(t *testing.T, rec *httptest.ResponseRecorder) solveBody {
	t.Helper()
	var body solveBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body
}

func TestRequestIDHelpers(t *testing.T) {
	ctx := contextWithRequestID(context.Background(), "abc")
	if got := requestIDFromContext(ctx); got != "abc" {
		t.Fatalf("expected abc, got %s", got)
	}
	resp := httptest.NewRecorder()
	writeInternalError(resp, assertError("boom"))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 status, got %d", resp.Code)
	}
}

type assertError string

func (a assertError) Error() string { return string(a) }

func TestHealthEndpoint(t *testing.T) {
	router, clock := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.Status != "ok" {
		t.Fatalf("expected status ok, got %s", body.Status)
	}
	if !body.Timestamp.Equal(clock.Now()) {
		t.Fatalf("expected timestamp %s, got %s", clock.Now(), body.Timestamp)
	}
}

func TestGetItemsReturnsDefaults(t *testing.T) {
	router, clock := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/items", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Items     []itemPayload `json:"items"`
		UpdatedAt time.Time     `json:"updatedAt"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	want := toItemPayloads(storage.DefaultItems())
	if !slices.Equal(body.Items, want) {
		t.Fatalf("expected items %v, got %v", want, body.Items)
	}
	if !body.UpdatedAt.Equal(clock.Now()) {
		t.Fatalf("expected updatedAt %s, got %s", clock.Now(), body.UpdatedAt)
	}
}

func TestPutItemsUpdatesStorage(t *testing.T) {
	router, clock := setupTestRouter(t)

	clock.Advance(time.Hour)

	payload := map[string]any{
		"items": []map[string]int{
			{"index": 9, "weight": 10, "value": 60},
			{"weight": 20, "value": 100},
		},
	}
	rec := doJSON(t, router, http.MethodPut, "/api/items", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Items     []itemPayload `json:"items"`
		UpdatedAt time.Time     `json:"updatedAt"`
		Message   string        `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.Message == "" {
		t.Fatalf("expected success message, got empty string")
	}
	want := []itemPayload{
		{Index: 0, Weight: 10, Value: 60},
		{Index: 1, Weight: 20, Value: 100},
	}
	if !slices.Equal(body.Items, want) {
		t.Fatalf("expected items %v, got %v", want, body.Items)
	}
	if !body.UpdatedAt.Equal(clock.Now()) {
		t.Fatalf("expected updatedAt %s, got %s", clock.Now(), body.UpdatedAt)
	}
}

func TestPutItemsValidatesInput(t *testing.T) {
	router, _ := setupTestRouter(t)

	cases := map[string]any{
		"missing items":   map[string]any{},
		"negative weight": map[string]any{"items": []map[string]int{{"weight": -1, "value": 2}}},
	}
	for name, payload := range cases {
		payload := payload
		t.Run(name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPut, "/api/items", payload)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rec.Code)
			}
		})
	}
}

func TestSolveEndpointUsesCatalog(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/solve", map[string]any{"capacity": 10})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := decodeSolve(t, rec)
	// weights 2,3,5 with values 3,4,6 is the only subset worth 13.
	if body.Value != 13 {
		t.Fatalf("expected value 13, got %d", body.Value)
	}
	if want := []int{0, 1, 3}; !slices.Equal(body.Items, want) {
		t.Fatalf("expected items %v, got %v", want, body.Items)
	}
	if body.TotalWeight != 10 {
		t.Fatalf("expected total weight 10, got %d", body.TotalWeight)
	}
	if len(body.Selected) != 3 || body.Selected[2] != (itemPayload{Index: 3, Weight: 5, Value: 6}) {
		t.Fatalf("unexpected selected items: %v", body.Selected)
	}
}

func TestSolveEndpointInlineItems(t *testing.T) {
	router, _ := setupTestRouter(t)

	payload := map[string]any{
		"capacity": 50,
		"items": []map[string]int{
			{"weight": 10, "value": 60},
			{"weight": 20, "value": 100},
			{"weight": 30, "value": 120},
		},
	}
	rec := doJSON(t, router, http.MethodPost, "/api/solve", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := decodeSolve(t, rec)
	if body.Value != 220 {
		t.Fatalf("expected value 220, got %d", body.Value)
	}
	if want := []int{1, 2}; !slices.Equal(body.Items, want) {
		t.Fatalf("expected items %v, got %v", want, body.Items)
	}
}

func TestSolveEndpointZeroCapacity(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/solve", map[string]any{"capacity": 0})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := decodeSolve(t, rec)
	if body.Value != 0 {
		t.Fatalf("expected value 0, got %d", body.Value)
	}
	if body.Items == nil || len(body.Items) != 0 {
		t.Fatalf("expected empty items array, got %#v", body.Items)
	}
}

func TestSolveEndpointRejectsBadRequests(t *testing.T) {
	router, _ := setupTestRouter(t)

	cases := map[string]any{
		"missing capacity":  map[string]any{},
		"negative capacity": map[string]any{"capacity": -1},
		"negative value":    map[string]any{"capacity": 5, "items": []map[string]int{{"weight": 1, "value": -3}}},
	}
	for name, payload := range cases {
		payload := payload
		t.Run(name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/solve", payload)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rec.Code)
			}
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/solve", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})
}

func TestSolveEndpointEnforcesLimits(t *testing.T) {
	router, _ := setupTestRouter(t, WithLimits(100, 2))

	rec := doJSON(t, router, http.MethodPost, "/api/solve", map[string]any{"capacity": 101})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422 for capacity, got %d", rec.Code)
	}

	var body struct {
		Suggestion string `json:"suggestion"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Suggestion == "" {
		t.Fatalf("expected suggestion to be populated")
	}

	// the default catalog has four items
	rec = doJSON(t, router, http.MethodPost, "/api/solve", map[string]any{"capacity": 10})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422 for item count, got %d", rec.Code)
	}
}

func TestCorsPreflight(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/solve", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("expected Access-Control-Allow-Origin header to be set")
	}
}

func TestRequestIDPropagation(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "test-request-id")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "test-request-id" {
		t.Fatalf("expected X-Request-ID header to be echoed, got %s", got)
	}
}
