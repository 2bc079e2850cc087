package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tableside-backend/internal/cart"
	"github.com/angelmondragon/tableside-backend/internal/catalog"
	"github.com/angelmondragon/tableside-backend/internal/orders"
	"github.com/angelmondragon/tableside-backend/internal/servercalls"
	"github.com/angelmondragon/tableside-backend/internal/sessionlock"
	"github.com/angelmondragon/tableside-backend/internal/sessions"
	"github.com/angelmondragon/tableside-backend/internal/store/memory"
	"github.com/angelmondragon/tableside-backend/internal/store/storetest"
	"github.com/angelmondragon/tableside-backend/pkg/config"
	"github.com/angelmondragon/tableside-backend/pkg/logger"
)

type memoryIdempotency struct {
	data map[string]string
}

func (m *memoryIdempotency) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", goredis.Nil
}

func (m *memoryIdempotency) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.data[key] = value.(string)
	return nil
}

func (m *memoryIdempotency) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func (m *memoryIdempotency) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryIdempotency) IdempotencyKey(scope, id string) string {
	return "idempotency:" + scope + ":" + id
}

type testServer struct {
	handler http.Handler
	bistro  storetest.Bistro
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	st := memory.New()
	fx := storetest.SeedBistro(t, st)
	locker := sessionlock.NewLocal()
	logg := logger.Nop()

	cartSvc, err := cart.NewService(st, locker, cart.Options{Logger: logg})
	require.NoError(t, err)
	orderSvc, err := orders.NewService(st, locker, orders.Options{Logger: logg})
	require.NoError(t, err)
	sessionSvc, err := sessions.NewService(st, locker, sessions.Options{Logger: logg})
	require.NoError(t, err)
	catalogSvc, err := catalog.NewService(st, sessionlock.NewLocal())
	require.NoError(t, err)
	callSvc, err := servercalls.NewService(st, servercalls.Throttle{}, logg)
	require.NoError(t, err)

	cfg := &config.Config{App: config.AppConfig{Env: "test", PublicBaseURL: "https://diner.example", AllowedOrigins: []string{"*"}}}
	handler := NewRouter(cfg, logg, Dependencies{
		Cart:        cartSvc,
		Orders:      orderSvc,
		Sessions:    sessionSvc,
		Catalog:     catalogSvc,
		ServerCalls: callSvc,
		Idempotency: &memoryIdempotency{data: map[string]string{}},
	})
	return testServer{handler: handler, bistro: fx}
}

func (s testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp := httptest.NewRecorder()
	s.handler.ServeHTTP(resp, req)
	return resp
}

func data(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestTableFlow(t *testing.T) {
	srv := newTestServer(t)
	restaurantID := srv.bistro.Restaurant.ID

	resp := srv.do(t, http.MethodPost, "/api/sessions", map[string]any{"restaurantId": restaurantID, "tableNumber": 4, "sessionId": "table-4"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.Equal(t, "active", data(t, resp)["status"])

	resp = srv.do(t, http.MethodPost, "/api/sessions", map[string]any{"restaurantId": restaurantID, "tableNumber": 4, "sessionId": "table-4"})
	require.Equal(t, http.StatusConflict, resp.Code)

	resp = srv.do(t, http.MethodPost, "/api/cart", map[string]any{
		"sessionId":  "table-4",
		"menuItemId": srv.bistro.Burger.ID,
		"quantity":   2,
		"addons":     []int64{srv.bistro.Cheese.ID},
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = srv.do(t, http.MethodPost, "/api/cart", map[string]any{"sessionId": "table-4", "menuItemId": srv.bistro.Fries.ID})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	friesID := int64(data(t, resp)["id"].(float64))

	resp = srv.do(t, http.MethodPut, fmt.Sprintf("/api/cart/%d", friesID), map[string]any{"quantity": 1, "specialInstructions": "extra crispy"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = srv.do(t, http.MethodGet, "/api/cart/table-4", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var lines struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &lines))
	require.Len(t, lines.Data, 2)

	resp = srv.do(t, http.MethodPost, "/api/orders", map[string]any{"sessionId": "table-4"}, "Idempotency-Key", "order-1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	order := data(t, resp)
	require.Equal(t, "pending", order["status"])
	require.Equal(t, 26.0, order["totalAmount"])

	replay := srv.do(t, http.MethodPost, "/api/orders", map[string]any{"sessionId": "table-4"}, "Idempotency-Key", "order-1")
	require.Equal(t, http.StatusOK, replay.Code)
	require.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	require.Equal(t, order["id"], data(t, replay)["id"])

	resp = srv.do(t, http.MethodPost, "/api/orders", map[string]any{"sessionId": "table-4"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Contains(t, resp.Body.String(), "EMPTY_CART")

	resp = srv.do(t, http.MethodGet, "/api/sessions/table-4", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "ordered", data(t, resp)["status"])

	resp = srv.do(t, http.MethodPut, fmt.Sprintf("/api/orders/%d/status", int64(order["id"].(float64))), map[string]any{"status": "preparing"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = srv.do(t, http.MethodGet, fmt.Sprintf("/api/orders/%d/detail", int64(order["id"].(float64))), nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.Len(t, data(t, resp)["items"], 2)

	resp = srv.do(t, http.MethodGet, "/api/orders/table-4", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = srv.do(t, http.MethodPost, "/api/sessions/table-4/close", map[string]any{"paymentMethod": "card"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	closed := data(t, resp)
	require.Equal(t, true, closed["success"])
	session := closed["session"].(map[string]any)
	require.Equal(t, "paid", session["status"])
	require.Equal(t, "card", session["paymentMethod"])
	require.NotNil(t, session["closedAt"])

	resp = srv.do(t, http.MethodPost, "/api/cart", map[string]any{"sessionId": "table-4", "menuItemId": srv.bistro.Fries.ID})
	require.Equal(t, http.StatusGone, resp.Code)

	resp = srv.do(t, http.MethodPut, "/api/sessions/table-4/status", map[string]any{"status": "active"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestCartRemoveAndClearRoutes(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(t, http.MethodPost, "/api/cart", map[string]any{"sessionId": "opaque", "menuItemId": srv.bistro.Fries.ID})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	id := int64(data(t, resp)["id"].(float64))

	resp = srv.do(t, http.MethodDelete, fmt.Sprintf("/api/cart/%d", id), nil)
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = srv.do(t, http.MethodDelete, fmt.Sprintf("/api/cart/%d", id), nil)
	require.Equal(t, http.StatusNotFound, resp.Code)

	resp = srv.do(t, http.MethodPost, "/api/cart", map[string]any{"sessionId": "opaque", "menuItemId": srv.bistro.Fries.ID})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = srv.do(t, http.MethodDelete, "/api/cart/session/opaque", nil)
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = srv.do(t, http.MethodGet, "/api/cart/opaque", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t, `{"data":[]}`, resp.Body.String())
}

func TestCatalogRoutes(t *testing.T) {
	srv := newTestServer(t)
	restaurantID := srv.bistro.Restaurant.ID

	resp := srv.do(t, http.MethodGet, "/api/restaurants", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = srv.do(t, http.MethodGet, fmt.Sprintf("/api/restaurants/%d", restaurantID), nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "Bistro", data(t, resp)["name"])

	resp = srv.do(t, http.MethodGet, fmt.Sprintf("/api/restaurants/%d/menu", restaurantID), nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Len(t, data(t, resp)["categories"], 2)

	resp = srv.do(t, http.MethodGet, fmt.Sprintf("/api/restaurants/%d/deals", restaurantID), nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = srv.do(t, http.MethodGet, fmt.Sprintf("/api/menu-items/%d/addons", srv.bistro.Burger.ID), nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = srv.do(t, http.MethodPost, fmt.Sprintf("/api/menu-items/%d/vote", srv.bistro.Burger.ID), map[string]any{"type": "up"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.Equal(t, 5.0, data(t, resp)["rating"])

	resp = srv.do(t, http.MethodGet, fmt.Sprintf("/api/menu-items/%d", srv.bistro.Burger.ID), nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, 10.0, data(t, resp)["price"])

	resp = srv.do(t, http.MethodGet, fmt.Sprintf("/api/restaurants/%d/tables/3/qr", restaurantID), nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "image/png", resp.Header().Get("Content-Type"))

	resp = srv.do(t, http.MethodGet, "/api/restaurants/999/menu", nil)
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestServerCallRoutes(t *testing.T) {
	srv := newTestServer(t)
	restaurantID := srv.bistro.Restaurant.ID

	resp := srv.do(t, http.MethodPost, "/api/server-calls", map[string]any{"restaurantId": restaurantID, "tableNumber": 2})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	id := int64(data(t, resp)["id"].(float64))

	resp = srv.do(t, http.MethodPut, fmt.Sprintf("/api/server-calls/%d/status", id), map[string]any{"status": "acknowledged"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = srv.do(t, http.MethodGet, fmt.Sprintf("/api/restaurants/%d/server-calls?status=acknowledged", restaurantID), nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var calls struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &calls))
	require.Len(t, calls.Data, 1)
}

func TestOpsRoutes(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(t, http.MethodGet, "/health/live", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = srv.do(t, http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = srv.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.Code)
}
