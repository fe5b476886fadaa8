package checkout

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beyond-silhouette/storefront/internal/auth"
	"github.com/beyond-silhouette/storefront/internal/domain"
)

type memSessions struct {
	sessions map[string]domain.Session
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[string]domain.Session)}
}

func (s *memSessions) Create(ctx context.Context, sess domain.Session) (string, error) {
	token := uuid.NewString()
	s.sessions[token] = sess
	return token, nil
}

func (s *memSessions) Read(ctx context.Context, token string) (*domain.Session, error) {
	sess, ok := s.sessions[token]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

func (s *memSessions) Delete(ctx context.Context, token string) error {
	delete(s.sessions, token)
	return nil
}

type handlerFixture struct {
	server *httptest.Server
	store  *memStore
	token  string
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	store := newMemStore()
	seedProduct(store, "bs-tee-shadow", 3500, map[string]int{"M": 2})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	placer := NewPlacer(store, "USD")
	handler, err := NewHandler(placer, store, nil, logger)
	require.NoError(t, err)

	sessions := newMemSessions()
	token, err := sessions.Create(context.Background(), domain.Session{
		UserID: "user-1", Email: "ada@example.com", Role: domain.RoleCustomer,
	})
	require.NoError(t, err)
	mw := auth.NewMiddleware(sessions, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/orders", mw.RequireUser(handler.HandlePlaceOrder))
	mux.HandleFunc("GET /api/orders", mw.RequireUser(handler.HandleListOrders))
	mux.HandleFunc("GET /api/orders/{id}", mw.RequireUser(handler.HandleGetOrder))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &handlerFixture{server: server, store: store, token: token}
}

func (f *handlerFixture) do(t *testing.T, method, path, body string, authenticated bool) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	if authenticated {
		req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: f.token})
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHandlePlaceOrderRequiresSession(t *testing.T) {
	f := newHandlerFixture(t)

	resp := f.do(t, http.MethodPost, "/api/orders", `{"items":[{"productId":"bs-tee-shadow","size":"M","quantity":1}]}`, false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "Not authenticated", body["error"])
	assert.Equal(t, 2, f.store.stockOf("bs-tee-shadow", "M"))
}

func TestHandlePlaceOrderCreated(t *testing.T) {
	f := newHandlerFixture(t)

	resp := f.do(t, http.MethodPost, "/api/orders", `{"items":[{"productId":"bs-tee-shadow","size":"M","quantity":2}]}`, true)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	body := decodeBody(t, resp)
	require.Equal(t, true, body["ok"])
	order, ok := body["order"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, order["id"])
	assert.Equal(t, float64(7000), order["subtotal"])
	assert.Equal(t, float64(7000), order["total"])
	assert.Equal(t, "USD", order["currency"])
	assert.Equal(t, "processing", order["status"])
	assert.NotEmpty(t, order["createdAt"])

	assert.Equal(t, 0, f.store.stockOf("bs-tee-shadow", "M"))
}

func TestHandlePlaceOrderAcceptsQtyAlias(t *testing.T) {
	f := newHandlerFixture(t)

	resp := f.do(t, http.MethodPost, "/api/orders", `{"items":[{"productId":"bs-tee-shadow","size":"M","qty":1}]}`, true)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 1, f.store.stockOf("bs-tee-shadow", "M"))
}

func TestHandlePlaceOrderEmptyCart(t *testing.T) {
	f := newHandlerFixture(t)

	for name, payload := range map[string]string{
		"no items":       `{"items":[]}`,
		"missing items":  `{}`,
		"all lines junk": `{"items":[{"productId":"bs-tee-shadow","size":"M","quantity":-1},{"productId":"","size":"M","quantity":1}]}`,
		"fraction below one": `{"items":[{"productId":"bs-tee-shadow","size":"M","quantity":0.5}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			resp := f.do(t, http.MethodPost, "/api/orders", payload, true)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			body := decodeBody(t, resp)
			assert.Equal(t, false, body["ok"])
			assert.Equal(t, "Cart is empty", body["error"])
		})
	}
}

func TestHandlePlaceOrderOutOfStock(t *testing.T) {
	f := newHandlerFixture(t)

	resp := f.do(t, http.MethodPost, "/api/orders", `{"items":[{"productId":"bs-tee-shadow","size":"M","quantity":5},{"productId":"p404","size":"L","quantity":1}]}`, true)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "OUT_OF_STOCK", body["code"])

	items, ok := body["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 2)

	first, ok := items[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "bs-tee-shadow", first["productId"])
	assert.Equal(t, "M", first["size"])
	assert.Equal(t, float64(2), first["available"])

	second, ok := items[1].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "p404", second["productId"])
	assert.Equal(t, float64(0), second["available"])

	assert.Equal(t, 2, f.store.stockOf("bs-tee-shadow", "M"))
}

func TestHandlePlaceOrderRejectsMalformedBody(t *testing.T) {
	f := newHandlerFixture(t)

	resp := f.do(t, http.MethodPost, "/api/orders", `{"items":`, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, false, body["ok"])
}

func TestHandleListAndGetOrders(t *testing.T) {
	f := newHandlerFixture(t)

	resp := f.do(t, http.MethodPost, "/api/orders", `{"items":[{"productId":"bs-tee-shadow","size":"M","quantity":1}]}`, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody(t, resp)["order"].(map[string]any)
	orderID := created["id"].(string)

	resp = f.do(t, http.MethodGet, "/api/orders", "", true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	orders, ok := body["orders"].([]any)
	require.True(t, ok)
	assert.Len(t, orders, 1)

	resp = f.do(t, http.MethodGet, "/api/orders/"+orderID, "", true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	order, ok := body["order"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, orderID, order["id"])
	items, ok := order["items"].([]any)
	require.True(t, ok)
	assert.Len(t, items, 1)

	resp = f.do(t, http.MethodGet, "/api/orders/"+uuid.NewString(), "", true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "Order not found", body["error"])
}
