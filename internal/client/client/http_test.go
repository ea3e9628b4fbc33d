package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/logging"
)

/*************
 * Fake store
 *************/

type fakeStore struct {
	mu sync.Mutex

	token    string
	tokenErr error

	ClearCalls int
	clearErr   error
}

func (f *fakeStore) Token(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token, f.tokenErr
}

func (f *fakeStore) ClearAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ClearCalls++
	f.token = ""
	return f.clearErr
}

/*************
 * Helpers
 *************/

type captured struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	RequestID     string
	ContentType   string
	Body          []byte
}

type fakeAPI struct {
	mu   sync.Mutex
	last captured
}

func (a *fakeAPI) capture(r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last = captured{
		Method:        r.Method,
		Path:          r.URL.Path,
		Query:         r.URL.RawQuery,
		Authorization: r.Header.Get("Authorization"),
		RequestID:     r.Header.Get("X-Request-ID"),
		ContentType:   r.Header.Get("Content-Type"),
		Body:          body,
	}
}

func (a *fakeAPI) Last() captured {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// newServer mounts every endpoint with a handler that records the request
// and answers with reply.
func newServer(t *testing.T, reply func(w http.ResponseWriter, r *http.Request)) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			api.capture(r)
			next.ServeHTTP(w, r)
		})
	})
	h := http.HandlerFunc(reply)
	r.Post("/api/auth/login", h)
	r.Post("/api/auth/register", h)
	r.Get("/api/products", h)
	r.Post("/api/products", h)
	r.Put("/api/products/{id}", h)
	r.Delete("/api/products/{id}", h)
	r.Get("/api/categories", h)
	r.Post("/api/orders", h)
	r.Get("/api/orders/my-orders", h)
	r.Get("/api/orders/admin/all", h)
	r.Get("/api/orders/admin/pending", h)
	r.Put("/api/orders/{id}/status", h)
	r.Delete("/api/orders/{id}", h)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return api, srv
}

func newClient(t *testing.T, url string, st SessionStore, opts ...Option) *HTTPClient {
	t.Helper()
	c, err := NewHTTPClient(url, 2*time.Second, st, opts...)
	require.NoError(t, err)
	return c
}

/*************
 * Tests
 *************/

func TestDo_AttachesBearerAndRequestID(t *testing.T) {
	api, srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []models.Product{})
	})
	c := newClient(t, srv.URL, &fakeStore{token: "abc"})

	_, err := c.Products(context.Background())
	require.NoError(t, err)

	last := api.Last()
	assert.Equal(t, "Bearer abc", last.Authorization)
	assert.Len(t, last.RequestID, 36)
}

func TestDo_NoSessionOmitsHeader(t *testing.T) {
	api, srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []models.Category{{ID: 1, Name: "Books"}})
	})
	c := newClient(t, srv.URL, &fakeStore{})

	cats, err := c.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Category{{ID: 1, Name: "Books"}}, cats)
	assert.Empty(t, api.Last().Authorization)
}

func TestLogin_DecodesSession(t *testing.T) {
	api, srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"token": "jwt", "username": "jdoe", "email": "j@x", "firstName": "John", "lastName": "Doe", "role": "CUSTOMER",
		})
	})
	c := newClient(t, srv.URL, &fakeStore{})

	sess, err := c.Login(context.Background(), models.Credentials{Username: "jdoe", Password: []byte("pw")})
	require.NoError(t, err)
	assert.Equal(t, "jwt", sess.Token)
	assert.Equal(t, models.Profile{Username: "jdoe", Email: "j@x", FirstName: "John", LastName: "Doe", Role: models.RoleCustomer}, sess.Profile)

	last := api.Last()
	assert.Equal(t, "application/json", last.ContentType)
	assert.JSONEq(t, `{"username":"jdoe","password":"pw"}`, string(last.Body))
}

func TestLogin_MissingTokenIsUnexpected(t *testing.T) {
	_, srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"username": "jdoe"})
	})
	c := newClient(t, srv.URL, &fakeStore{})

	_, err := c.Login(context.Background(), models.Credentials{Username: "jdoe"})
	require.ErrorIs(t, err, ErrUnexpected)
}

func TestUnauthorized_ClearsSessionOnAnyEndpoint(t *testing.T) {
	_, srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid token"})
	})

	calls := []struct {
		name string
		fn   func(c *HTTPClient) error
	}{
		{"products", func(c *HTTPClient) error { _, err := c.Products(context.Background()); return err }},
		{"my orders", func(c *HTTPClient) error { _, err := c.MyOrders(context.Background()); return err }},
		{"create order", func(c *HTTPClient) error {
			_, err := c.CreateOrder(context.Background(), models.OrderRequest{ShippingAddress: "x"})
			return err
		}},
		{"delete product", func(c *HTTPClient) error { return c.DeleteProduct(context.Background(), 1) }},
	}

	for _, tc := range calls {
		t.Run(tc.name, func(t *testing.T) {
			st := &fakeStore{token: "stale"}
			hooked := 0
			c := newClient(t, srv.URL, st, WithUnauthorizedHook(func(context.Context) { hooked++ }))

			err := tc.fn(c)

			require.ErrorIs(t, err, ErrUnauthorized)
			assert.Equal(t, KindAuth, KindOf(err))
			assert.Equal(t, 1, st.ClearCalls)
			assert.Equal(t, 1, hooked)

			msg, ok := ServerMessage(err)
			assert.True(t, ok)
			assert.Equal(t, "Invalid token", msg)
		})
	}
}

func TestServerError_PassedThrough(t *testing.T) {
	_, srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Insufficient stock for product: Mug"})
	})
	st := &fakeStore{token: "t"}
	c := newClient(t, srv.URL, st)

	_, err := c.CreateOrder(context.Background(), models.OrderRequest{ShippingAddress: "x"})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, "Insufficient stock for product: Mug", se.Message)
	assert.False(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, KindServer, KindOf(err))
	assert.Zero(t, st.ClearCalls, "non-401 errors must not touch the session")
}

func TestServerError_PlainTextAndHTMLBodies(t *testing.T) {
	_, srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/products" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	})
	c := newClient(t, srv.URL, &fakeStore{})

	_, err := c.Products(context.Background())
	msg, _ := ServerMessage(err)
	assert.Equal(t, "boom", msg)

	_, err = c.Categories(context.Background())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Empty(t, se.Message)
	assert.Equal(t, "Request failed (502 Bad Gateway)", UserMessage(err))
}

func TestTimeout_IsUnavailable(t *testing.T) {
	release := make(chan struct{})
	_, srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	t.Cleanup(func() { close(release) })

	c, err := NewHTTPClient(srv.URL, 50*time.Millisecond, &fakeStore{})
	require.NoError(t, err)

	_, err = c.Products(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, MsgUnreachable, UserMessage(err))
}

func TestConnectionRefused_IsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newClient(t, url, &fakeStore{})
	_, err := c.Products(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestCanceledContext_ReturnsCanceled(t *testing.T) {
	_, srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	c := newClient(t, srv.URL, &fakeStore{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Products(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, KindCanceled, KindOf(err))
}

func TestDecodeFailure_IsUnexpected(t *testing.T) {
	_, srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "{not json")
	})
	c := newClient(t, srv.URL, &fakeStore{})

	_, err := c.Products(context.Background())
	require.ErrorIs(t, err, ErrUnexpected)
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, MsgUnexpected, UserMessage(err))

	var unread *DecodeError
	require.ErrorAs(t, err, &unread)
	assert.Equal(t, http.StatusOK, unread.StatusCode)
	assert.False(t, unread.Timeout())
}

func TestBodyTimeout_IsUnavailable(t *testing.T) {
	_, srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `[{"id":1,`)
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	})
	c, err := NewHTTPClient(srv.URL, 100*time.Millisecond, &fakeStore{})
	require.NoError(t, err)

	_, err = c.Products(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, KindUnreachable, KindOf(err))
	assert.Equal(t, MsgUnreachable, UserMessage(err))
}

func TestCreateOrder_UnreadableReplyStillReturnsOrder(t *testing.T) {
	_, srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":7,"orderDate":[2025,1,2,3,4,5]}`)
	})
	c := newClient(t, srv.URL, &fakeStore{token: "abc"})

	order, err := c.CreateOrder(context.Background(), models.OrderRequest{ShippingAddress: "1 Main St"})

	var unread *DecodeError
	require.ErrorAs(t, err, &unread)
	assert.Equal(t, http.StatusCreated, unread.StatusCode)
	require.NotNil(t, order)
	assert.Equal(t, int64(7), order.ID)
}

func TestCreateOrder_ErrorStatusReturnsNoOrder(t *testing.T) {
	_, srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Insufficient stock"})
	})
	c := newClient(t, srv.URL, &fakeStore{token: "abc"})

	order, err := c.CreateOrder(context.Background(), models.OrderRequest{ShippingAddress: "1 Main St"})
	require.Error(t, err)
	assert.Nil(t, order)
}

func TestTokenReadError_StopsRequest(t *testing.T) {
	api, srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []models.Product{})
	})
	c := newClient(t, srv.URL, &fakeStore{tokenErr: errors.New("disk gone")})

	_, err := c.Products(context.Background())
	require.Error(t, err)
	assert.Empty(t, api.Last().Method)
}

func TestEndpoints_MethodsAndPaths(t *testing.T) {
	api, srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case http.MethodGet:
			writeJSON(w, http.StatusOK, []any{})
		default:
			writeJSON(w, http.StatusOK, map[string]any{"id": 5})
		}
	})
	c := newClient(t, srv.URL, &fakeStore{token: "t"})
	ctx := context.Background()

	in := models.ProductInput{Name: "Mug", Price: decimal.RequireFromString("4.5"), StockQuantity: 3}

	tests := []struct {
		name   string
		call   func() error
		method string
		path   string
		query  string
	}{
		{"register", func() error { return c.Register(ctx, models.Registration{Username: "u"}) }, http.MethodPost, "/api/auth/register", ""},
		{"create product", func() error { _, err := c.CreateProduct(ctx, in); return err }, http.MethodPost, "/api/products", ""},
		{"update product", func() error { _, err := c.UpdateProduct(ctx, 5, in); return err }, http.MethodPut, "/api/products/5", ""},
		{"delete product", func() error { return c.DeleteProduct(ctx, 5) }, http.MethodDelete, "/api/products/5", ""},
		{"all orders", func() error { _, err := c.AllOrders(ctx); return err }, http.MethodGet, "/api/orders/admin/all", ""},
		{"pending orders", func() error { _, err := c.PendingOrders(ctx); return err }, http.MethodGet, "/api/orders/admin/pending", ""},
		{"update status", func() error { _, err := c.UpdateOrderStatus(ctx, 7, models.StatusShipped); return err }, http.MethodPut, "/api/orders/7/status", "status=SHIPPED"},
		{"delete order", func() error { return c.DeleteOrder(ctx, 7) }, http.MethodDelete, "/api/orders/7", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.call())
			last := api.Last()
			assert.Equal(t, tt.method, last.Method)
			assert.Equal(t, tt.path, last.Path)
			assert.Equal(t, tt.query, last.Query)
		})
	}
}

func TestCreateOrder_PayloadShape(t *testing.T) {
	api, srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"id": 11, "status": "PENDING", "totalAmount": 30})
	})
	c := newClient(t, srv.URL, &fakeStore{token: "t"})

	cart := models.Cart{{ProductID: 1, UnitPrice: decimal.NewFromInt(10), Quantity: 3}}
	order, err := c.CreateOrder(context.Background(), cart.OrderRequest("1 Main St"))
	require.NoError(t, err)
	assert.Equal(t, int64(11), order.ID)
	assert.Equal(t, models.StatusPending, order.Status)

	assert.JSONEq(t, `{"orderItems":[{"productId":1,"quantity":3}],"shippingAddress":"1 Main St"}`, string(api.Last().Body))
}

func TestNewHTTPClient_NormalizesBaseURL(t *testing.T) {
	c, err := NewHTTPClient("localhost:8080/", time.Second, &fakeStore{})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.baseURL)
	assert.Equal(t, time.Second, c.http.Timeout)
}

type countingTransport struct {
	n    int
	next http.RoundTripper
}

func (t *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	t.n++
	return t.next.RoundTrip(r)
}

func TestWithHTTPClient_UsesTransportAndOverridesTimeout(t *testing.T) {
	_, srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []models.Category{})
	})
	rt := &countingTransport{next: http.DefaultTransport}
	hc := &http.Client{Transport: rt, Timeout: time.Hour}
	c := newClient(t, srv.URL, &fakeStore{}, WithHTTPClient(hc))

	_, err := c.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rt.n)
	assert.Equal(t, 2*time.Second, c.http.Timeout)
	assert.Equal(t, time.Hour, hc.Timeout, "caller's client must not change")
}

func TestDo_LogsRequestIDSentInHeader(t *testing.T) {
	api, srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []models.Product{})
	})
	var buf bytes.Buffer
	log, err := logging.New(logging.BackendZap, "debug", &buf)
	require.NoError(t, err)
	c := newClient(t, srv.URL, &fakeStore{}, WithLogger(log))

	_, err = c.Products(context.Background())
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "request done", entry["msg"])
	assert.Equal(t, "gateway", entry["component"])
	assert.Equal(t, "/api/products", entry["path"])
	assert.Equal(t, api.Last().RequestID, entry["request_id"])
}
