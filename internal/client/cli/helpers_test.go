package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/storefront/internal/client/config"
	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/logging"
)

// testShop is an in-memory storefront API.
type testShop struct {
	mu sync.Mutex

	Role       models.Role
	Products   []models.Product
	Categories []models.Category
	Orders     []models.Order

	// OrderFail, when set, is the status POST /api/orders answers with.
	OrderFail    int
	OrderFailMsg string

	// Revoked makes every request except login answer 401.
	Revoked bool

	Calls            []string
	LastAuth         string
	LastOrderRequest models.OrderRequest
	LastProductInput models.ProductInput
	LastRegistration models.Registration
}

func newShop() *testShop {
	return &testShop{
		Role: models.RoleCustomer,
		Categories: []models.Category{
			{ID: 1, Name: "Kitchen"},
			{ID: 2, Name: "Clothes"},
		},
		Products: []models.Product{
			{ID: 1, Name: "Mug", Description: "Ceramic mug", Price: decimal.RequireFromString("10"), StockQuantity: 5, CategoryID: 1, CategoryName: "Kitchen"},
			{ID: 2, Name: "Shirt", Description: "Cotton shirt", Price: decimal.RequireFromString("19.99"), StockQuantity: 3, CategoryID: 2, CategoryName: "Clothes"},
			{ID: 3, Name: "Teapot", Description: "Sold out", Price: decimal.RequireFromString("25"), StockQuantity: 0, CategoryID: 1, CategoryName: "Kitchen"},
		},
	}
}

func (s *testShop) CallCount(call string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.Calls {
		if c == call {
			n++
		}
	}
	return n
}

func (s *testShop) order(id int64) (models.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.Orders {
		if o.ID == id {
			return o, true
		}
	}
	return models.Order{}, false
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id
}

func (s *testShop) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.mu.Lock()
			s.Calls = append(s.Calls, r.Method+" "+r.URL.Path)
			s.LastAuth = r.Header.Get("Authorization")
			revoked := s.Revoked
			s.mu.Unlock()

			if revoked && r.URL.Path != "/api/auth/login" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "token expired"})
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Post("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Username, Password string }
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid username or password"})
			return
		}
		s.mu.Lock()
		s.Revoked = false
		role := s.Role
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{
			"token": "tok-" + req.Username, "id": 7, "username": req.Username,
			"firstName": "Jane", "lastName": "Doe", "role": role,
		})
	})
	r.Post("/api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		_ = json.NewDecoder(r.Body).Decode(&s.LastRegistration)
		s.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	})

	r.Get("/api/products", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, http.StatusOK, s.Products)
	})
	r.Get("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, http.StatusOK, s.Categories)
	})
	r.Post("/api/products", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		var in models.ProductInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		s.LastProductInput = in
		p := models.Product{ID: int64(len(s.Products) + 1), Name: in.Name, Description: in.Description, Price: in.Price, StockQuantity: in.StockQuantity}
		s.Products = append(s.Products, p)
		writeJSON(w, http.StatusCreated, p)
	})
	r.Put("/api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		var in models.ProductInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		s.LastProductInput = in
		writeJSON(w, http.StatusOK, models.Product{ID: pathID(r), Name: in.Name, Price: in.Price})
	})
	r.Delete("/api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/api/orders", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		_ = json.NewDecoder(r.Body).Decode(&s.LastOrderRequest)
		if s.OrderFail != 0 {
			writeJSON(w, s.OrderFail, map[string]string{"message": s.OrderFailMsg})
			return
		}
		o := models.Order{
			ID:              int64(100 + len(s.Orders)),
			Status:          models.StatusPending,
			ShippingAddress: s.LastOrderRequest.ShippingAddress,
			TotalAmount:     decimal.RequireFromString("30"),
		}
		s.Orders = append(s.Orders, o)
		writeJSON(w, http.StatusCreated, o)
	})
	list := func(filter func(models.Order) bool) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			s.mu.Lock()
			defer s.mu.Unlock()
			out := []models.Order{}
			for _, o := range s.Orders {
				if filter(o) {
					out = append(out, o)
				}
			}
			writeJSON(w, http.StatusOK, out)
		}
	}
	r.Get("/api/orders/my-orders", list(func(models.Order) bool { return true }))
	r.Get("/api/orders/admin/all", list(func(models.Order) bool { return true }))
	r.Get("/api/orders/admin/pending", list(func(o models.Order) bool { return o.Status == models.StatusPending }))
	r.Put("/api/orders/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		id := pathID(r)
		for i := range s.Orders {
			if s.Orders[i].ID == id {
				s.Orders[i].Status = models.OrderStatus(r.URL.Query().Get("status"))
				writeJSON(w, http.StatusOK, s.Orders[i])
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Order not found"})
	})
	r.Delete("/api/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		id := pathID(r)
		for i := range s.Orders {
			if s.Orders[i].ID == id {
				s.Orders = append(s.Orders[:i], s.Orders[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Order not found"})
	})
	return r
}

// newTestApp builds a fully wired App against shop. User output, the REPL
// output and notifications all go to the returned buffer.
func newTestApp(t *testing.T, shop *testShop, input ...string) (*App, *bytes.Buffer) {
	t.Helper()

	srv := httptest.NewServer(shop.routes())
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.APIBaseURL = srv.URL
	cfg.DatabasePath = filepath.Join(t.TempDir(), "storefront.db")

	oldTerm, oldPrintln, oldPrint := isTerminal, printlnFn, printFn
	t.Cleanup(func() { isTerminal, printlnFn, printFn = oldTerm, oldPrintln, oldPrint })
	isTerminal = func(int) bool { return false }

	var out bytes.Buffer
	printlnFn = func(a ...any) (int, error) { return fmt.Fprintln(&out, a...) }
	printFn = func(a ...any) (int, error) { return fmt.Fprint(&out, a...) }

	ctx := context.Background()
	app, err := NewApp(ctx, cfg, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(app.Close)

	app.reader = bufio.NewReader(strings.NewReader(strings.Join(input, "\n") + "\n"))
	app.out = &out
	app.notes.Mount(newConsoleSink(&out))
	t.Cleanup(app.watchStore())
	app.refreshStatus(ctx)
	return app, &out
}

// feed replaces the pending input.
func feed(app *App, lines ...string) {
	app.reader = bufio.NewReader(strings.NewReader(strings.Join(lines, "\n") + "\n"))
}

func signIn(t *testing.T, app *App, shop *testShop, role models.Role) {
	t.Helper()
	shop.mu.Lock()
	shop.Role = role
	shop.mu.Unlock()

	feed(app, "jane", "secret")
	require.NoError(t, app.Login(context.Background()))
}
