package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/notify"
	"github.com/dmitrijs2005/storefront/internal/client/store"
	"github.com/dmitrijs2005/storefront/internal/logging"
)

// ---- helpers ----

func newStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	db, err := store.OpenDatabase(context.Background(), filepath.Join(t.TempDir(), "svc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return store.NewSQLiteStore(db)
}

func signIn(t *testing.T, st store.Store, role models.Role) {
	t.Helper()
	require.NoError(t, st.SaveSession(context.Background(), models.Session{
		Token:   "tok",
		Profile: models.Profile{Username: "user", Role: role},
	}))
}

// ---- fake notifications ----

type published struct {
	Message  string
	Severity notify.Severity
}

type fakeNotes struct {
	mu   sync.Mutex
	msgs []published
}

func (f *fakeNotes) Publish(message string, sev notify.Severity) notify.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, published{Message: message, Severity: sev})
	return notify.ID(len(f.msgs))
}

func (f *fakeNotes) All() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.msgs...)
}

func (f *fakeNotes) Last() published {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.msgs) == 0 {
		return published{}
	}
	return f.msgs[len(f.msgs)-1]
}

// ---- fake client ----

// fakeClient implements client.Client for service tests.
type fakeClient struct {
	mu sync.Mutex

	LoginRet *models.Session
	LoginErr error

	RegisterErr error

	ProductsRet   []models.Product
	ProductsErr   error
	CategoriesRet []models.Category
	CategoriesErr error

	ProductRet *models.Product
	ProductErr error

	OrderRet  *models.Order
	OrderErr  error
	OrdersRet []models.Order
	OrdersErr error

	// blocks CreateOrder until closed, when set
	OrderGate chan struct{}

	// captured arguments
	Calls              []string
	LastCreds          models.Credentials
	LastPassword       string
	LastRegistration   models.Registration
	LastProductInput   models.ProductInput
	LastProductID      int64
	LastOrderRequest   models.OrderRequest
	LastOrderID        int64
	LastOrderStatus    models.OrderStatus
	CreateOrderEntered chan struct{}
}

func (f *fakeClient) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, name)
}

func (f *fakeClient) CallCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeClient) Login(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	f.record("Login")
	f.LastCreds = creds
	f.LastPassword = string(creds.Password)
	return f.LoginRet, f.LoginErr
}

func (f *fakeClient) Register(ctx context.Context, reg models.Registration) error {
	f.record("Register")
	f.LastRegistration = reg
	return f.RegisterErr
}

func (f *fakeClient) Products(ctx context.Context) ([]models.Product, error) {
	f.record("Products")
	return f.ProductsRet, f.ProductsErr
}

func (f *fakeClient) Categories(ctx context.Context) ([]models.Category, error) {
	f.record("Categories")
	return f.CategoriesRet, f.CategoriesErr
}

func (f *fakeClient) CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	f.record("CreateProduct")
	f.LastProductInput = in
	return f.ProductRet, f.ProductErr
}

func (f *fakeClient) UpdateProduct(ctx context.Context, id int64, in models.ProductInput) (*models.Product, error) {
	f.record("UpdateProduct")
	f.LastProductID = id
	f.LastProductInput = in
	return f.ProductRet, f.ProductErr
}

func (f *fakeClient) DeleteProduct(ctx context.Context, id int64) error {
	f.record("DeleteProduct")
	f.LastProductID = id
	return f.ProductErr
}

func (f *fakeClient) CreateOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error) {
	f.record("CreateOrder")
	f.LastOrderRequest = req
	if f.CreateOrderEntered != nil {
		close(f.CreateOrderEntered)
	}
	if f.OrderGate != nil {
		<-f.OrderGate
	}
	return f.OrderRet, f.OrderErr
}

func (f *fakeClient) MyOrders(ctx context.Context) ([]models.Order, error) {
	f.record("MyOrders")
	return f.OrdersRet, f.OrdersErr
}

func (f *fakeClient) AllOrders(ctx context.Context) ([]models.Order, error) {
	f.record("AllOrders")
	return f.OrdersRet, f.OrdersErr
}

func (f *fakeClient) PendingOrders(ctx context.Context) ([]models.Order, error) {
	f.record("PendingOrders")
	return f.OrdersRet, f.OrdersErr
}

func (f *fakeClient) UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error) {
	f.record("UpdateOrderStatus")
	f.LastOrderID = id
	f.LastOrderStatus = status
	return f.OrderRet, f.OrderErr
}

func (f *fakeClient) DeleteOrder(ctx context.Context, id int64) error {
	f.record("DeleteOrder")
	f.LastOrderID = id
	return f.OrderErr
}

func nopLog() logging.Logger { return logging.Nop() }
