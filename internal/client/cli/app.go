package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/config"
	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/notify"
	"github.com/dmitrijs2005/storefront/internal/client/services"
	"github.com/dmitrijs2005/storefront/internal/client/store"
	"github.com/dmitrijs2005/storefront/internal/logging"
)

// App is one interactive session of the storefront client. All state the
// commands share lives here and is built once in NewApp.
type App struct {
	config *config.Config
	log    logging.Logger

	db      *sql.DB
	store   store.Store
	notes   *notify.Channel
	auth    *services.AuthService
	cart    *services.CartService
	catalog *services.CatalogService
	orders  *services.OrderService

	reader *bufio.Reader
	out    io.Writer

	mu          sync.Mutex
	status      string
	products    []models.Product
	loginReason string

	closeOnce sync.Once
}

// NewApp opens the local database and builds the gateway and services.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	db, err := store.OpenDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	st := store.NewSQLiteStore(db)

	a := newApp(c, st, log, bufio.NewReader(os.Stdin), os.Stdout)
	a.db = db

	api, err := client.NewHTTPClient(c.APIBaseURL, c.RequestTimeout, st,
		client.WithUnauthorizedHook(a.sessionExpired),
		client.WithLogger(log),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	a.wire(api)
	return a, nil
}

func newApp(c *config.Config, st store.Store, log logging.Logger, in *bufio.Reader, out io.Writer) *App {
	return &App{
		config: c,
		log:    log,
		store:  st,
		notes:  notify.NewChannel(c.NotificationTTL),
		reader: in,
		out:    out,
	}
}

// wire builds the services over api. The App itself is the navigator the
// auth service uses after logout.
func (a *App) wire(api client.Client) {
	a.auth = services.NewAuthService(api, a.store, a, a.log)
	a.cart = services.NewCartService(a.store, api, a.notes, a.log)
	a.catalog = services.NewCatalogService(api, a.store, a.notes, a.log)
	a.orders = services.NewOrderService(api, a.store, a.notes, a.log)
}

// Run restores the stored session and starts the REPL. It blocks until the
// user exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	a.notes.Mount(newConsoleSink(a.out))
	defer a.watchStore()()

	a.println("Welcome to the storefront CLI (type 'help' for commands)")

	sess, err := a.auth.Restore(ctx)
	switch {
	case err != nil:
		a.log.Warn(ctx, "restore session", "error", err)
	case sess != nil:
		a.printf("Signed in as %s\n", sess.Profile.DisplayName())
	default:
		a.println("Not signed in. Use 'login' or 'register'.")
	}
	a.refreshStatus(ctx)

	runREPL(ctx, a, a.statusLine, a.reader)
}

// watchStore keeps the prompt in sync with the store and returns the
// unsubscribe func.
func (a *App) watchStore() func() {
	return a.store.Subscribe(func(store.Key) {
		a.refreshStatus(context.Background())
	})
}

// Close stops pending notification timers and closes the database. It is
// safe to call more than once.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.notes.Close()
		if a.db != nil {
			if err := a.db.Close(); err != nil {
				a.log.Warn(context.Background(), "close database", "error", err)
			}
		}
	})
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// fail prints err for operations whose service does not publish failures.
func (a *App) fail(err error) error {
	a.println(client.UserMessage(err))
	return err
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	return a.auth.IsAuthenticated(ctx)
}

func (a *App) isAdmin(ctx context.Context) bool {
	p, err := a.auth.CurrentUser(ctx)
	return err == nil && p != nil && p.IsAdmin()
}
