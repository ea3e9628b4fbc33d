// Package store is the typed local state of the client: the session pair and
// the cart snapshot, kept in the SQLite key/value table. Every call runs in its
// own transaction under a store-wide lock, and subscribers hear about a change
// only after it is committed.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/repositories/keyvalue"
	"github.com/dmitrijs2005/storefront/internal/dbx"
)

// Key names a persisted slot.
type Key string

const (
	KeyToken Key = "token"
	KeyUser  Key = "user"
	KeyCart  Key = "cart"
)

type Store interface {
	// Session returns nil when either half of the token/profile pair is missing.
	Session(ctx context.Context) (*models.Session, error)
	SaveSession(ctx context.Context, s models.Session) error
	Token(ctx context.Context) (string, error)

	Cart(ctx context.Context) (models.Cart, error)
	SaveCart(ctx context.Context, c models.Cart) error
	ClearCart(ctx context.Context) error

	// ClearAll drops token, profile and cart together.
	ClearAll(ctx context.Context) error

	Subscribe(fn func(Key)) (unsubscribe func())
}

type SQLiteStore struct {
	db *sql.DB

	mu sync.Mutex

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(Key)
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, subs: make(map[int]func(Key))}
}

func (s *SQLiteStore) read(ctx context.Context, fn func(ctx context.Context, repo keyvalue.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx, keyvalue.NewSQLiteRepository(s.db))
}

func (s *SQLiteStore) write(ctx context.Context, fn func(ctx context.Context, repo keyvalue.Repository) error, changed ...Key) error {
	s.mu.Lock()
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, keyvalue.NewSQLiteRepository(tx))
	})
	s.mu.Unlock()

	if err != nil {
		return err
	}
	for _, k := range changed {
		s.notify(k)
	}
	return nil
}

func (s *SQLiteStore) Session(ctx context.Context) (*models.Session, error) {
	var token, user []byte
	err := s.read(ctx, func(ctx context.Context, repo keyvalue.Repository) error {
		var err error
		if token, err = repo.Get(ctx, string(KeyToken)); err != nil {
			return err
		}
		user, err = repo.Get(ctx, string(KeyUser))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if len(token) == 0 || len(user) == 0 {
		return nil, nil
	}

	var p models.Profile
	if err := json.Unmarshal(user, &p); err != nil {
		// an unreadable profile is as good as none
		return nil, nil
	}
	return &models.Session{Token: string(token), Profile: p}, nil
}

func (s *SQLiteStore) SaveSession(ctx context.Context, sess models.Session) error {
	if sess.Token == "" {
		return fmt.Errorf("save session: empty token")
	}
	user, err := json.Marshal(sess.Profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	return s.write(ctx, func(ctx context.Context, repo keyvalue.Repository) error {
		if err := repo.Set(ctx, string(KeyToken), []byte(sess.Token)); err != nil {
			return err
		}
		return repo.Set(ctx, string(KeyUser), user)
	}, KeyToken, KeyUser)
}

// Token returns "" when there is no complete session.
func (s *SQLiteStore) Token(ctx context.Context) (string, error) {
	sess, err := s.Session(ctx)
	if err != nil || sess == nil {
		return "", err
	}
	return sess.Token, nil
}

// Cart returns the normalized snapshot; a missing or unreadable snapshot is an
// empty cart.
func (s *SQLiteStore) Cart(ctx context.Context) (models.Cart, error) {
	var raw []byte
	err := s.read(ctx, func(ctx context.Context, repo keyvalue.Repository) error {
		var err error
		raw, err = repo.Get(ctx, string(KeyCart))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	if len(raw) == 0 {
		return models.Cart{}, nil
	}

	var c models.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return models.Cart{}, nil
	}
	return c.Normalize(), nil
}

// SaveCart replaces the whole snapshot.
func (s *SQLiteStore) SaveCart(ctx context.Context, c models.Cart) error {
	if c == nil {
		c = models.Cart{}
	}
	raw, err := json.Marshal(c.Normalize())
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	return s.write(ctx, func(ctx context.Context, repo keyvalue.Repository) error {
		return repo.Set(ctx, string(KeyCart), raw)
	}, KeyCart)
}

func (s *SQLiteStore) ClearCart(ctx context.Context) error {
	return s.write(ctx, func(ctx context.Context, repo keyvalue.Repository) error {
		return repo.Delete(ctx, string(KeyCart))
	}, KeyCart)
}

func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	return s.write(ctx, func(ctx context.Context, repo keyvalue.Repository) error {
		return repo.Delete(ctx, string(KeyToken), string(KeyUser), string(KeyCart))
	}, KeyToken, KeyUser, KeyCart)
}

// Subscribe registers fn for change events. Callbacks run synchronously on the
// writer's goroutine after the store lock is released.
func (s *SQLiteStore) Subscribe(fn func(Key)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *SQLiteStore) notify(k Key) {
	s.subMu.Lock()
	fns := make([]func(Key), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(k)
	}
}
