package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/store"
	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
)

const (
	MsgInvalidCredentials = "Invalid username or password"
	MsgCredentialsMissing = "Username and password are required"
)

// LoginError carries the message to show for a failed login.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string {
	return e.Message
}

func (e *LoginError) Unwrap() error {
	return e.Err
}

// Navigator moves the user to the login view.
type Navigator interface {
	ToLogin(ctx context.Context)
}

type AuthClient interface {
	Login(ctx context.Context, creds models.Credentials) (*models.Session, error)
	Register(ctx context.Context, reg models.Registration) error
}

type AuthService struct {
	client AuthClient
	store  store.Store
	nav    Navigator
	log    logging.Logger
	now    func() time.Time
}

func NewAuthService(c AuthClient, st store.Store, nav Navigator, log logging.Logger) *AuthService {
	return &AuthService{client: c, store: st, nav: nav, log: log.With("service", "auth"), now: time.Now}
}

// Login authenticates against the server and stores token and profile
// together. Password is wiped before returning. Failures come back as
// *LoginError; there are no retries.
func (a *AuthService) Login(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	defer common.WipeByteArray(creds.Password)

	if common.IsBlank(creds.Username) || len(creds.Password) == 0 {
		return nil, &LoginError{Message: MsgCredentialsMissing, Err: client.NewValidationError("%s", MsgCredentialsMissing)}
	}

	sess, err := a.client.Login(ctx, creds)
	if err != nil {
		return nil, &LoginError{Message: loginMessage(err), Err: err}
	}

	if err := a.store.SaveSession(ctx, *sess); err != nil {
		a.log.Error(ctx, "persist session", "error", err)
		return nil, &LoginError{Message: client.MsgUnexpected, Err: err}
	}

	a.log.Info(ctx, "logged in", "username", sess.Profile.Username, "role", sess.Profile.Role)
	return sess, nil
}

func loginMessage(err error) string {
	switch client.KindOf(err) {
	case client.KindAuth, client.KindServer:
		if msg, ok := client.ServerMessage(err); ok {
			return msg
		}
		return MsgInvalidCredentials
	case client.KindUnreachable:
		return client.MsgUnreachable
	default:
		return client.MsgUnexpected
	}
}

// Register creates an account. It never creates a session.
func (a *AuthService) Register(ctx context.Context, reg models.Registration) error {
	if missing := reg.Missing(); len(missing) > 0 {
		return client.NewValidationError("missing required fields: %s", strings.Join(missing, ", "))
	}
	if err := a.client.Register(ctx, reg); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	a.log.Info(ctx, "registered", "username", reg.Username)
	return nil
}

// Logout drops token, profile and cart together and sends the user to the
// login view. Calling it without a session is fine.
func (a *AuthService) Logout(ctx context.Context) error {
	if err := a.store.ClearAll(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if a.nav != nil {
		a.nav.ToLogin(ctx)
	}
	return nil
}

func (a *AuthService) IsAuthenticated(ctx context.Context) bool {
	tok, err := a.store.Token(ctx)
	return err == nil && tok != ""
}

// CurrentUser returns nil when nobody is signed in.
func (a *AuthService) CurrentUser(ctx context.Context) (*models.Profile, error) {
	sess, err := a.store.Session(ctx)
	if err != nil || sess == nil {
		return nil, err
	}
	p := sess.Profile
	return &p, nil
}

// Restore loads the stored session at startup. A JWT whose exp is already
// past is discarded together with the cart; tokens that are not JWTs are kept
// and left for the server to judge.
func (a *AuthService) Restore(ctx context.Context) (*models.Session, error) {
	sess, err := a.store.Session(ctx)
	if err != nil || sess == nil {
		return nil, err
	}

	if exp, ok := tokenExpiry(sess.Token); ok && !exp.After(a.now()) {
		a.log.Info(ctx, "stored token expired", "expired_at", exp)
		if err := a.store.ClearAll(ctx); err != nil {
			return nil, fmt.Errorf("drop expired session: %w", err)
		}
		return nil, nil
	}
	return sess, nil
}

func tokenExpiry(token string) (time.Time, bool) {
	tok, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := tok.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
