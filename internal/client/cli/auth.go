package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/services"
	"github.com/dmitrijs2005/storefront/internal/common"
)

const (
	msgLoggedOut       = "You have been logged out."
	msgRegistered      = "Registration successful! Please log in."
	msgNotSignedIn     = "Not signed in."
	msgLoginRequired   = "Please log in first."
	msgAdminOnly       = "This command requires admin privileges."
	fmtAlreadySignedIn = "Already signed in as %s. Use 'logout' first.\n"
)

// getSimpleText, getPassword and getMultiline are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getMultiline  = GetMultiline
)

// Register prompts for the account fields and creates the account. It does
// not sign the user in.
func (a *App) Register(ctx context.Context) error {
	var reg models.Registration
	fields := []struct {
		prompt string
		dst    *string
	}{
		{"Username", &reg.Username},
		{"Email", &reg.Email},
		{"First name", &reg.FirstName},
		{"Last name", &reg.LastName},
	}
	for _, f := range fields {
		v, err := getSimpleText(a.reader, f.prompt, a.out)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	reg.Password = string(password)

	if err := a.auth.Register(ctx, reg); err != nil {
		return a.fail(err)
	}

	a.println(msgRegistered)
	return nil
}

// Login prompts for credentials and signs in. Any pending request to show
// the login view is satisfied by this call, whatever its outcome.
func (a *App) Login(ctx context.Context) error {
	defer a.clearLoginRequest()

	if p, _ := a.auth.CurrentUser(ctx); p != nil {
		a.printf(fmtAlreadySignedIn, p.Username)
		return nil
	}

	username, err := getSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}

	sess, err := a.auth.Login(ctx, models.Credentials{Username: username, Password: password})
	if err != nil {
		var le *services.LoginError
		if errors.As(err, &le) {
			a.println(le.Message)
		} else {
			a.println(client.UserMessage(err))
		}
		return err
	}

	a.printf("Welcome, %s!\n", sess.Profile.DisplayName())
	return nil
}

func (a *App) Whoami(ctx context.Context) error {
	p, err := a.auth.CurrentUser(ctx)
	if err != nil {
		return a.fail(err)
	}
	if p == nil {
		a.println(msgNotSignedIn)
		return nil
	}
	a.printf("%s (%s), role %s\n", p.DisplayName(), p.Username, p.Role)
	if p.Email != "" {
		a.printf("Email: %s\n", p.Email)
	}
	return nil
}

// Logout drops the session and the cart.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return a.fail(err)
	}
	a.forgetProducts()
	return nil
}

// ToLogin implements services.Navigator.
func (a *App) ToLogin(context.Context) {
	a.requestLogin(msgLoggedOut)
}

// sessionExpired is the gateway's 401 hook. The store has already been
// wiped when it runs.
func (a *App) sessionExpired(context.Context) {
	a.requestLogin(client.MsgSessionExpired)
}

func (a *App) requestLogin(reason string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loginReason = reason
}

func (a *App) clearLoginRequest() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loginReason = ""
}

// takeLoginRequest returns and clears the pending login request.
func (a *App) takeLoginRequest() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	reason := a.loginReason
	a.loginReason = ""
	return reason, reason != ""
}
