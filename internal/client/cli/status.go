package cli

import (
	"context"
	"fmt"
)

// refreshStatus recomputes the prompt from the store. It runs on every store
// change, so the cart badge never lags behind an edit.
func (a *App) refreshStatus(ctx context.Context) {
	who := "guest"
	if sess, err := a.store.Session(ctx); err == nil && sess != nil {
		who = fmt.Sprintf("%s %s", sess.Profile.Username, sess.Profile.Role)
	}

	badge := 0
	if cart, err := a.store.Cart(ctx); err == nil {
		badge = cart.Count()
	}

	a.mu.Lock()
	a.status = fmt.Sprintf("(%s, cart %d)", who, badge)
	a.mu.Unlock()
}

func (a *App) statusLine() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}
