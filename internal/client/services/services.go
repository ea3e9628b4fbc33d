// Package services holds the stateful core of the client: the session, the
// cart and the catalog and order views built over the API gateway. Services
// are constructed once per process and injected where needed.
package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/store"
)

// signedInAdmin reports whether the stored session belongs to an admin.
func signedInAdmin(ctx context.Context, st store.Store) (bool, error) {
	sess, err := st.Session(ctx)
	if err != nil {
		return false, err
	}
	return sess != nil && sess.Profile.IsAdmin(), nil
}

// failureText builds the notification shown when an operation fails. A
// server-side rejection with a message reads "<prefix>: <message>"; session
// and transport problems use the standard texts; anything else is fallback.
func failureText(err error, prefix, fallback string) string {
	switch client.KindOf(err) {
	case client.KindValidation, client.KindAuth, client.KindUnreachable:
		return client.UserMessage(err)
	case client.KindServer:
		if msg, ok := client.ServerMessage(err); ok {
			return prefix + ": " + msg
		}
	}
	return fallback
}

// abandoned reports whether the caller gave up waiting; such results are
// dropped without notifying anyone.
func abandoned(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled)
}
