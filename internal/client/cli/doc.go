// Package cli provides the interactive storefront command-line client.
//
// It wires configuration, the local SQLite store, the HTTP API gateway, the
// notification channel and the services into a read-eval-print loop. Typical
// flow: restore the stored session, browse products, fill the cart and check
// out. Admins additionally manage the catalog and move orders through their
// statuses.
//
// Notifications are printed by a console sink as they are published. The
// prompt shows the signed-in user, their role and the number of cart lines;
// it is kept current through a store subscription, so edits made by any
// command (or a session wiped by the gateway) are reflected immediately.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
