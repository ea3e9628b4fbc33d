package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn and printFn are test seams for REPL output. In tests, replace
// them with stubs.
var (
	printlnFn = fmt.Println
	printFn   = fmt.Print
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn(ctx context.Context) bool
	isAdmin(ctx context.Context) bool
	takeLoginRequest() (string, bool)

	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Whoami(ctx context.Context) error
	Logout(ctx context.Context) error

	Products(ctx context.Context, args []string) error
	Categories(ctx context.Context) error
	NewProduct(ctx context.Context) error
	EditProduct(ctx context.Context, args []string) error
	DeleteProduct(ctx context.Context, args []string) error

	Add(ctx context.Context, args []string) error
	Cart(ctx context.Context) error
	Qty(ctx context.Context, args []string) error
	Remove(ctx context.Context, args []string) error
	Clear(ctx context.Context) error
	Checkout(ctx context.Context) error

	Orders(ctx context.Context, args []string) error
	Status(ctx context.Context, args []string) error
	DeleteOrder(ctx context.Context, args []string) error
}

const (
	helpGuest    = "Available commands: register, login, products [categoryID] [query], categories, add <id> [qty], cart, qty <id> <n>, remove <id>, clear, exit"
	helpCustomer = "Available commands: whoami, products [categoryID] [query], categories, add <id> [qty], cart, qty <id> <n>, remove <id>, clear, checkout, orders, logout, exit"
	helpAdmin    = helpCustomer + "\nAdmin commands: orders [mine|all|pending], status <orderID> <STATUS>, delorder <orderID>, newproduct, editproduct <id>, delproduct <id>"
)

// runREPL starts a simple read-eval-print loop for the storefront CLI.
//
// It reads a line from reader, parses the first token as the command and
// dispatches to methods on 'a' with the remaining tokens as arguments.
// Unknown commands are reported back to the user. The loop exits on EOF,
// when ctx is done, or when the user types "exit" or "quit".
//
// Commands that need a session print a hint instead of running when nobody
// is signed in; admin commands do the same for customers. After every
// command a pending login request (logout, or a session wiped by the
// gateway after a 401) is turned into a login prompt.
//
// Errors returned by command handlers are ignored here; handlers report
// their own failures, either directly or through a notification. This keeps
// the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printFn(fmt.Sprintf("shop %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			printlnFn()
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			switch {
			case a.isAdmin(ctx):
				printlnFn(helpAdmin)
			case a.isLoggedIn(ctx):
				printlnFn(helpCustomer)
			default:
				printlnFn(helpGuest)
			}

		case "register":
			_ = a.Register(ctx)
		case "login":
			_ = a.Login(ctx)
		case "whoami":
			_ = a.Whoami(ctx)
		case "logout":
			_ = a.Logout(ctx)

		case "products", "p":
			_ = a.Products(ctx, args)
		case "categories":
			_ = a.Categories(ctx)

		case "add":
			_ = a.Add(ctx, args)
		case "cart":
			_ = a.Cart(ctx)
		case "qty":
			_ = a.Qty(ctx, args)
		case "remove":
			_ = a.Remove(ctx, args)
		case "clear":
			_ = a.Clear(ctx)

		case "checkout":
			if signedIn(ctx, a) {
				_ = a.Checkout(ctx)
			}
		case "orders":
			if signedIn(ctx, a) {
				_ = a.Orders(ctx, args)
			}

		case "status":
			if admin(ctx, a) {
				_ = a.Status(ctx, args)
			}
		case "delorder":
			if admin(ctx, a) {
				_ = a.DeleteOrder(ctx, args)
			}
		case "newproduct":
			if admin(ctx, a) {
				_ = a.NewProduct(ctx)
			}
		case "editproduct":
			if admin(ctx, a) {
				_ = a.EditProduct(ctx, args)
			}
		case "delproduct":
			if admin(ctx, a) {
				_ = a.DeleteProduct(ctx, args)
			}

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if reason, ok := a.takeLoginRequest(); ok {
			printlnFn(reason)
			_ = a.Login(ctx)
		}
	}
}

func signedIn(ctx context.Context, a execIface) bool {
	if a.isLoggedIn(ctx) {
		return true
	}
	printlnFn(msgLoginRequired)
	return false
}

func admin(ctx context.Context, a execIface) bool {
	if !signedIn(ctx, a) {
		return false
	}
	if a.isAdmin(ctx) {
		return true
	}
	printlnFn(msgAdminOnly)
	return false
}
