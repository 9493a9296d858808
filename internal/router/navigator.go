package router

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
)

// maxRedirects bounds guard redirect chains.
const maxRedirects = 4

var ErrRedirectLoop = errors.New("navigation redirect loop")

// Navigator tracks the current location and applies the guard to every
// navigation.
type Navigator struct {
	table *Table

	mu      sync.RWMutex
	auth    AuthState
	current Location
}

func NewNavigator(table *Table) *Navigator {
	home, _ := table.Resolve(HomePath)
	return &Navigator{table: table, current: home}
}

// UseAuth connects the session the guard consults. Until it is called the
// visitor is treated as logged out.
func (n *Navigator) UseAuth(auth AuthState) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.auth = auth
}

func (n *Navigator) Table() *Table { return n.table }

// Navigate resolves path, runs the guard and follows its redirects. The
// final location becomes current.
func (n *Navigator) Navigate(path string) (Location, error) {
	n.mu.RLock()
	auth := n.auth
	n.mu.RUnlock()

	target := path
	for i := 0; i <= maxRedirects; i++ {
		loc, err := n.table.Resolve(target)
		if err != nil {
			return Location{}, err
		}
		decision := Guard(loc, auth)
		if decision.Proceed() {
			n.mu.Lock()
			n.current = loc
			n.mu.Unlock()
			if target != path {
				slog.Debug("navigation redirected", "from", path, "to", loc.FullPath)
			}
			return loc, nil
		}
		target = decision.Redirect
	}
	return Location{}, ErrRedirectLoop
}

// Push navigates and logs failures; it is the form the session uses.
func (n *Navigator) Push(path string) {
	if _, err := n.Navigate(path); err != nil {
		slog.Error("navigation failed", "path", path, "error", err)
	}
}

func (n *Navigator) Current() Location {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current
}

// RequiresAuth reports whether the current route is marked requiresAuth.
func (n *Navigator) RequiresAuth() bool {
	return n.Current().Route.RequiresAuth
}

// RedirectTarget is the post-login destination carried by the current
// location, or home when there is none. Only same-origin paths are honored.
func (n *Navigator) RedirectTarget() string {
	r := n.Current().Query.Get("redirect")
	if strings.HasPrefix(r, "/") && !strings.HasPrefix(r, "//") {
		return r
	}
	return HomePath
}
