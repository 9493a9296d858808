package router

import "net/url"

// AuthState is the part of the session the guard consults.
type AuthState interface {
	IsLoggedIn() bool
	IsAdmin() bool
}

// Decision is the guard's verdict. An empty Redirect means proceed.
type Decision struct {
	Redirect string
}

func (d Decision) Proceed() bool { return d.Redirect == "" }

// Guard runs before every navigation. The credential check comes before
// the role check, so a logged-out visitor to an admin route is sent to
// login with the original path preserved.
func Guard(to Location, auth AuthState) Decision {
	loggedIn := auth != nil && auth.IsLoggedIn()
	admin := loggedIn && auth.IsAdmin()

	switch {
	case to.Route.RequiresAuth && !loggedIn:
		q := url.Values{"redirect": {to.FullPath}}
		return Decision{Redirect: LoginPath + "?" + q.Encode()}
	case to.Route.RequiresAdmin && !admin:
		return Decision{Redirect: HomePath}
	case to.Route.GuestOnly && loggedIn:
		return Decision{Redirect: HomePath}
	}
	return Decision{}
}
