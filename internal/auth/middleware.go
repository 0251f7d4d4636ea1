package auth

import (
	"context"
	"net/http"

	"github.com/parisxmas/central-admin/internal/console"
)

type contextKey string

const consoleContextKey contextKey = "console"

// CookieName is the name of the console cookie.
const CookieName = "central_console"

// Consoles resolves console ids. *console.Registry implements it.
type Consoles interface {
	Get(id string) (*console.Console, bool)
}

// Unauthorized writes the response for requests without a usable console.
type Unauthorized func(w http.ResponseWriter, r *http.Request)

// Middleware resolves the console cookie and stores the console in the
// request context.
func Middleware(secret string, consoles Consoles, deny Unauthorized) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := Resolve(r, secret, consoles)
			if !ok {
				deny(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), consoleContextKey, c)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Resolve returns the console named by the request's cookie.
func Resolve(r *http.Request, secret string, consoles Consoles) (*console.Console, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, false
	}
	claims, err := ValidateToken(secret, cookie.Value)
	if err != nil {
		return nil, false
	}
	return consoles.Get(claims.ConsoleID)
}

// GetConsole returns the console stored by Middleware.
func GetConsole(ctx context.Context) *console.Console {
	c, _ := ctx.Value(consoleContextKey).(*console.Console)
	return c
}
