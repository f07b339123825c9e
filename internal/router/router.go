package router

import (
	"net/http"

	"github.com/launchpath/backend/internal/auth"
)

// New returns an http.Handler serving the public auth endpoints under /api/v1.
func New(authHandler *auth.Handler) http.Handler {
	mux := http.NewServeMux()
	base := "/api/v1"
	mux.HandleFunc(base+"/auth/register", authHandler.Register)
	mux.HandleFunc(base+"/auth/login", authHandler.Login)
	return mux
}
