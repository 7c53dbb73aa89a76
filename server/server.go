// Package server exposes the auth and transaction flows over HTTP. All
// endpoints speak JSON; sessions travel in an HttpOnly cookie.
package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/finvault/finvault/auth"
	"github.com/finvault/finvault/internal/config"
	"github.com/finvault/finvault/token"
	"github.com/finvault/finvault/transactions"
)

type Server struct {
	env    string // Environment (e.g., "DEV", "PROD")
	mux    *http.ServeMux
	routes []string

	config       *config.Config
	auth         *auth.Service
	tokens       *token.Manager
	transactions transactions.Repo
}

func New(cfg *config.Config, authService *auth.Service, tokens *token.Manager, transactionRepo transactions.Repo) (*Server, error) {
	if authService == nil {
		return nil, errors.New("[Server New] auth service is required")
	}
	if tokens == nil {
		return nil, errors.New("[Server New] token manager is required")
	}
	if transactionRepo == nil {
		return nil, errors.New("[Server New] transaction repo is required")
	}

	s := &Server{
		mux:          http.NewServeMux(),
		config:       cfg,
		auth:         authService,
		tokens:       tokens,
		transactions: transactionRepo,
	}
	s.env = cfg.Env

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Debug().Msgf("[%-19s] %s", displayMethod, path)
}
