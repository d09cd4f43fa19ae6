package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/fee-portal/backend"
	"github.com/jrsteele09/fee-portal/forms"
	"github.com/jrsteele09/fee-portal/internal/config"
	"github.com/jrsteele09/fee-portal/refresh"
	"github.com/jrsteele09/fee-portal/tokenstore"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Deps are the collaborators the portal is assembled from
type Deps struct {
	Storage   tokenstore.Storage
	Sealer    *tokenstore.Sealer // optional
	Backend   backend.Factory
	Scheduler *refresh.Scheduler
}

type Server struct {
	env        string // Environment (e.g., "DEV", "PROD")
	mux        *http.ServeMux
	routes     []string
	config     config.Config
	storage    tokenstore.Storage
	sealer     *tokenstore.Sealer
	backend    backend.Factory
	scheduler  *refresh.Scheduler
	refreshes  *singleflight.Group
	validator  *forms.Validator
	cookieLife int
}

func New(config config.Config, deps Deps) (*Server, error) {
	if deps.Storage == nil {
		return nil, fmt.Errorf("[Server New] storage is required")
	}
	if deps.Backend == nil {
		return nil, fmt.Errorf("[Server New] backend factory is required")
	}
	if deps.Scheduler == nil {
		deps.Scheduler = refresh.NewScheduler(config.GetRefreshLead())
	}

	s := &Server{
		mux:       http.NewServeMux(),
		config:    config,
		storage:   deps.Storage,
		sealer:    deps.Sealer,
		backend:   deps.Backend,
		scheduler: deps.Scheduler,
		refreshes: &singleflight.Group{},
		validator: forms.NewValidator(),
	}
	s.env = config.GetEnv()
	s.cookieLife = int(config.GetCookieMaxAge().Seconds())

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
	log.Debug().Msgf("[%s] %s", colouredMethod(method), path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
