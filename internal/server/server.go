/*
Package server implements the plan generator's HTTP layer.
It wires the echo router, the session cookie, the per-session plan
history and the model provider together.
*/
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog/log"

	"github.com/fitplan/fitplan/internal/config"
	"github.com/fitplan/fitplan/internal/history"
	"github.com/fitplan/fitplan/internal/llm"
	"github.com/fitplan/fitplan/internal/metrics"
	"github.com/fitplan/fitplan/internal/planner"
)

const sessionName = "fitplan_session"

// Server defines the configuration and dependencies for the HTTP service.
type Server struct {
	// port specifies the TCP port the server will listen on.
	port int

	provider string
	model    string

	// llmTimeout bounds one model call on top of the request context.
	llmTimeout time.Duration

	planner *planner.Planner

	// plans holds each session's history, keyed by the id in the cookie.
	plans *history.Store

	// cookies signs and verifies the session cookie.
	cookies sessions.Store

	metrics *metrics.Metrics
}

// New builds a Server from cfg using provider for all model calls.
func New(cfg *config.Config, provider llm.Provider) *Server {
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		log.Warn().Msg("SESSION_SECRET not set, generating a random one; sessions will not survive a restart")
		secret = securecookie.GenerateRandomKey(32)
	}

	store := sessions.NewCookieStore(secret)
	store.MaxAge(int(cfg.SessionTTL.Seconds()))
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = cfg.IsProduction()
	store.Options.SameSite = http.SameSiteLaxMode

	m := metrics.New()

	return &Server{
		port:       cfg.Port,
		provider:   cfg.Provider,
		model:      cfg.Model,
		llmTimeout: cfg.LLMTimeout,
		planner:    planner.New(provider, m),
		plans:      history.NewStore(history.DefaultMaxSessions, cfg.SessionTTL),
		cookies:    store,
		metrics:    m,
	}
}

// NewServer initializes the Server and returns a configured *http.Server
// with production network timeouts.
func NewServer(cfg *config.Config, provider llm.Provider) *http.Server {
	s := New(cfg, provider)

	// The write timeout must outlive a full model call.
	writeTimeout := 30 * time.Second
	if cfg.LLMTimeout+10*time.Second > writeTimeout {
		writeTimeout = cfg.LLMTimeout + 10*time.Second
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: writeTimeout,
	}
}
