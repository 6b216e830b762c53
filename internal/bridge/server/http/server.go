package http

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autopeer-io/efls/internal/bridge/reconcile"
	"github.com/autopeer-io/efls/internal/pkg/metrics"
	"github.com/autopeer-io/efls/pkg/log"
	"github.com/autopeer-io/efls/pkg/options"
)

// StatusProvider exposes the reconciliation state.
type StatusProvider interface {
	Status() reconcile.Status
}

// streamInterval is the period of /status/stream updates.
const streamInterval = time.Second

type Server struct {
	server   *http.Server
	options  *options.HttpOptions
	status   StatusProvider
	checks   map[string]func() bool
	upgrader websocket.Upgrader
}

// NewServer builds the health, metrics and status endpoint. checks are
// evaluated by /readyz.
func NewServer(opts *options.HttpOptions, status StatusProvider, checks map[string]func() bool) *Server {
	s := &Server{
		options: opts,
		status:  status,
		checks:  checks,
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.readyz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/status", s.statusJSON).Methods(http.MethodGet)
	r.HandleFunc("/status/stream", s.statusStream).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
	}
	return s
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start(ctx context.Context) error {
	log.Info("Starting HTTP Server", "addr", s.server.Addr)

	s.server.BaseContext = func(net.Listener) context.Context { return ctx }

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.options.ShutdownTimeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	var failed []string
	for name, check := range s.checks {
		if !check() {
			failed = append(failed, name)
		}
	}

	if len(failed) > 0 {
		sort.Strings(failed)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready: " + strings.Join(failed, ", ")))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) statusJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.status.Status()); err != nil {
		log.Error(err, "Failed to encode status")
	}
}

// statusStream pushes the status as a JSON text message every streamInterval
// until the client goes away or the server stops.
func (s *Server) statusStream(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer c.Close()

	// Reads are only needed to notice the client closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()
	for {
		if err := c.WriteJSON(s.status.Status()); err != nil {
			return
		}
		select {
		case <-r.Context().Done():
			_ = c.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(time.Second))
			return
		case <-closed:
			return
		case <-ticker.C:
		}
	}
}
