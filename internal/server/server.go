package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/muurk/escconf/internal/discovery"
	"github.com/muurk/escconf/internal/escsettings"
	"github.com/muurk/escconf/internal/logging"
	"github.com/muurk/escconf/internal/version"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds how long Run waits for in-flight requests
const shutdownTimeout = 10 * time.Second

// Config holds the server configuration
type Config struct {
	Host string
	Port int

	// Store is the settings being edited. Required.
	Store *escsettings.Store

	// Path, when set, is written after every commit and watched for
	// external changes.
	Path string

	// FormOptions configures the per-client forms. OnCommit is wrapped,
	// not replaced.
	FormOptions escsettings.FormOptions

	// Advertise registers the server with mDNS under InstanceName
	Advertise    bool
	InstanceName string
}

// Server is the browser-facing edit server. Every client gets its own
// pending edits; commits go to the shared store and are broadcast.
type Server struct {
	config *Config
	store  *escsettings.Store
	router *mux.Router
	hub    *hub

	// formMu guards form, the form used by the HTTP API
	formMu sync.Mutex
	form   *escsettings.Form

	saveMu sync.Mutex

	addrMu sync.Mutex
	addr   net.Addr
	ready  chan struct{}
}

// New creates a new Server instance
func New(config *Config) (*Server, error) {
	if config.Store == nil {
		return nil, fmt.Errorf("server requires a settings store")
	}
	if config.Port < 0 || config.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", config.Port)
	}

	s := &Server{
		config: config,
		store:  config.Store,
		hub:    newHub(),
		ready:  make(chan struct{}),
	}
	s.form = s.newForm()
	s.router = s.routes()
	return s, nil
}

// newForm creates a form over the shared store that logs and persists commits
func (s *Server) newForm() *escsettings.Form {
	opts := s.config.FormOptions
	next := opts.OnCommit
	opts.OnCommit = func(name, input string, value int) {
		logging.LogCommit(name, input, value)
		s.persist()
		if next != nil {
			next(name, input, value)
		}
	}
	return escsettings.NewForm(s.store, opts)
}

// persist writes the store to the configured path, if any
func (s *Server) persist() {
	if s.config.Path == "" {
		return
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if err := escsettings.SaveFile(s.config.Path, s.store); err != nil {
		logging.Error("Failed to save settings file",
			zap.String("path", s.config.Path),
			zap.Error(err),
		)
	}
}

// Handler returns the HTTP handler serving the API and WebSocket endpoint
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listening address once Run has started listening
func (s *Server) Addr() net.Addr {
	s.addrMu.Lock()
	defer s.addrMu.Unlock()
	return s.addr
}

// Ready is closed once the server accepts connections
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Start runs the server until SIGINT or SIGTERM
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprintf("%d", s.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.addrMu.Lock()
	s.addr = listener.Addr()
	s.addrMu.Unlock()

	logging.Info("Starting escconf edit server",
		zap.String("addr", listener.Addr().String()),
		zap.String("layout", s.store.Layout().Name),
		zap.Int("escs", s.store.Len()),
		zap.String("file", s.config.Path),
	)

	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	changes, unsubscribe := s.store.Subscribe()
	g.Go(func() error {
		s.broadcastChanges(ctx, changes)
		return nil
	})

	if s.config.Path != "" {
		g.Go(func() error {
			return escsettings.Watch(ctx, s.config.Path, s.reload, func(err error) {
				logging.Warn("Settings file reload failed", zap.Error(err))
			})
		})
	}

	if s.config.Advertise {
		port := listener.Addr().(*net.TCPAddr).Port
		txt := discovery.BuildTXT(s.store.Layout().Name, s.store.Len(), version.Version)
		ad, err := discovery.Advertise(s.instanceName(), port, txt)
		if err != nil {
			// The server is still usable by address.
			logging.Warn("mDNS advertisement failed", zap.Error(err))
		} else {
			defer ad.Shutdown()
		}
	}

	close(s.ready)

	g.Go(func() error {
		<-ctx.Done()
		logging.Info("Shutting down edit server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.hub.closeAll()
		unsubscribe()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn("Shutdown timeout, forcing close", zap.Error(err))
			return httpServer.Close()
		}
		return nil
	})

	err = g.Wait()
	logging.Sync()
	return err
}

func (s *Server) instanceName() string {
	if s.config.InstanceName != "" {
		return s.config.InstanceName
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return "escconf on " + host
	}
	return "escconf"
}

// reload replaces the store with a file changed on disk. Our own writes
// load back identical and are ignored.
func (s *Server) reload(loaded *escsettings.Store) {
	changed := escsettings.Differs(s.store, loaded)
	logging.LogReload(s.config.Path, changed)
	if !changed {
		return
	}
	if err := s.store.Replace(loaded); err != nil {
		logging.Warn("Ignoring reloaded settings file", zap.Error(err))
	}
}

// broadcastChanges syncs every client to store writes until ctx is done
func (s *Server) broadcastChanges(ctx context.Context, changes <-chan escsettings.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			s.syncHTTPForm(c)
			s.hub.each(func(sess *session) {
				sess.notify(c)
			})
		}
	}
}

func (s *Server) syncHTTPForm(c escsettings.Change) {
	s.formMu.Lock()
	defer s.formMu.Unlock()
	if c.Reload {
		s.form.Refresh()
		return
	}
	s.form.SyncField(c.Name)
}

// Sessions returns the number of connected WebSocket clients
func (s *Server) Sessions() int {
	return s.hub.len()
}
