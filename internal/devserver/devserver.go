// SPDX-License-Identifier: MPL-2.0

package devserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/dvcol/i18nbundle/internal/core/serverbase"
	"github.com/dvcol/i18nbundle/internal/liveupdate"
	"github.com/dvcol/i18nbundle/internal/virtualmod"
	"github.com/dvcol/i18nbundle/pkg/locale"
)

const (
	// DefaultAddr is the listen address used when Config.Addr is empty.
	DefaultAddr = "127.0.0.1:5174"

	// SocketPath is the live-update WebSocket endpoint.
	SocketPath = "/__i18n/ws"
	// ModulePath serves the virtual module source.
	ModulePath = "/__i18n/module.js"
	// DeclarationPath serves the module's TypeScript declarations.
	DeclarationPath = "/__i18n/module.d.ts"
	// LocalesPath serves the current locale map as JSON.
	LocalesPath = "/__i18n/locales.json"

	readHeaderTimeout = 10 * time.Second
	writeWait         = 10 * time.Second
	pingInterval      = 30 * time.Second

	jsContentType   = "text/javascript; charset=utf-8"
	tsContentType   = "application/typescript; charset=utf-8"
	jsonContentType = "application/json; charset=utf-8"
)

// ErrNoSource is returned by New when Config.Source is nil.
var ErrNoSource = errors.New("dev server requires a locale source")

var (
	connectedFrame = []byte(`{"type":"connected"}`)
	ginModeOnce    sync.Once
)

type (
	// Source supplies the locale map served to clients. *plugin.Plugin
	// implements it.
	Source interface {
		Locales() locale.Map
	}

	// Subscriber delivers encoded live-update envelopes.
	// *liveupdate.Channel implements it.
	Subscriber interface {
		SubscribeRaw(ctx context.Context, fn func(body []byte)) (liveupdate.StopFunc, error)
	}

	// Config configures a Server.
	Config struct {
		// Addr is the TCP listen address. Defaults to DefaultAddr; use port
		// 0 for an ephemeral port.
		Addr string
		// Source is required.
		Source Source
		// Updates is optional; without it sockets only receive the
		// connected frame.
		Updates Subscriber
		// AllowOrigins restricts CORS and WebSocket origins. Empty allows
		// every origin.
		AllowOrigins []string
		// Logger defaults to slog.Default().
		Logger *slog.Logger
	}

	// Server is a single-use development server.
	Server struct {
		*serverbase.Base

		cfg      Config
		logger   *slog.Logger
		engine   *gin.Engine
		hub      *hub
		upgrader websocket.Upgrader

		mu          sync.Mutex
		addr        string
		httpSrv     *http.Server
		unsubscribe liveupdate.StopFunc
	}
)

// New builds a Server. It does not listen until Start.
func New(cfg Config) (*Server, error) {
	if cfg.Source == nil {
		return nil, ErrNoSource
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	ginModeOnce.Do(func() { gin.SetMode(gin.ReleaseMode) })

	s := &Server{
		Base:   serverbase.NewBase(),
		cfg:    cfg,
		logger: cfg.Logger,
		hub:    newHub(cfg.Logger),
		addr:   cfg.Addr,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.engine = s.routes()
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr returns the bound address once started, or the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// URL returns the server's base URL.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}

// SocketURL returns the live-update WebSocket URL.
func (s *Server) SocketURL() string {
	return "ws://" + s.Addr() + SocketPath
}

// Clients returns the number of connected sockets.
func (s *Server) Clients() int {
	return s.hub.len()
}

// Start listens and serves in the background. It returns once the listener
// is bound.
func (s *Server) Start(ctx context.Context) error {
	if err := s.BeginStart(ctx); err != nil {
		return err
	}

	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		err = fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
		s.Fail(err)
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return s.Context() },
	}

	var unsubscribe liveupdate.StopFunc
	if s.cfg.Updates != nil {
		unsubscribe, err = s.cfg.Updates.SubscribeRaw(s.Context(), s.hub.broadcast)
		if err != nil {
			_ = ln.Close()
			err = fmt.Errorf("subscribe to live updates: %w", err)
			s.Fail(err)
			return err
		}
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.httpSrv = srv
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	s.Go(func() {
		if serveErr := srv.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error("dev server stopped unexpectedly", "error", serveErr)
			s.Fail(fmt.Errorf("serve: %w", serveErr))
		}
	})

	s.MarkRunning()
	s.logger.Info("dev server listening", "url", s.URL(), "socket", s.SocketURL())
	return nil
}

// Stop closes sockets, stops accepting requests and waits for in-flight
// requests until ctx ends. Stopping a server that is not running is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	if !s.BeginStop() {
		return nil
	}

	s.mu.Lock()
	srv, unsubscribe := s.httpSrv, s.unsubscribe
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	s.hub.closeAll()

	var err error
	if srv != nil {
		if shutdownErr := srv.Shutdown(ctx); shutdownErr != nil {
			err = fmt.Errorf("shutdown dev server: %w", shutdownErr)
		}
	}
	s.Wait()
	s.MarkStopped()
	s.logger.Debug("dev server stopped")
	return err
}

func (s *Server) routes() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(s.cors())
	engine.Use(requestLogger(s.logger, SocketPath, "/health"))

	engine.GET("/health", s.handleHealth)
	engine.GET("/@id/*id", s.handleModuleID)
	engine.GET(ModulePath, s.handleModule)
	engine.GET(DeclarationPath, s.handleDeclaration)
	engine.GET(LocalesPath, s.handleLocales)
	engine.GET("/__i18n/locales/:lang", s.handleLanguage)
	engine.GET(SocketPath, s.handleSocket)
	return engine
}

func (s *Server) cors() gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if len(s.cfg.AllowOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.cfg.AllowOrigins
	}
	return cors.New(cfg)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(s.cfg.AllowOrigins, origin)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "state": s.State().String()})
}

func (s *Server) handleModuleID(c *gin.Context) {
	id := strings.TrimPrefix(c.Param("id"), "/")
	if _, ok := virtualmod.Resolve(id); !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown module %q", id)})
		return
	}
	s.handleModule(c)
}

func (s *Server) handleModule(c *gin.Context) {
	src, err := virtualmod.Source(s.cfg.Source.Locales(), virtualmod.Options{SocketURL: s.SocketURL()})
	if err != nil {
		s.logger.Error("render virtual module", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, jsContentType, []byte(src))
}

func (s *Server) handleDeclaration(c *gin.Context) {
	c.Data(http.StatusOK, tsContentType, []byte(virtualmod.Declaration()))
}

func (s *Server) handleLocales(c *gin.Context) {
	m := s.cfg.Source.Locales()
	if m == nil {
		m = locale.Map{}
	}
	s.writeJSON(c, m)
}

func (s *Server) handleLanguage(c *gin.Context) {
	lang := strings.TrimSuffix(c.Param("lang"), ".json")
	sections, ok := s.cfg.Source.Locales()[lang]
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown language %q", lang)})
		return
	}
	s.writeJSON(c, sections)
}

func (s *Server) writeJSON(c *gin.Context, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encode locales", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, jsonContentType, body)
}

// handleSocket upgrades the request and pumps queued updates to the client
// until either side closes or the server stops.
func (s *Server) handleSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already written the error response.
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	cl := s.hub.register()
	defer s.hub.unregister(cl)

	if err := s.write(conn, connectedFrame); err != nil {
		return
	}

	// The read side only detects client close; inbound frames are ignored.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case body, ok := <-cl.send:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping"),
					time.Now().Add(writeWait))
				return
			}
			if err := s.write(conn, body); err != nil {
				s.logger.Debug("websocket write failed", "error", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-readDone:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) write(conn *websocket.Conn, body []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, body)
}
