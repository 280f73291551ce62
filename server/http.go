package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/auyylaso/Valthrun/pkg/config"
	"github.com/auyylaso/Valthrun/pkg/errors"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // The relay carries no credentials; any origin may connect
	},
}

// StaticServe selects how unrelated HTTP traffic is served next to the
// websocket endpoints: not at all, from a disk directory with an index.html
// fallback, or bundled with the executable (placeholder, unimplemented).
type StaticServe struct {
	Mode      string
	Directory string
}

// ListenHTTP binds the listener and starts serving the websocket upgrade
// endpoints and the optional static files in the background. Calling it a
// second time fails; a bind failure is returned to the caller.
func (s *RadarServer) ListenHTTP(addr string, static StaticServe) error {
	s.serverMu.Lock()
	defer s.serverMu.Unlock()

	if s.started {
		return errors.ErrServerAlreadyStarted
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), RequestIDMiddleware(), RequestLogMiddleware(), CORSMiddleware())

	// Both upgrade endpoints behave identically: the client's first command
	// decides its role, not the path it connected on.
	router.GET("/publish", s.ginHandleWebSocket)
	router.GET("/subscribe", s.ginHandleWebSocket)

	router.GET("/api/health", s.ginHandleHealth)

	switch static.Mode {
	case config.StaticModeDisk:
		s.registerStaticRoutes(router, static.Directory)
	case config.StaticModeBundled:
		return errors.ErrBundledNotSupported
	case config.StaticModeNone, "":
	default:
		return fmt.Errorf("unknown static serving mode: %s", static.Mode)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}

	s.httpServer = &http.Server{Handler: router}
	s.listenAddr = listener.Addr()
	s.started = true

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.ErrorWithErr("http server terminated", err)
		}
	}()

	s.log.InfoWith("started server", "address", s.listenAddr.String())
	return nil
}

// Addr returns the bound listen address, or nil before ListenHTTP succeeds
func (s *RadarServer) Addr() net.Addr {
	s.serverMu.Lock()
	defer s.serverMu.Unlock()
	return s.listenAddr
}

// Shutdown stops the HTTP listener. Live websocket connections end through
// their own bridge teardown.
func (s *RadarServer) Shutdown(ctx context.Context) error {
	s.serverMu.Lock()
	defer s.serverMu.Unlock()

	if !s.started {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// ginHandleWebSocket upgrades the connection, registers the client, and
// runs its bridge until the connection ends
func (s *RadarServer) ginHandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.ErrorWithErr("websocket upgrade failed", err, "remote", c.Request.RemoteAddr)
		return
	}

	client := newClient(c.Request.RemoteAddr)
	bridge := newBridge(conn, client)
	s.RegisterClient(client, bridge.Events())
	bridge.run()
}

// ginHandleHealth reports server health including registry sizes
func (s *RadarServer) ginHandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, s.monitor.GetHealth(s.ClientCount(), s.SessionCount()))
}

// registerStaticRoutes serves files from dir for any route the router does
// not know, falling back to index.html so client side routing keeps working
func (s *RadarServer) registerStaticRoutes(router *gin.Engine, dir string) {
	router.NoRoute(func(c *gin.Context) {
		path := filepath.Join(dir, filepath.Clean("/"+c.Request.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			c.File(path)
			return
		}
		c.File(filepath.Join(dir, "index.html"))
	})
}
