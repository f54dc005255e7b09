package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/olebedev/emitter"
	"github.com/sirupsen/logrus"

	"github.com/openconsole/openconsole/internal/auth"
	"github.com/openconsole/openconsole/internal/console"
	"github.com/openconsole/openconsole/internal/crypto"
	"github.com/openconsole/openconsole/internal/metrics"
)

// Server exposes the session registry's operations over HTTP and streams
// session events over a websocket.
type Server struct {
	echo     *echo.Echo
	log      *logrus.Entry
	registry *console.Registry
	events   *emitter.Emitter

	keys           *crypto.KeyPair
	encryptedInput bool
}

// ServerOpts carries the optional server collaborators.
type ServerOpts struct {
	APIKey         string
	EncryptedInput bool
	Keys           *crypto.KeyPair
}

// NewServer creates the API server with all routes configured.
func NewServer(log *logrus.Logger, registry *console.Registry,
	events *emitter.Emitter, opts ServerOpts) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:           e,
		log:            log.WithField("component", "api"),
		registry:       registry,
		events:         events,
		keys:           opts.Keys,
		encryptedInput: opts.EncryptedInput,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestMetrics)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", metrics.Handler())

	api := e.Group("")
	api.Use(auth.APIKeyMiddleware(opts.APIKey))

	api.POST("/sessions", s.createSession)
	api.GET("/sessions", s.listSessions)
	api.POST("/sessions/terminal", s.createTerminal)
	api.GET("/sessions/:handle", s.getSession)
	api.POST("/sessions/:handle/start", s.startSession)
	api.POST("/sessions/:handle/interrupt", s.interruptSession)
	api.POST("/sessions/:handle/stdin", s.writeStdin)
	api.POST("/sessions/:handle/size", s.setSize)
	api.POST("/sessions/:handle/caption", s.setCaption)
	api.POST("/sessions/:handle/title", s.setTitle)
	api.GET("/sessions/:handle/buffer", s.getBuffer)
	api.DELETE("/sessions/:handle/buffer", s.eraseBuffer)
	api.DELETE("/sessions/:handle", s.reapSession)

	api.GET("/events", s.eventsWebSocket)
	api.GET("/publickey", s.publicKey)

	return s
}

func requestMetrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		status := c.Response().Status
		if err != nil {
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
		}
		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Request().Method, c.Path(), strconv.Itoa(status)).Inc()
		return err
	}
}

// Handler returns the underlying HTTP handler, for tests and for embedding
// into a larger mux.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server on the given address.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Close shuts down the server.
func (s *Server) Close() error {
	return s.echo.Close()
}
