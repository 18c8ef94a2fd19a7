package mockit

import (
	"fmt"

	"github.com/gofiber/fiber"
	"github.com/sirupsen/logrus"

	"github.com/zerbitx/mockit/middleware"
	"github.com/zerbitx/mockit/store"
)

type (
	mockit struct {
		app      *fiber.App
		store    *store.Store
		logger   logrus.FieldLogger
		host     string
		port     int
		basePath string
	}

	config struct {
		host     string
		port     int
		basePath string
		logger   logrus.FieldLogger
	}

	// Option is a function that can modify a default config
	Option func(c *config)
)

// New returns a mockit server on 127.0.0.1:8080 serving the management
// endpoints, with the session binder in front of every route.
func New(st *store.Store, options ...Option) *mockit {
	c := &config{
		host:   "127.0.0.1",
		port:   8080,
		logger: logrus.StandardLogger(),
	}

	for _, applyOption := range options {
		applyOption(c)
	}

	app := fiber.New(&fiber.Settings{
		ServerHeader:          "Mockit",
		DisableStartupMessage: true,
	})

	m := &mockit{
		app:      app,
		store:    st,
		logger:   c.logger,
		host:     c.host,
		port:     c.port,
		basePath: c.basePath,
	}

	m.initEndpoints()

	return m
}

// Start starts the server
func (m *mockit) Start() error {
	m.logger.WithFields(logrus.Fields{"host": m.host, "port": m.port}).Info("mockit")

	return m.app.Listen(fmt.Sprintf("%s:%d", m.host, m.port))
}

// Shutdown gracefully shuts down the server
func (m *mockit) Shutdown() error {
	if shutdownErr := m.app.Shutdown(); shutdownErr != nil {
		return fmt.Errorf("failed to shutdown app %w", shutdownErr)
	}

	return nil
}

// WithLogger overrides the default logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithHost sets the host
func WithHost(host string) Option {
	return func(c *config) {
		c.host = host
	}
}

// WithPort sets the server's port
func WithPort(port int) Option {
	return func(c *config) {
		c.port = port
	}
}

// WithBasePath mounts the management endpoints under a path prefix
func WithBasePath(basePath string) Option {
	return func(c *config) {
		c.basePath = basePath
	}
}

func (m *mockit) initEndpoints() {
	m.app.Use(middleware.SessionBinder(m.store, m.logger))

	m.app.Post(m.basePath+"/mocks", m.createMock)
	m.app.Get(m.basePath+"/mocks/:service", m.showMock)
	// the teardown route must be wired before the :service route so fiber
	// does not capture "teardown" as a service name
	m.app.Delete(m.basePath+"/mocks/teardown", m.teardown)
	m.app.Delete(m.basePath+"/mocks/:service", m.destroyMock)
	m.app.Post(m.basePath+"/map_request", m.createMapping)
}
