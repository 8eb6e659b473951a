package ibus

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/godbus/dbus/v5"

	"rimebridge/internal/session"
)

// ServiceConfig configures the bus connection.
type ServiceConfig struct {
	// Address is the IBus bus address. Empty means $IBUS_ADDRESS, then the
	// session bus.
	Address     string
	BusName     string
	EngineName  string
	Orientation int32
}

// Service connects to the bus and serves the factory.
type Service struct {
	cfg     ServiceConfig
	mgr     *session.Manager
	logger  *slog.Logger
	conn    *dbus.Conn
	factory *Factory
}

// NewService creates a service. Start connects it.
func NewService(cfg ServiceConfig, mgr *session.Manager, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cfg: cfg, mgr: mgr, logger: logger}
}

func (s *Service) connect() (*dbus.Conn, error) {
	addr := s.cfg.Address
	if addr == "" {
		addr = os.Getenv("IBUS_ADDRESS")
	}
	if addr == "" {
		return dbus.SessionBus()
	}
	return dbus.Connect(addr)
}

// Start connects to the bus, exports the factory and claims the bus name.
func (s *Service) Start() error {
	conn, err := s.connect()
	if err != nil {
		return fmt.Errorf("connect to bus: %w", err)
	}
	s.conn = conn

	s.factory = NewFactory(conn, s.mgr, s.cfg.EngineName, s.logger, WithOrientation(s.cfg.Orientation))
	if err := conn.Export(s.factory, FactoryPath, IBusFactoryInterface); err != nil {
		conn.Close()
		return fmt.Errorf("export factory: %w", err)
	}

	reply, err := conn.RequestName(s.cfg.BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return fmt.Errorf("request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return errors.New("bus name already taken")
	}

	s.logger.Info("IBus engine started", "bus_name", s.cfg.BusName, "engine", s.cfg.EngineName)
	return nil
}

// Factory returns the exported factory once started.
func (s *Service) Factory() *Factory {
	return s.factory
}

// Stop destroys all engines and closes the connection.
func (s *Service) Stop() error {
	if s.factory != nil {
		s.factory.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
