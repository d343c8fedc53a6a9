// Package app wires the configuration into a running scheduling service.
package app

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chauffeurjet/dispatch/api/bookings"
	"github.com/chauffeurjet/dispatch/config"
	"github.com/chauffeurjet/dispatch/core/audit"
	"github.com/chauffeurjet/dispatch/core/dispatch"
	"github.com/chauffeurjet/dispatch/core/fleet"
	"github.com/chauffeurjet/dispatch/core/ident"
	coremetrics "github.com/chauffeurjet/dispatch/core/metrics"
	"github.com/chauffeurjet/dispatch/core/notify"
	"github.com/chauffeurjet/dispatch/core/timetable"
	"github.com/chauffeurjet/dispatch/infra/logger"
	"github.com/chauffeurjet/dispatch/infra/metrics"
	"github.com/chauffeurjet/dispatch/infra/mqtt"
	"github.com/chauffeurjet/dispatch/infra/routing"
	"github.com/chauffeurjet/dispatch/internal/eventbus"
)

// Service owns the booking manager and its outward surfaces: the HTTP API,
// the MQTT notifier and the metrics endpoint.
type Service struct {
	Manager *dispatch.Manager

	cfg      *config.Config
	store    timetable.Store
	auditLog audit.LogStore
	notifier notify.Notifier
	bus      eventbus.EventBus
	log      logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	store, err := openStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("timetable store: %w", err)
	}

	seed, err := displaySeed(store, cfg.Store.DisplaySeed)
	if err != nil {
		return nil, fmt.Errorf("display seed: %w", err)
	}

	dir := fleet.NewMemoryDirectory()
	for _, t := range cfg.Fleet.Types {
		dir.AddType(t)
	}
	for _, v := range cfg.Fleet.Vehicles {
		dir.AddVehicle(v)
	}

	var sinks []coremetrics.MetricsSink
	for _, mc := range cfg.Metrics.Sinks {
		sink, err := coremetrics.NewMetricsSink(mc)
		if err != nil {
			return nil, fmt.Errorf("metrics sink %s: %w", mc.Type, err)
		}
		sinks = append(sinks, sink)
	}
	var sink coremetrics.MetricsSink
	switch len(sinks) {
	case 0:
		sink = coremetrics.NopSink{}
	case 1:
		sink = sinks[0]
	default:
		sink = metrics.NewMultiSink(sinks...)
	}

	var auditLog audit.LogStore
	if cfg.Audit.Enabled {
		auditLog, err = openAudit(cfg.Audit)
		if err != nil {
			return nil, fmt.Errorf("audit store: %w", err)
		}
	}

	bus := eventbus.New()
	manager, err := dispatch.NewManager(dispatch.ManagerParams{
		Store:  store,
		Fleet:  dir,
		Router: routing.NewClient(cfg.Routing),
		IDs:    ident.NewCounter(seed),
		Bus:    bus,
		Sink:   sink,
		Audit:  auditLog,
		Log:    logger.New("manager"),
		Config: cfg.Dispatch,
	})
	if err != nil {
		return nil, fmt.Errorf("booking manager: %w", err)
	}

	svc := &Service{
		Manager:  manager,
		cfg:      cfg,
		store:    store,
		auditLog: auditLog,
		bus:      bus,
		log:      logg,
	}

	if cfg.MQTT.Enabled {
		notifier, err := mqtt.NewNotifier(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt notifier: %w", err)
		}
		svc.notifier = notifier
	}
	return svc, nil
}

// Run starts the HTTP API, the notifier forwarding and the metrics endpoint,
// then blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.notifier != nil {
		notify.Forward(ctx, s.bus, s.notifier, logger.New("notifier"))
	}
	if s.cfg.Metrics.PrometheusPort != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", bookings.NewHandler(s.Manager, s.cfg.HTTP.AuthToken))
	if s.auditLog != nil {
		mux.Handle("/api/audit", bookings.NewAuditHandler(s.auditLog, s.cfg.HTTP.AuthToken))
	}
	srv := &http.Server{Addr: s.cfg.HTTP.Addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("http shutdown: %v", err)
		}
	}()

	s.log.Infof("booking API listening on %s", s.cfg.HTTP.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.notifier != nil {
		s.notifier.Close()
	}
	s.bus.Close()
	var firstErr error
	if s.auditLog != nil {
		if err := s.auditLog.Close(); err != nil {
			firstErr = err
		}
	}
	if err := s.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func openStore(cfg config.StoreConfig) (timetable.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return timetable.NewSQLiteStore(cfg.Path)
	default:
		return timetable.NewMemoryStore(), nil
	}
}

func openAudit(cfg config.AuditConfig) (audit.LogStore, error) {
	switch cfg.Backend {
	case "sqlite":
		return audit.NewSQLiteStore(cfg.Path)
	case "rotating":
		return audit.NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	default:
		return audit.NewJSONLStore(cfg.Path)
	}
}

// displaySeed resumes the display-id sequence from the highest CJ-### code
// already persisted, or the configured seed if larger.
func displaySeed(store timetable.Store, configured int64) (int64, error) {
	all, err := store.All()
	if err != nil {
		return 0, err
	}
	seed := configured
	for _, b := range all {
		n, ok := parseDisplayID(b.DisplayID)
		if ok && n > seed {
			seed = n
		}
	}
	return seed, nil
}

func parseDisplayID(id string) (int64, bool) {
	rest, ok := strings.CutPrefix(id, "CJ-")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
