package api

import (
	"context"
	"errors"

	"mfgtrack/internal/kv"
	"mfgtrack/internal/logger"
	"mfgtrack/internal/metrics"
	"mfgtrack/internal/workflow"

	"github.com/sirupsen/logrus"
)

const moduleName = "api"

// Server оборачивает координатор в HTTP.
type Server struct {
	coord   *workflow.Coordinator
	log     *logrus.Logger
	metrics *metrics.Metrics
	events  *hub
}

type Option func(*Server)

func WithLogger(l *logrus.Logger) Option { return func(s *Server) { s.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Server) { s.metrics = m } }

func NewServer(coord *workflow.Coordinator, opts ...Option) *Server {
	s := &Server{
		coord:  coord,
		log:    logger.Discard(),
		events: newHub(),
	}
	for _, o := range opts {
		o(s)
	}
	coord.OnReload(func(page string) {
		s.events.publish(Event{Type: EventReload, Page: page})
	})
	return s
}

// Start пересылает в /api/events изменения, сделанные другими писателями хранилища.
// Драйвер без уведомлений не ошибка: события будут только о своих записях.
func (s *Server) Start(ctx context.Context) error {
	changes, err := s.coord.Store().Watch(ctx)
	if errors.Is(err, kv.ErrNotSupported) {
		s.log.Info("storage driver has no change notifications")
		return nil
	}
	if err != nil {
		return err
	}
	go func() {
		for ch := range changes {
			s.log.WithField("key", ch.Key).WithField("origin", ch.Origin).Debug("external change")
			s.events.publish(Event{Type: EventExternal, Collection: ch.Key})
			s.coord.Reload("")
		}
	}()
	return nil
}
