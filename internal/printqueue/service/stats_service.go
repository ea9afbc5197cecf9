package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/Aceless34/PrintingQueue/internal/printqueue/repository"
	"github.com/Aceless34/PrintingQueue/internal/shared/metrics"
	"github.com/Aceless34/PrintingQueue/internal/shared/notify"
)

// Stats topics, relative to the base topic
const (
	TopicCountOpen        = "count_open"
	TopicLatestHighUrgent = "latest_high_urgent"
)

// StatsService publishes project aggregates to the notification side channel
type StatsService struct {
	repos     *repository.Repositories
	publisher notify.Publisher
	baseTopic string
	metrics   *metrics.Metrics
	logger    *zap.Logger
	pending   chan struct{}
}

func NewStatsService(repos *repository.Repositories, publisher notify.Publisher, baseTopic string, m *metrics.Metrics, logger *zap.Logger) *StatsService {
	if publisher == nil {
		publisher = notify.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{
		repos:     repos,
		publisher: publisher,
		baseTopic: strings.TrimSuffix(baseTopic, "/"),
		metrics:   m,
		logger:    logger,
		pending:   make(chan struct{}, 1),
	}
}

// Topic returns the full topic name for a stats key
func (s *StatsService) Topic(key string) string {
	if s.baseTopic == "" {
		return key
	}
	return s.baseTopic + "/" + key
}

// Trigger schedules a publish on the Run loop and returns at once. Triggers arriving while
// one is already pending collapse into a single publish.
func (s *StatsService) Trigger() {
	select {
	case s.pending <- struct{}{}:
	default:
	}
}

// Run publishes once per pending trigger until ctx is done
func (s *StatsService) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.pending:
			s.Publish(ctx)
		}
	}
}

// Publish sends the open project count and the latest urgent project. Failures are logged only.
func (s *StatsService) Publish(ctx context.Context) {
	count, err := s.repos.Project.CountOpen(ctx)
	if err != nil {
		s.logger.Warn("count open projects failed", zap.Error(err))
		return
	}
	s.metrics.SetOpenProjects(count)
	s.send(ctx, TopicCountOpen, map[string]int64{"count": count})

	var latest interface{} = struct{}{}
	project, err := s.repos.Project.LatestHighUrgent(ctx)
	switch {
	case err == nil:
		latest = project
	case !errors.Is(err, repository.ErrNotFound):
		s.logger.Warn("load latest urgent project failed", zap.Error(err))
		return
	}
	s.send(ctx, TopicLatestHighUrgent, latest)
}

func (s *StatsService) send(ctx context.Context, key string, v interface{}) {
	topic := s.Topic(key)
	payload, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("encode stats payload failed", zap.String("topic", topic), zap.Error(err))
		return
	}
	err = s.publisher.Publish(ctx, topic, payload)
	s.metrics.ObservePublish(topic, err)
	if err != nil {
		s.logger.Warn("publish stats failed", zap.String("topic", topic), zap.Error(err))
	}
}
