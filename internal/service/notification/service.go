package notification

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/university-api/internal/model"
	apperrors "github.com/jwalitptl/university-api/pkg/errors"
	"github.com/jwalitptl/university-api/pkg/logger"
	"github.com/jwalitptl/university-api/pkg/messaging"
	"github.com/jwalitptl/university-api/pkg/metrics"
)

const (
	defaultReadMarkTTL = 24 * time.Hour
	readMarkCleanup    = time.Hour
)

var errMissingEntity = errors.New("entity type and id are required")

// Service moves notification records over the transport. None of its
// producer-side methods report failures to the caller.
type Service interface {
	Send(ctx context.Context, entityType, entityID, displayName string, op model.EntityOperation, userName string)
	Receive(ctx context.Context) *model.Notification
	MarkAsRead(ctx context.Context, id int64) error
	Degraded() bool
}

type Options struct {
	// ReceiveTimeout bounds a single dequeue. Defaults to messaging.DefaultReceiveTimeout.
	ReceiveTimeout time.Duration
	// ReadMarkTTL is how long a read mark is remembered.
	ReadMarkTTL time.Duration
	Now         func() time.Time
}

type service struct {
	transport      messaging.Transport
	logger         *logger.Logger
	metrics        *metrics.Metrics
	reads          *cache.Cache
	receiveTimeout time.Duration
	now            func() time.Time
	seq            atomic.Int64
}

func NewService(transport messaging.Transport, log *logger.Logger, m *metrics.Metrics, opts Options) Service {
	if log == nil {
		log = logger.NewNop()
	}
	if m == nil {
		m = metrics.New("university", prometheus.NewRegistry())
	}
	if opts.ReceiveTimeout <= 0 {
		opts.ReceiveTimeout = messaging.DefaultReceiveTimeout
	}
	if opts.ReadMarkTTL <= 0 {
		opts.ReadMarkTTL = defaultReadMarkTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	if transport.Degraded() {
		m.TransportDegraded.Set(1)
	} else {
		m.TransportDegraded.Set(0)
	}

	return &service{
		transport:      transport,
		logger:         log,
		metrics:        m,
		reads:          cache.New(opts.ReadMarkTTL, readMarkCleanup),
		receiveTimeout: opts.ReceiveTimeout,
		now:            opts.Now,
	}
}

func (s *service) Degraded() bool {
	return s.transport.Degraded()
}

func (s *service) Send(ctx context.Context, entityType, entityID, displayName string, op model.EntityOperation, userName string) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.NotificationsFailed.WithLabelValues("panic").Inc()
			s.logger.Error(fmt.Errorf("panic: %v", r), "notification send aborted",
				"entity_type", entityType, "entity_id", entityID)
		}
	}()

	if strings.TrimSpace(entityType) == "" || strings.TrimSpace(entityID) == "" {
		s.metrics.NotificationsFailed.WithLabelValues("invalid").Inc()
		s.logger.Error(errMissingEntity, "notification dropped",
			"entity_type", entityType, "entity_id", entityID, "operation", string(op))
		return
	}

	n := model.NewNotification(entityType, entityID, displayName, op, userName, s.now().UTC())

	// Logged unconditionally so the event is visible even when nothing is queued.
	s.logger.Info(fmt.Sprintf("Notification: %s by %s", n.Message, n.CreatedBy),
		"entity_type", n.EntityType, "entity_id", n.EntityID, "operation", string(n.Operation))

	if s.transport.Degraded() {
		s.metrics.NotificationsDropped.Inc()
		return
	}

	n.ID = s.nextID(ctx)

	payload, err := model.EncodeNotification(n)
	if err != nil {
		s.metrics.NotificationsFailed.WithLabelValues("encode").Inc()
		s.logger.Error(err, "failed to encode notification", "entity_type", n.EntityType, "entity_id", n.EntityID)
		return
	}

	if err := s.transport.Enqueue(ctx, payload); err != nil {
		s.metrics.NotificationsFailed.WithLabelValues("enqueue").Inc()
		s.logger.Error(err, "failed to enqueue notification",
			"id", n.ID, "entity_type", n.EntityType, "entity_id", n.EntityID)
		return
	}

	s.metrics.NotificationsSent.WithLabelValues(string(n.Operation)).Inc()
}

func (s *service) nextID(ctx context.Context) int64 {
	if seq, ok := s.transport.(messaging.Sequencer); ok {
		id, err := seq.NextID(ctx)
		if err == nil {
			return id
		}
		s.logger.Warn(err, "failed to allocate notification id, using local sequence")
	}
	return s.seq.Add(1)
}

func (s *service) Receive(ctx context.Context) (n *model.Notification) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.NotificationsFailed.WithLabelValues("panic").Inc()
			s.logger.Error(fmt.Errorf("panic: %v", r), "notification receive aborted")
			n = nil
		}
	}()

	start := time.Now()
	payload, ok, err := s.transport.Dequeue(ctx, s.receiveTimeout)
	s.metrics.DequeueLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		if ctx.Err() != nil {
			s.logger.Debug("notification receive cancelled")
			return nil
		}
		s.metrics.NotificationsFailed.WithLabelValues("dequeue").Inc()
		s.logger.Error(err, "failed to dequeue notification")
		return nil
	}
	if !ok {
		return nil
	}

	n, err = model.DecodeNotification(payload)
	if err != nil {
		s.metrics.NotificationsFailed.WithLabelValues("decode").Inc()
		s.logger.Error(err, "skipping undecodable notification", "size", len(payload))
		return nil
	}

	if _, marked := s.reads.Get(readKey(n.ID)); marked {
		n.IsRead = true
	}

	s.metrics.NotificationsReceived.Inc()
	return n
}

// MarkAsRead remembers that id was acknowledged. The mark lives in process
// memory only and expires after the configured TTL.
func (s *service) MarkAsRead(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperrors.BadRequest(fmt.Sprintf("invalid notification id %d", id), nil)
	}

	s.reads.Set(readKey(id), true, cache.DefaultExpiration)
	s.logger.Debug("notification marked as read", "id", id)
	return nil
}

func readKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
