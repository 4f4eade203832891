package notification

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/university-api/internal/model"
	"github.com/jwalitptl/university-api/pkg/logger"
	"github.com/jwalitptl/university-api/pkg/messaging"
	"github.com/jwalitptl/university-api/pkg/messaging/memory"
	"github.com/jwalitptl/university-api/pkg/messaging/redis"
	"github.com/jwalitptl/university-api/pkg/metrics"
)

type failingTransport struct {
	enqueueErr error
	dequeueErr error
	panics     bool
}

func (f *failingTransport) Enqueue(context.Context, []byte) error {
	if f.panics {
		panic("transport exploded")
	}
	return f.enqueueErr
}

func (f *failingTransport) Dequeue(context.Context, time.Duration) ([]byte, bool, error) {
	if f.panics {
		panic("transport exploded")
	}
	return nil, false, f.dequeueErr
}

func (f *failingTransport) Degraded() bool { return false }
func (f *failingTransport) Close() error   { return nil }

func newTestService(t *testing.T, tr messaging.Transport, buf *bytes.Buffer) (Service, *metrics.Metrics) {
	t.Helper()

	log := logger.NewNop()
	if buf != nil {
		log = logger.NewLogger(&logger.Config{Level: logger.DebugLevel, Format: "json", Output: buf})
	}
	m := metrics.New("test", prometheus.NewRegistry())
	svc := NewService(tr, log, m, Options{ReceiveTimeout: 10 * time.Millisecond})
	return svc, m
}

func transports(t *testing.T) map[string]messaging.Transport {
	t.Helper()

	mr := miniredis.RunT(t)
	rq, err := redis.NewQueue(context.Background(), redis.Config{
		URL:   "redis://" + mr.Addr(),
		Queue: messaging.DefaultQueue,
	}, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { rq.Close() })

	return map[string]messaging.Transport{
		"memory": memory.New(messaging.DefaultQueue, 64),
		"redis":  rq,
	}
}

func TestSendReceiveMessageTemplate(t *testing.T) {
	cases := []struct {
		entityType  string
		entityID    string
		displayName string
		op          model.EntityOperation
		want        string
	}{
		{"Course", "42", "Intro to Biology", model.OperationCreate, "New Course 'Intro to Biology' has been created"},
		{"Course", "42", "", model.OperationDelete, "Course (ID: 42) has been deleted"},
		{"Department", "3", "Physics", model.OperationUpdate, "Department 'Physics' has been updated"},
		{"Student", "9", "  ", model.OperationUpdate, "Student (ID: 9) has been updated"},
		{"Student", "9", "Ada Lovelace", model.EntityOperation("ENROL"), "Student 'Ada Lovelace' operation: ENROL"},
	}

	for name, tr := range transports(t) {
		t.Run(name, func(t *testing.T) {
			svc, _ := newTestService(t, tr, nil)
			ctx := context.Background()

			for _, tc := range cases {
				svc.Send(ctx, tc.entityType, tc.entityID, tc.displayName, tc.op, "")

				n := svc.Receive(ctx)
				require.NotNil(t, n)
				assert.Equal(t, tc.want, n.Message)
				assert.Equal(t, tc.entityType, n.EntityType)
				assert.Equal(t, tc.entityID, n.EntityID)
				assert.Equal(t, tc.op, n.Operation)
				assert.Equal(t, model.SystemUser, n.CreatedBy)
				assert.False(t, n.IsRead)
				assert.NotZero(t, n.ID)
			}
		})
	}
}

func TestSendAlwaysLogs(t *testing.T) {
	var buf bytes.Buffer
	svc, m := newTestService(t, messaging.Degraded{}, &buf)

	svc.Send(context.Background(), "Course", "42", "Intro to Biology", model.OperationCreate, "registrar")

	assert.Contains(t, buf.String(), "Notification: New Course 'Intro to Biology' has been created by registrar")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NotificationsDropped))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.TransportDegraded))
}

func TestDegradedModeIsNoop(t *testing.T) {
	svc, _ := newTestService(t, messaging.Degraded{}, nil)
	ctx := context.Background()

	assert.True(t, svc.Degraded())
	for i := 0; i < 5; i++ {
		assert.NotPanics(t, func() {
			svc.Send(ctx, "Course", fmt.Sprint(i), "", model.OperationCreate, "")
		})
	}
	assert.Nil(t, svc.Receive(ctx))
}

func TestSendSwallowsTransportFailure(t *testing.T) {
	var buf bytes.Buffer
	tr := &failingTransport{enqueueErr: errors.New("connection reset")}
	svc, m := newTestService(t, tr, &buf)

	assert.NotPanics(t, func() {
		svc.Send(context.Background(), "Course", "42", "", model.OperationDelete, "")
	})

	assert.Contains(t, buf.String(), "Notification: Course (ID: 42) has been deleted by System")
	assert.Contains(t, buf.String(), "connection reset")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NotificationsFailed.WithLabelValues("enqueue")))
}

func TestSendRecoversTransportPanic(t *testing.T) {
	svc, m := newTestService(t, &failingTransport{panics: true}, nil)

	assert.NotPanics(t, func() {
		svc.Send(context.Background(), "Course", "42", "", model.OperationCreate, "")
	})
	assert.NotPanics(t, func() {
		assert.Nil(t, svc.Receive(context.Background()))
	})
	assert.Equal(t, float64(2), testutil.ToFloat64(m.NotificationsFailed.WithLabelValues("panic")))
}

func TestSendRejectsMissingEntity(t *testing.T) {
	var buf bytes.Buffer
	q := memory.New("test", 4)
	svc, _ := newTestService(t, q, &buf)

	svc.Send(context.Background(), "", "42", "", model.OperationCreate, "")
	svc.Send(context.Background(), "Course", " ", "", model.OperationCreate, "")

	assert.Zero(t, q.Len())
	assert.Equal(t, 2, strings.Count(buf.String(), `"level":"error"`))
}

func TestReceiveSkipsUndecodablePayload(t *testing.T) {
	q := memory.New("test", 4)
	svc, m := newTestService(t, q, nil)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, []byte("{not json")))

	assert.Nil(t, svc.Receive(ctx))
	assert.Zero(t, q.Len())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NotificationsFailed.WithLabelValues("decode")))
}

func TestReceiveTransportErrorIsAbsorbed(t *testing.T) {
	svc, m := newTestService(t, &failingTransport{dequeueErr: errors.New("boom")}, nil)

	assert.Nil(t, svc.Receive(context.Background()))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NotificationsFailed.WithLabelValues("dequeue")))
}

func TestReceiveEmptyQueue(t *testing.T) {
	svc, _ := newTestService(t, memory.New("test", 1), nil)
	assert.Nil(t, svc.Receive(context.Background()))
}

func TestMarkAsReadFlagsLaterReceive(t *testing.T) {
	svc, _ := newTestService(t, memory.New("test", 4), nil)
	ctx := context.Background()

	svc.Send(ctx, "Course", "1", "A", model.OperationCreate, "")
	svc.Send(ctx, "Course", "2", "B", model.OperationCreate, "")

	require.NoError(t, svc.MarkAsRead(ctx, 1))

	first := svc.Receive(ctx)
	second := svc.Receive(ctx)
	require.NotNil(t, first)
	require.NotNil(t, second)

	assert.Equal(t, int64(1), first.ID)
	assert.True(t, first.IsRead)
	assert.False(t, second.IsRead)
}

func TestMarkAsReadRejectsInvalidID(t *testing.T) {
	svc, _ := newTestService(t, memory.New("test", 1), nil)
	assert.Error(t, svc.MarkAsRead(context.Background(), 0))
	assert.Error(t, svc.MarkAsRead(context.Background(), -4))
}

func TestConcurrentProducers(t *testing.T) {
	const n = 40

	for name, tr := range transports(t) {
		t.Run(name, func(t *testing.T) {
			svc, m := newTestService(t, tr, nil)

			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					svc.Send(context.Background(), "Course", fmt.Sprint(i), "", model.OperationUpdate, "")
				}(i)
			}
			wg.Wait()

			assert.Equal(t, float64(n), testutil.ToFloat64(m.NotificationsSent.WithLabelValues("UPDATE")))

			seen := make(map[int64]bool)
			for i := 0; i < n; i++ {
				got := svc.Receive(context.Background())
				require.NotNil(t, got)
				seen[got.ID] = true
			}
			assert.Len(t, seen, n)
		})
	}
}
