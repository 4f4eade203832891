package notification

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/university-api/internal/model"
	"github.com/jwalitptl/university-api/pkg/logger"
	"github.com/jwalitptl/university-api/pkg/messaging/memory"
)

type panickingSender struct{}

func (panickingSender) Send(context.Context, string, string, string, model.EntityOperation, string) {
	panic("sender exploded")
}

func TestEmitSendsAsSystem(t *testing.T) {
	svc, _ := newTestService(t, memory.New("test", 4), nil)
	e := NewEmitter(svc, nil)

	e.Emit(context.Background(), Event{
		EntityType:  "Department",
		EntityID:    "5",
		DisplayName: "Economics",
		Operation:   model.OperationUpdate,
	})

	n := svc.Receive(context.Background())
	require.NotNil(t, n)
	assert.Equal(t, "Department 'Economics' has been updated", n.Message)
	assert.Equal(t, model.SystemUser, n.CreatedBy)
}

func TestEmitAbsorbsPanics(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger(&logger.Config{Format: "json", Output: &buf})
	e := NewEmitter(panickingSender{}, log)

	assert.NotPanics(t, func() {
		e.Emit(context.Background(), Event{EntityType: "Course", EntityID: "1", Operation: model.OperationDelete})
	})
	assert.Contains(t, buf.String(), "sender exploded")
}

func TestNilEmitterIsSafe(t *testing.T) {
	var e *Emitter
	assert.NotPanics(t, func() {
		e.Emit(context.Background(), Event{EntityType: "Course", EntityID: "1"})
	})
}
