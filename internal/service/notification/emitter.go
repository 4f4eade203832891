package notification

import (
	"context"
	"fmt"

	"github.com/jwalitptl/university-api/internal/model"
	"github.com/jwalitptl/university-api/pkg/logger"
)

// Sender is the producer half of Service.
type Sender interface {
	Send(ctx context.Context, entityType, entityID, displayName string, op model.EntityOperation, userName string)
}

// Event describes a committed change to a domain entity.
type Event struct {
	EntityType  string
	EntityID    string
	DisplayName string
	Operation   model.EntityOperation
}

// Emitter is called by business services after a mutation has been committed.
type Emitter struct {
	sender Sender
	logger *logger.Logger
}

func NewEmitter(sender Sender, log *logger.Logger) *Emitter {
	if log == nil {
		log = logger.NewNop()
	}
	return &Emitter{sender: sender, logger: log}
}

// Emit hands ev to the sender. Nothing it does can fail the caller; a nil
// Emitter drops the event.
func (e *Emitter) Emit(ctx context.Context, ev Event) {
	if e == nil || e.sender == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error(fmt.Errorf("panic: %v", r), "notification emit failed",
				"entity_type", ev.EntityType, "entity_id", ev.EntityID, "operation", string(ev.Operation))
		}
	}()

	e.sender.Send(ctx, ev.EntityType, ev.EntityID, ev.DisplayName, ev.Operation, model.SystemUser)
}
