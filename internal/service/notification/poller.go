package notification

import (
	"context"
	"fmt"

	"github.com/jwalitptl/university-api/internal/model"
)

const DefaultBatchSize = 10

// Receiver is the consumer half of Service.
type Receiver interface {
	Receive(ctx context.Context) *model.Notification
}

// Poller drains up to a fixed number of pending notifications per call.
type Poller struct {
	receiver Receiver
	limit    int
}

func NewPoller(receiver Receiver, limit int) *Poller {
	if limit <= 0 {
		limit = DefaultBatchSize
	}
	return &Poller{receiver: receiver, limit: limit}
}

func (p *Poller) Limit() int {
	return p.limit
}

// Poll stops at the first empty receive or once the batch is full.
func (p *Poller) Poll(ctx context.Context) (batch []*model.Notification, err error) {
	defer func() {
		if r := recover(); r != nil {
			batch, err = nil, fmt.Errorf("poll notifications: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch = make([]*model.Notification, 0, p.limit)
	for len(batch) < p.limit {
		n := p.receiver.Receive(ctx)
		if n == nil {
			break
		}
		batch = append(batch, n)
	}
	return batch, nil
}
