package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EntityOperation is the kind of mutation a notification reports. Values
// outside the three constants are carried through verbatim.
type EntityOperation string

const (
	OperationCreate EntityOperation = "CREATE"
	OperationUpdate EntityOperation = "UPDATE"
	OperationDelete EntityOperation = "DELETE"
)

// SystemUser is recorded as the author when no user name is supplied.
const SystemUser = "System"

// Notification is one entity-change event as it travels over the queue.
type Notification struct {
	ID                int64           `json:"id"`
	EntityType        string          `json:"entityType"`
	EntityID          string          `json:"entityId"`
	EntityDisplayName string          `json:"entityDisplayName,omitempty"`
	Operation         EntityOperation `json:"operation"`
	// Message is generated once at send time and never recomputed.
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
	IsRead    bool      `json:"isRead"`
}

// NewNotification builds an unread record and its message text.
func NewNotification(entityType, entityID, displayName string, op EntityOperation, createdBy string, now time.Time) *Notification {
	if strings.TrimSpace(createdBy) == "" {
		createdBy = SystemUser
	}
	return &Notification{
		EntityType:        entityType,
		EntityID:          entityID,
		EntityDisplayName: displayName,
		Operation:         op,
		Message:           FormatMessage(entityType, entityID, displayName, op),
		CreatedAt:         now,
		CreatedBy:         createdBy,
		IsRead:            false,
	}
}

// FormatMessage renders the human readable sentence for an entity change.
func FormatMessage(entityType, entityID, displayName string, op EntityOperation) string {
	displayText := fmt.Sprintf("%s (ID: %s)", entityType, entityID)
	if strings.TrimSpace(displayName) != "" {
		displayText = fmt.Sprintf("%s '%s'", entityType, displayName)
	}

	switch op {
	case OperationCreate:
		return fmt.Sprintf("New %s has been created", displayText)
	case OperationUpdate:
		return fmt.Sprintf("%s has been updated", displayText)
	case OperationDelete:
		return fmt.Sprintf("%s has been deleted", displayText)
	default:
		return fmt.Sprintf("%s operation: %s", displayText, op)
	}
}

// EncodeNotification produces the UTF-8 JSON wire form.
func EncodeNotification(n *Notification) ([]byte, error) {
	if n == nil {
		return nil, fmt.Errorf("nil notification")
	}
	b, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("failed to encode notification: %w", err)
	}
	return b, nil
}

// DecodeNotification parses the wire form. Unknown fields are ignored.
func DecodeNotification(b []byte) (*Notification, error) {
	var n Notification
	if err := json.Unmarshal(b, &n); err != nil {
		return nil, fmt.Errorf("failed to decode notification: %w", err)
	}
	return &n, nil
}
