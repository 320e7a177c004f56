// api/models/event.go
package models

import (
	"encoding/json"
	"time"
)

const EventTypeView = "view"

// ViewHeaders are the only request headers forwarded with a view. A nil
// field means the header was never sent and is encoded as JSON null.
type ViewHeaders struct {
	UserAgent    *string `json:"User-Agent"`
	ForwardedFor *string `json:"X-Forwarded-For"`
}

type ViewMetadata struct {
	Method  string      `json:"method"`
	Headers ViewHeaders `json:"headers"`
}

// ViewEvent is the record submitted to the analytics backend for every
// pixel load.
type ViewEvent struct {
	EventType string       `json:"eventType"`
	ID        string       `json:"id"`
	Metadata  ViewMetadata `json:"metadata"`
}

// StoredEvent is a ViewEvent as the backend persists it.
type StoredEvent struct {
	EventID   string
	Timestamp time.Time
	ViewEvent
}

// MetadataJSON encodes the metadata column.
func (e ViewEvent) MetadataJSON() (string, error) {
	b, err := json.Marshal(e.Metadata)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
