package publishers

import (
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/samvad-board-client/pkg/api"
)

// Event is the notice published downstream when a board shows a new event.
type Event struct {
	DeliveryID  string    `json:"delivery_id"`
	BoardID     string    `json:"board_id"`
	BoardName   string    `json:"board_name"`
	EventID     int64     `json:"event_id"`
	Slug        string    `json:"slug,omitempty"`
	Title       string    `json:"title,omitempty"`
	Status      string    `json:"status,omitempty"`
	Votes       *int64    `json:"votes,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	Payload     api.Event `json:"payload"`
	CollectedAt time.Time `json:"collected_at"`
}

// NewEvent builds a notice for evt as seen on the given board. summary is the
// plain text form of the event description.
func NewEvent(boardID, boardName string, evt api.Event, summary string) Event {
	id, _ := evt.ID()
	var votes *int64
	if n, ok := evt.Votes(); ok {
		votes = &n
	}
	return Event{
		DeliveryID:  uuid.NewString(),
		BoardID:     boardID,
		BoardName:   boardName,
		EventID:     id,
		Slug:        evt.Slug(),
		Title:       evt.Title(),
		Status:      evt.Status(),
		Votes:       votes,
		Summary:     summary,
		Payload:     evt,
		CollectedAt: time.Now().UTC(),
	}
}
