package watcher

import (
	"context"

	"github.com/samvad-hq/samvad-board-client/pkg/api"
	"github.com/samvad-hq/samvad-board-client/pkg/boards"
	"github.com/samvad-hq/samvad-board-client/pkg/publishers"
	"github.com/samvad-hq/samvad-board-client/pkg/themesettings"
)

// EventSource lists the events currently shown on a board.
type EventSource interface {
	GetEvents(ctx context.Context) ([]api.Event, error)
}

// SettingsStore exposes the board's theme settings.
type SettingsStore interface {
	Load(ctx context.Context) error
	Snapshot() themesettings.ThemeSettings
}

// Session is the per-board pair of API client and theme settings store.
type Session struct {
	Events   EventSource
	Settings SettingsStore
}

// SessionFactory builds the session for a board. It is called once per board.
type SessionFactory func(board boards.Board) (Session, error)

// EventPublisher publishes notices downstream and reports how many sinks
// accepted them.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper remembers delivered events.
type Deduper interface {
	SeenEvent(key string) (bool, error)
	MarkEvent(key string) error
}
