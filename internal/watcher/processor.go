package watcher

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/samvad-hq/samvad-board-client/internal/logger"
	"github.com/samvad-hq/samvad-board-client/internal/storage"
	"github.com/samvad-hq/samvad-board-client/pkg/api"
	"github.com/samvad-hq/samvad-board-client/pkg/boards"
	"github.com/samvad-hq/samvad-board-client/pkg/publishers"
)

// BoardProcessor runs one poll of a single board.
type BoardProcessor struct {
	publisher EventPublisher
	log       logger.Logger
	deduper   Deduper
}

// NewBoardProcessor wires the publishing and dedupe collaborators.
func NewBoardProcessor(pub EventPublisher, log logger.Logger, deduper Deduper) *BoardProcessor {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &BoardProcessor{publisher: pub, log: log, deduper: deduper}
}

// Process loads the board's theme settings, lists its events and publishes
// those that are visible and not yet delivered.
func (p *BoardProcessor) Process(ctx context.Context, board boards.Board, sess Session) error {
	if sess.Events == nil {
		return fmt.Errorf("board %s has no event source", board.ID)
	}

	statuses := p.displayedStatuses(ctx, board, sess.Settings)

	events, err := sess.Events.GetEvents(ctx)
	if err != nil {
		return fmt.Errorf("list events for board %s: %w", board.ID, err)
	}

	visible := filterByStatus(events, statuses)
	fresh := p.filterNewEvents(board, visible)

	p.log.InfoObj("board poll completed", "board_result", map[string]any{
		"board_id":       board.ID,
		"events_listed":  len(events),
		"events_visible": len(visible),
		"events_new":     len(fresh),
	})

	if len(fresh) == 0 || p.publisher == nil {
		return nil
	}
	return p.publishEvents(ctx, board, fresh)
}

// displayedStatuses returns the status allow-list, or nil when every status is
// shown. A failed settings load falls back to the defaults.
func (p *BoardProcessor) displayedStatuses(ctx context.Context, board boards.Board, store SettingsStore) []string {
	if store == nil {
		return nil
	}
	if err := store.Load(ctx); err != nil {
		p.log.WarnObj("theme settings load failed; using defaults", "board_settings_error", map[string]any{
			"board_id": board.ID,
			"error":    err.Error(),
		})
	}
	statuses, ok := store.Snapshot().DisplayedStatuses()
	if !ok || len(statuses) == 0 {
		return nil
	}
	return statuses
}

func filterByStatus(events []api.Event, statuses []string) []api.Event {
	if len(statuses) == 0 {
		return events
	}
	out := make([]api.Event, 0, len(events))
	for _, evt := range events {
		status := evt.Status()
		if status == "" || slices.Contains(statuses, status) {
			out = append(out, evt)
		}
	}
	return out
}

// filterNewEvents drops events without an id and those already delivered.
// Lookup failures keep the event so it is not lost.
func (p *BoardProcessor) filterNewEvents(board boards.Board, events []api.Event) []api.Event {
	out := make([]api.Event, 0, len(events))
	for _, evt := range events {
		id, ok := evt.ID()
		if !ok {
			p.log.DebugObj("event without id skipped", "board_event", map[string]any{
				"board_id": board.ID,
				"slug":     evt.Slug(),
			})
			continue
		}
		if p.deduper == nil {
			out = append(out, evt)
			continue
		}
		seen, err := p.deduper.SeenEvent(storage.EventKey(board.ID, id))
		if err != nil {
			p.log.WarnObj("dedupe lookup failed", "dedupe_error", map[string]any{
				"board_id": board.ID,
				"event_id": id,
				"error":    err.Error(),
			})
			out = append(out, evt)
			continue
		}
		if !seen {
			out = append(out, evt)
		}
	}
	return out
}

func (p *BoardProcessor) publishEvents(ctx context.Context, board boards.Board, events []api.Event) error {
	var errs []error
	for _, evt := range events {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}

		notice := publishers.NewEvent(board.ID, board.Name, evt, Summarize(evt.Description()))
		delivered, err := p.publisher.Publish(ctx, notice)
		if err != nil {
			errs = append(errs, fmt.Errorf("publish event %d of board %s: %w", notice.EventID, board.ID, err))
		}
		if delivered == 0 || p.deduper == nil {
			continue
		}
		if err := p.deduper.MarkEvent(storage.EventKey(board.ID, notice.EventID)); err != nil {
			errs = append(errs, fmt.Errorf("mark event %d of board %s: %w", notice.EventID, board.ID, err))
		}
	}
	return errors.Join(errs...)
}
