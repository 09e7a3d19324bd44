package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/samvad-hq/samvad-board-client/internal/logger"
	"github.com/samvad-hq/samvad-board-client/pkg/boards"
)

// Service coordinates polling across multiple boards.
type Service struct {
	newSession SessionFactory
	processor  *BoardProcessor
	log        logger.Logger

	mu       sync.Mutex
	sessions map[string]Session
}

// NewService wires a watcher with its per-board session factory.
func NewService(newSession SessionFactory, pub EventPublisher, log logger.Logger, deduper Deduper) *Service {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Service{
		newSession: newSession,
		processor:  NewBoardProcessor(pub, log, deduper),
		log:        log,
		sessions:   make(map[string]Session),
	}
}

// Run executes a poll pass over all boards, in order.
func (s *Service) Run(ctx context.Context, list []boards.Board) error {
	if s == nil || s.newSession == nil {
		return fmt.Errorf("watcher service is not initialized")
	}
	if len(list) == 0 {
		return fmt.Errorf("no boards configured for watching")
	}

	return errors.Join(s.runAll(ctx, list)...)
}

func (s *Service) runAll(ctx context.Context, list []boards.Board) []error {
	errs := make([]error, 0, len(list))

	for i, board := range list {
		if ctx.Err() != nil {
			return errs
		}

		if err := s.runBoard(ctx, board); err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("board poll failed", "board_error", map[string]any{
				"board_id": board.ID,
				"error":    err.Error(),
			})
		}

		if i < len(list)-1 && !sleep(ctx, board.RequestDelay()) {
			return errs
		}
	}

	return errs
}

func (s *Service) runBoard(ctx context.Context, board boards.Board) error {
	sess, err := s.session(board)
	if err != nil {
		return fmt.Errorf("open session for board %s: %w", board.ID, err)
	}
	return s.processor.Process(ctx, board, sess)
}

// session returns the cached session for board, building it on first use so
// the theme settings are fetched once per board.
func (s *Service) session(board boards.Board) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[board.ID]; ok {
		return sess, nil
	}
	sess, err := s.newSession(board)
	if err != nil {
		return Session{}, err
	}
	s.sessions[board.ID] = sess
	return sess, nil
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
