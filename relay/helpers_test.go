package relay_test

import (
	"context"
	"errors"
	"sync"

	"github.com/LubyRuffy/kanbanchat/board"
)

type memStore struct {
	mu        sync.Mutex
	inserted  []board.TaskInput
	insertErr error
}

func (s *memStore) Insert(ctx context.Context, in board.TaskInput) (*board.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	s.inserted = append(s.inserted, in)
	return &board.Task{
		ID:           "task-1",
		Title:        in.Title,
		Description:  in.Description,
		Status:       in.Status,
		Category:     in.Category,
		DueDate:      in.DueDate,
		TimeEstimate: in.TimeEstimate,
		Position:     in.Position,
	}, nil
}

func (s *memStore) List(ctx context.Context) ([]board.Task, error) {
	return nil, nil
}

func (s *memStore) Update(ctx context.Context, id string, u board.TaskUpdate) (*board.Task, error) {
	return nil, board.ErrNotFound
}

func (s *memStore) Delete(ctx context.Context, id string) error {
	return board.ErrNotFound
}

func (s *memStore) Reorder(ctx context.Context, status string, ids []string) error {
	return errors.New("not implemented")
}

func (s *memStore) Inserted() []board.TaskInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]board.TaskInput(nil), s.inserted...)
}
