package service

import (
	"context"
	"errors"
	"invest_edu_backend/internal/model"
	"sync"
	"sync/atomic"

	"github.com/stretchr/testify/mock"
)

// scriptedAI returns queued responses in order and counts calls.
type scriptedAI struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	prompts   []string
	opts      []CompletionOptions
	calls     atomic.Int32
}

func (f *scriptedAI) Complete(_ context.Context, prompt string, opts CompletionOptions) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.opts = append(f.opts, opts)

	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	if err != nil {
		return "", err
	}
	if len(f.responses) == 0 {
		return "", errors.New("no scripted response")
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func (f *scriptedAI) Calls() int { return int(f.calls.Load()) }

// mockAI is a testify mock for call-argument assertions.
type mockAI struct {
	mock.Mock
}

func (m *mockAI) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	args := m.Called(ctx, prompt, opts)
	return args.String(0), args.Error(1)
}

// flakyStore fails selected inserts and delegates everything else.
type flakyStore struct {
	CourseStore
	failModuleOrder map[int]bool
	failLessonTitle map[string]bool
	failUpdate      bool
	updates         atomic.Int32
}

func (s *flakyStore) InsertModule(ctx context.Context, m *model.Module) error {
	if s.failModuleOrder[m.OrderIndex] {
		return errors.New("insert module: disk full")
	}
	return s.CourseStore.InsertModule(ctx, m)
}

func (s *flakyStore) InsertLesson(ctx context.Context, l *model.Lesson) error {
	if s.failLessonTitle[l.Title] {
		return errors.New("insert lesson: constraint violation")
	}
	return s.CourseStore.InsertLesson(ctx, l)
}

func (s *flakyStore) UpdateLessonContent(ctx context.Context, lessonID, markdown string) error {
	s.updates.Add(1)
	if s.failUpdate {
		return errors.New("update lesson: connection reset")
	}
	return s.CourseStore.UpdateLessonContent(ctx, lessonID, markdown)
}
