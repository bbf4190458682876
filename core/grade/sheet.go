package grade

import (
	"context"
	"sync"

	"github.com/trezcool/gradebook/core"
)

// Sheet is an in-memory view of the marks of one grade level and subject.
// It is safe for concurrent use.
type Sheet struct {
	svc        *Service
	gradeLevel string
	subject    string

	mu    sync.RWMutex
	marks []StudentMark
}

// OpenSheet loads the roster of gradeLevel and subject into a new Sheet.
func OpenSheet(ctx context.Context, svc *Service, gradeLevel, subject string) (*Sheet, error) {
	s := &Sheet{svc: svc, gradeLevel: core.CleanString(gradeLevel), subject: core.CleanString(subject)}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sheet) GradeLevel() string { return s.gradeLevel }
func (s *Sheet) Subject() string    { return s.subject }

// Reload replaces the view with a fresh roster. On failure the previous view is kept.
func (s *Sheet) Reload(ctx context.Context) error {
	marks, err := s.svc.LoadRoster(ctx, s.gradeLevel, s.subject)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.marks = marks
	s.mu.Unlock()
	return nil
}

// Marks returns a snapshot of the view.
func (s *Sheet) Marks() []StudentMark {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]StudentMark, len(s.marks))
	copy(out, s.marks)
	return out
}

// Get returns the entry of birthCertNumber.
func (s *Sheet) Get(birthCertNumber string) (StudentMark, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.marks {
		if m.BirthCertNumber == birthCertNumber {
			return m, true
		}
	}
	return StudentMark{}, false
}

// SaveMark writes the mark then updates the view in place.
// The write always runs to completion; when ctx is done by then, the view is left untouched and ctx.Err() returned.
// A birthCertNumber absent from the view only updates the store.
func (s *Sheet) SaveMark(ctx context.Context, birthCertNumber string, mu MarkUpdate) error {
	birthCertNumber = core.CleanString(birthCertNumber)
	if err := s.svc.SaveMark(context.WithoutCancel(ctx), s.gradeLevel, s.subject, birthCertNumber, mu); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.marks {
		if s.marks[i].BirthCertNumber == birthCertNumber {
			s.marks[i].apply(mu)
			return nil
		}
	}
	return nil
}
