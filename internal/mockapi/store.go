// Package mockapi is an in-memory stand-in for the skillbox backend, used by
// the mock-api command and by tests.
package mockapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/Makepad-fr/skillbox/internal/model"
)

// Data is the whole backend state; it is also the on-disk JSON layout.
type Data struct {
	Specifications []model.Specification `json:"specifications"`
	Requirements   []model.Requirement   `json:"requirements"`
	Tests          []model.Test          `json:"tests"`
}

// Store keeps Data in memory and, when a path is set, writes it back to a
// single human-readable JSON file after each change.
type Store struct {
	mu     sync.Mutex
	path   string
	data   Data
	nextID int64
}

// NewStore loads path if it exists. An empty path keeps everything in memory.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path, nextID: 1}
	if path == "" {
		return s, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	if err := json.Unmarshal(b, &s.data); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	for _, sp := range s.data.Specifications {
		if n, err := strconv.ParseInt(sp.ID.String(), 10, 64); err == nil && n >= s.nextID {
			s.nextID = n + 1
		}
	}
	return s, nil
}

// NewMemoryStore returns a store seeded with data and no backing file.
func NewMemoryStore(data Data) *Store {
	s, _ := NewStore("")
	s.data = data
	for _, sp := range data.Specifications {
		if n, err := strconv.ParseInt(sp.ID.String(), 10, 64); err == nil && n >= s.nextID {
			s.nextID = n + 1
		}
	}
	return s
}

func (s *Store) Specifications() []model.Specification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Specification(nil), s.data.Specifications...)
}

func (s *Store) Specification(id model.ID) (model.Specification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sp := range s.data.Specifications {
		if sp.ID.Equal(id) {
			return sp, true
		}
	}
	return model.Specification{}, false
}

func (s *Store) CreateSpecification(sp model.Specification) (model.Specification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp.ID = model.NumericID(s.nextID)
	prev := s.data.Specifications
	s.data.Specifications = append(append([]model.Specification(nil), prev...), sp)
	if err := s.save(); err != nil {
		s.data.Specifications = prev
		return model.Specification{}, err
	}
	s.nextID++
	return sp, nil
}

// UpdateSpecification replaces name and description; ok is false for an
// unknown id.
func (s *Store) UpdateSpecification(id model.ID, sp model.Specification) (model.Specification, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Specifications {
		if s.data.Specifications[i].ID.Equal(id) {
			sp.ID = s.data.Specifications[i].ID
			old := s.data.Specifications[i]
			s.data.Specifications[i] = sp
			if err := s.save(); err != nil {
				s.data.Specifications[i] = old
				return model.Specification{}, true, err
			}
			return sp, true, nil
		}
	}
	return model.Specification{}, false, nil
}

func (s *Store) Requirements() []model.Requirement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Requirement(nil), s.data.Requirements...)
}

func (s *Store) CreateTest(t model.Test) (model.Test, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = model.StringID(uuid.NewString())
	prev := s.data.Tests
	s.data.Tests = append(append([]model.Test(nil), prev...), t)
	if err := s.save(); err != nil {
		s.data.Tests = prev
		return model.Test{}, err
	}
	return t, nil
}

func (s *Store) Tests() []model.Test {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Test(nil), s.data.Tests...)
}

func (s *Store) save() error {
	if s.path == "" {
		return nil
	}
	b, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
