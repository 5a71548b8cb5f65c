// Package providers holds the reference descriptions of diagnostic codes
// that reporters publish as rule metadata.
package providers

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// CodeEntry describes one diagnostic code.
type CodeEntry struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// Help is a short remediation hint shown next to the rule.
	Help string `json:"help,omitempty"`
}

// CodeProvider looks up code descriptions.
type CodeProvider interface {
	GetCode(code string) (*CodeEntry, error)
}

// Define sentinel errors for better error handling by the caller.
var (
	ErrNotFound      = errors.New("code not found")
	ErrAlreadyExists = errors.New("code already exists")
	ErrInvalidInput  = errors.New("code and name cannot be empty")
)

// Store manages code entries in memory.
type Store struct {
	// RWMutex allows multiple concurrent readers or a single exclusive writer.
	mu    sync.RWMutex
	codes map[string]CodeEntry
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		codes: make(map[string]CodeEntry),
	}
}

// NewDefaultStore creates a store preloaded with the built-in codes.
func NewDefaultStore() *Store {
	s := NewStore()
	for _, e := range builtinCodes {
		// Built-in entries are valid and unique.
		_ = s.Add(e)
	}
	return s
}

func validateEntry(e CodeEntry) error {
	if e.Code == "" || e.Name == "" {
		return ErrInvalidInput
	}
	return nil
}

// Add adds a new entry to the store.
func (s *Store) Add(e CodeEntry) error {
	if err := validateEntry(e); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.codes[e.Code]; exists {
		return ErrAlreadyExists
	}

	s.codes[e.Code] = e
	return nil
}

// Get retrieves an entry by its code.
func (s *Store) Get(code string) (CodeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.codes[code]
	if !exists {
		return CodeEntry{}, ErrNotFound
	}

	return entry, nil
}

// GetCode implements CodeProvider. Unknown codes yield a generic entry
// instead of an error so reporting never fails on a new code.
func (s *Store) GetCode(code string) (*CodeEntry, error) {
	entry, err := s.Get(code)
	if errors.Is(err, ErrNotFound) {
		return &CodeEntry{
			Code:        code,
			Name:        fmt.Sprintf("%s (Details Not Found)", code),
			Description: "No description is registered for this diagnostic code.",
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns every entry, sorted by code for deterministic output.
func (s *Store) List() []CodeEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]CodeEntry, 0, len(s.codes))
	for _, e := range s.codes {
		list = append(list, e)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].Code < list[j].Code
	})

	return list
}

// Update replaces an existing entry.
func (s *Store) Update(e CodeEntry) error {
	if err := validateEntry(e); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.codes[e.Code]; !exists {
		return ErrNotFound
	}

	s.codes[e.Code] = e
	return nil
}

// Delete removes an entry by its code.
func (s *Store) Delete(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.codes[code]; !exists {
		return ErrNotFound
	}

	delete(s.codes, code)
	return nil
}
