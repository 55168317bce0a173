// Package filestore persists session state and the refresh cookie as JSON
// files readable only by the current user.
package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/campus-auth/session"
)

const (
	fileMode = 0o600
	dirMode  = 0o700
)

type Store struct {
	mu   sync.Mutex
	path string
}

var _ session.Store = (*Store)(nil)

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load() (session.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var state session.State
	if err := readJSON(s.path, &state); err != nil {
		return session.State{}, fmt.Errorf("[filestore.Load] %w", err)
	}
	return state, nil
}

func (s *Store) Save(state session.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeJSON(s.path, state); err != nil {
		return fmt.Errorf("[filestore.Save] %w", err)
	}
	return nil
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("[filestore.Clear] %w", err)
	}
	return nil
}

// readJSON leaves v untouched when the file does not exist
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// writeJSON writes through a temp file and rename so readers never see a
// partial file.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
