// Package media stages files attached to a report draft. Bytes stay in memory
// until the report is submitted and handed to an Uploader.
package media

import (
	"errors"
	"fmt"
	"sync"

	"github.com/couchcryptid/civic-report-service/internal/domain"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrClosed is returned when staging into a store that has been released.
var ErrClosed = errors.New("media store closed")

// File is a staged file with its bytes.
type File struct {
	Handle domain.FileHandle
	Data   []byte
}

// Store holds staged files for one draft.
type Store struct {
	mu     sync.Mutex
	files  map[string]File
	closed bool
}

func NewStore() *Store {
	return &Store{files: make(map[string]File)}
}

// Stage copies data into the store and returns its handle. The content type
// is sniffed from the bytes, not taken from the client.
func (s *Store) Stage(name string, data []byte) (domain.FileHandle, error) {
	if name == "" {
		name = "arquivo"
	}
	h := domain.FileHandle{
		ID:          uuid.NewString(),
		Name:        name,
		ContentType: mimetype.Detect(data).String(),
		Size:        int64(len(data)),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.FileHandle{}, ErrClosed
	}
	s.files[h.ID] = File{Handle: h, Data: append([]byte(nil), data...)}
	return h, nil
}

// Get returns a staged file.
func (s *Store) Get(id string) (File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return File{}, fmt.Errorf("staged file %q: %w", id, domain.ErrNotFound)
	}
	return f, nil
}

// Files returns the staged files for handles, in the order given.
func (s *Store) Files(handles []domain.FileHandle) ([]File, error) {
	out := make([]File, 0, len(handles))
	for _, h := range handles {
		f, err := s.Get(h.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Discard drops one staged file. Unknown ids are ignored.
func (s *Store) Discard(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, id)
}

// Len reports the number of staged files.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// Close releases every staged file. It is safe to call more than once.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = make(map[string]File)
	s.closed = true
}
