// Package memory keeps uploaded objects in process memory. It backs the
// sqlite development flavor and unit tests.
package memory

import (
	"context"
	"errors"
	"sync"
)

type object struct {
	contentType string
	data        []byte
}

type Store struct {
	mu      sync.RWMutex
	objects map[string]object
}

func NewStore() *Store {
	return &Store{objects: make(map[string]object)}
}

func (s *Store) Upload(_ context.Context, objectPath, contentType string, data []byte) (string, error) {
	if objectPath == "" {
		return "", errors.New("object path is required")
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	s.objects[objectPath] = object{contentType: contentType, data: buf}
	s.mu.Unlock()

	return "memory://" + objectPath, nil
}

func (s *Store) Ping(context.Context) error {
	return nil
}

// Get returns a stored object, primarily for test assertions.
func (s *Store) Get(objectPath string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[objectPath]
	if !ok {
		return nil, "", false
	}
	return obj.data, obj.contentType, true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
