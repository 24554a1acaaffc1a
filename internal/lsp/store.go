package lsp

import "sync"

type Document struct {
	Text    string
	Version int32
}

// Store holds open documents. glsp may run handlers concurrently.
type Store struct {
	mu   sync.RWMutex
	docs map[string]Document // uri -> document
}

func NewStore() *Store {
	return &Store{docs: map[string]Document{}}
}

// Set stores text unless a newer version is already held.
func (s *Store) Set(uri, text string, version int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.docs[uri]; ok && version != 0 && cur.Version > version {
		return false
	}
	s.docs[uri] = Document{Text: text, Version: version}
	return true
}

func (s *Store) Get(uri string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[uri]
	return d.Text, ok
}

func (s *Store) Delete(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
