package store

import (
	"context"

	"github.com/AdamBeresnev/tournament-history/internal/history"
)

// MemoryStore holds the encoded document in memory instead of on disk. Every
// Load returns a fresh copy, the same as re-reading a file would.
type MemoryStore struct {
	doc []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) ([]history.Tournament, error) {
	if m.doc == nil {
		return []history.Tournament{}, nil
	}
	return decode(m.doc)
}

func (m *MemoryStore) Save(_ context.Context, tournaments []history.Tournament) error {
	raw, err := encode(tournaments)
	if err != nil {
		return err
	}
	m.doc = raw
	return nil
}
