package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/AdamBeresnev/tournament-history/internal/history"
)

const DataFileName = "tournaments.json"

// Store loads and saves the whole tournament collection at once.
type Store interface {
	Load(ctx context.Context) ([]history.Tournament, error)
	Save(ctx context.Context, tournaments []history.Tournament) error
}

// TournamentStore keeps every tournament in a single JSON file. There is no
// locking: two concurrent Save calls race and the last one wins.
type TournamentStore struct {
	path string
}

func NewTournamentStore(dataDir string) (*TournamentStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data folder %s: %w", dataDir, err)
	}
	return &TournamentStore{path: filepath.Join(dataDir, DataFileName)}, nil
}

func (s *TournamentStore) Path() string {
	return s.path
}

func (s *TournamentStore) Load(ctx context.Context) ([]history.Tournament, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []history.Tournament{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return decode(raw)
}

func (s *TournamentStore) Save(ctx context.Context, tournaments []history.Tournament) error {
	raw, err := encode(tournaments)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

// decode keeps only the fields of history.Tournament; unknown keys are dropped.
func decode(raw []byte) ([]history.Tournament, error) {
	var tournaments []history.Tournament
	if err := json.Unmarshal(raw, &tournaments); err != nil {
		return nil, fmt.Errorf("decode tournaments: %w", err)
	}
	if tournaments == nil {
		tournaments = []history.Tournament{}
	}
	return tournaments, nil
}

// encode writes indented JSON and leaves non-ASCII text (and <, >, &) as is.
func encode(tournaments []history.Tournament) ([]byte, error) {
	if tournaments == nil {
		tournaments = []history.Tournament{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tournaments); err != nil {
		return nil, fmt.Errorf("encode tournaments: %w", err)
	}
	return buf.Bytes(), nil
}
