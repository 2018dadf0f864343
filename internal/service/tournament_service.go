package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/AdamBeresnev/tournament-history/internal/history"
	"github.com/AdamBeresnev/tournament-history/internal/store"
	"github.com/AdamBeresnev/tournament-history/internal/upload"
	"github.com/google/uuid"
)

// TournamentService reads the whole collection from the store on every call
// and writes it back after each change. It keeps no state between calls.
type TournamentService struct {
	store  store.Store
	images *upload.Images
	now    func() time.Time
}

func NewTournamentService(store store.Store, images *upload.Images) *TournamentService {
	return &TournamentService{store: store, images: images, now: time.Now}
}

// List returns every tournament, newest date first. Dates are compared as
// plain strings.
func (s *TournamentService) List(ctx context.Context) ([]history.Tournament, error) {
	tournaments, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tournaments, func(i, j int) bool {
		return tournaments[i].Date > tournaments[j].Date
	})
	return tournaments, nil
}

func (s *TournamentService) Get(ctx context.Context, id string) (*history.Tournament, error) {
	tournaments, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(tournaments, id)
	if i < 0 {
		return nil, ErrTournamentNotFound
	}
	return &tournaments[i], nil
}

func (s *TournamentService) Create(ctx context.Context, fields history.Fields, image *upload.File) (*history.Tournament, error) {
	fields = fields.Trimmed()
	if !fields.HasRequired() {
		return nil, &ValidationError{Message: RequiredFieldsMessage}
	}

	tournaments, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	bracketImage, err := s.images.Store(ctx, image)
	if err != nil {
		return nil, err
	}

	tournament := history.Tournament{
		ID:           uuid.NewString(),
		BracketImage: bracketImage,
		CreatedAt:    history.Timestamp(s.now()),
	}
	tournament.Apply(fields)

	tournaments = append(tournaments, tournament)
	if err := s.store.Save(ctx, tournaments); err != nil {
		return nil, fmt.Errorf("save new tournament: %w", err)
	}
	return &tournament, nil
}

// Update overwrites every text field, including required ones, with the
// submitted values. A new accepted image replaces the old one, which is
// deleted first and not restored if storing the new one fails.
func (s *TournamentService) Update(ctx context.Context, id string, fields history.Fields, image *upload.File) (*history.Tournament, error) {
	tournaments, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(tournaments, id)
	if i < 0 {
		return nil, ErrTournamentNotFound
	}

	tournament := &tournaments[i]
	tournament.Apply(fields.Trimmed())

	replaced, err := s.images.Replace(ctx, tournament.BracketImage, image)
	if err != nil {
		return nil, err
	}
	if replaced != nil {
		tournament.BracketImage = replaced
	}

	updatedAt := history.Timestamp(s.now())
	tournament.UpdatedAt = &updatedAt

	if err := s.store.Save(ctx, tournaments); err != nil {
		return nil, fmt.Errorf("save tournament %s: %w", id, err)
	}
	updated := *tournament
	return &updated, nil
}

func (s *TournamentService) Delete(ctx context.Context, id string) error {
	tournaments, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(tournaments, id)
	if i < 0 {
		return ErrTournamentNotFound
	}

	if err := s.images.Remove(ctx, tournaments[i].BracketImage); err != nil {
		return err
	}

	tournaments = append(tournaments[:i], tournaments[i+1:]...)
	if err := s.store.Save(ctx, tournaments); err != nil {
		return fmt.Errorf("delete tournament %s: %w", id, err)
	}
	return nil
}

// ImageURL returns where the browser can fetch a stored bracket image.
func (s *TournamentService) ImageURL(name string) string {
	return s.images.URL(name)
}

func indexOf(tournaments []history.Tournament, id string) int {
	for i := range tournaments {
		if tournaments[i].ID == id {
			return i
		}
	}
	return -1
}
