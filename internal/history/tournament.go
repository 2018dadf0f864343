package history

import (
	"strings"
	"time"
)

// TimestampLayout is the local ISO-8601 form used for created_at and updated_at.
const TimestampLayout = "2006-01-02T15:04:05.000000"

type Tournament struct {
	ID             string  `json:"id"`
	TournamentName string  `json:"tournament_name"`
	Date           string  `json:"date"`
	Organizer      string  `json:"organizer"`
	FirstPlace     string  `json:"first_place"`
	SecondPlace    string  `json:"second_place"`
	ThirdPlace     string  `json:"third_place"`
	Description    string  `json:"description"`
	BracketImage   *string `json:"bracket_image"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      *string `json:"updated_at,omitempty"`
}

func (t *Tournament) HasImage() bool {
	return t.BracketImage != nil && *t.BracketImage != ""
}

// ImageName returns the stored filename, or "" when no image is attached.
func (t *Tournament) ImageName() string {
	if t.BracketImage == nil {
		return ""
	}
	return *t.BracketImage
}

func (t *Tournament) Edited() bool {
	return t.UpdatedAt != nil
}

// Apply overwrites every text field. Required fields are not re-checked here.
func (t *Tournament) Apply(f Fields) {
	t.TournamentName = f.TournamentName
	t.Date = f.Date
	t.Organizer = f.Organizer
	t.FirstPlace = f.FirstPlace
	t.SecondPlace = f.SecondPlace
	t.ThirdPlace = f.ThirdPlace
	t.Description = f.Description
}

// Fields holds the text a user submits for a tournament.
type Fields struct {
	TournamentName string
	Date           string
	Organizer      string
	FirstPlace     string
	SecondPlace    string
	ThirdPlace     string
	Description    string
}

func (f Fields) Trimmed() Fields {
	return Fields{
		TournamentName: strings.TrimSpace(f.TournamentName),
		Date:           strings.TrimSpace(f.Date),
		Organizer:      strings.TrimSpace(f.Organizer),
		FirstPlace:     strings.TrimSpace(f.FirstPlace),
		SecondPlace:    strings.TrimSpace(f.SecondPlace),
		ThirdPlace:     strings.TrimSpace(f.ThirdPlace),
		Description:    strings.TrimSpace(f.Description),
	}
}

// HasRequired reports whether name, date, organizer and first place are all
// non-empty. Call it on trimmed fields.
func (f Fields) HasRequired() bool {
	return f.TournamentName != "" && f.Date != "" && f.Organizer != "" && f.FirstPlace != ""
}

func Timestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
