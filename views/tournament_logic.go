package views

import (
	"github.com/AdamBeresnev/tournament-history/internal/history"
	"github.com/AdamBeresnev/tournament-history/internal/utils"
)

// TournamentView is a tournament flattened for templates.
type TournamentView struct {
	history.Tournament
	ImageURL    string
	UpdatedText string
	Podium      []Placement
}

type Placement struct {
	Rank  int
	Label string
	Name  string
}

func NewTournamentView(t history.Tournament, imageURL func(string) string) TournamentView {
	view := TournamentView{
		Tournament:  t,
		UpdatedText: utils.OrZero(t.UpdatedAt),
		Podium:      podium(t),
	}
	if t.HasImage() {
		view.ImageURL = imageURL(t.ImageName())
	}
	return view
}

func NewTournamentViews(tournaments []history.Tournament, imageURL func(string) string) []TournamentView {
	views := make([]TournamentView, 0, len(tournaments))
	for _, t := range tournaments {
		views = append(views, NewTournamentView(t, imageURL))
	}
	return views
}

// podium lists the filled placements in rank order.
func podium(t history.Tournament) []Placement {
	all := []Placement{
		{Rank: 1, Label: "優勝", Name: t.FirstPlace},
		{Rank: 2, Label: "準優勝", Name: t.SecondPlace},
		{Rank: 3, Label: "3位", Name: t.ThirdPlace},
	}
	placements := make([]Placement, 0, len(all))
	for _, p := range all {
		if p.Name != "" {
			placements = append(placements, p)
		}
	}
	return placements
}
