package search

import (
	"testing"

	"github.com/cinehub/cinehub/internal/domain"
)

func titles(movies []domain.Movie) []string {
	out := make([]string, len(movies))
	for i, m := range movies {
		out[i] = m.Title
	}
	return out
}

func TestRankOrdersByMatchQuality(t *testing.T) {
	movies := []domain.Movie{
		{ID: 1, Title: "The Batman"},
		{ID: 2, Title: "Superman"},
		{ID: 3, Title: "Batman Begins"},
		{ID: 4, Title: "Batman"},
	}

	got := titles(Rank(movies, "batman"))
	want := []string{"Batman", "Batman Begins", "The Batman", "Superman"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: expected %q got %q (%v)", i, want[i], got[i], got)
		}
	}
}

func TestRankKeepsOrderForEmptyQuery(t *testing.T) {
	movies := []domain.Movie{{ID: 1, Title: "B"}, {ID: 2, Title: "A"}}

	got := Rank(movies, "  ")
	if got[0].ID != 1 || got[1].ID != 2 {
		t.Fatalf("expected original order got %+v", got)
	}
}

func TestRankStableOnTies(t *testing.T) {
	movies := []domain.Movie{
		{ID: 1, Title: "Alien Resurrection"},
		{ID: 2, Title: "Alien Covenant"},
	}

	got := Rank(movies, "alien")
	if got[0].ID != 1 || got[1].ID != 2 {
		t.Fatalf("expected tie to keep backend order got %+v", got)
	}
}

func TestSuggest(t *testing.T) {
	got := Suggest("mtrx", []string{"Heat", "The Matrix", "Matrix Reloaded"})
	if len(got) != 2 {
		t.Fatalf("expected 2 suggestions got %v", got)
	}
	for _, s := range got {
		if s == "Heat" {
			t.Fatalf("unexpected suggestion %v", got)
		}
	}

	if Suggest("", []string{"Heat"}) != nil {
		t.Fatal("expected no suggestions for an empty query")
	}
}
