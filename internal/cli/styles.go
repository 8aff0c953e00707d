package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cinehub/cinehub/internal/domain"
)

// Color palette
var (
	CineRed   = lipgloss.Color("#E50914")
	DimGray   = lipgloss.Color("#6B7280")
	LightGray = lipgloss.Color("#9CA3AF")
	White     = lipgloss.Color("#F9FAFB")
	Green     = lipgloss.Color("#10B981")
	Red       = lipgloss.Color("#EF4444")
	Gold      = lipgloss.Color("#F59E0B")
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(CineRed)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)

	StarStyle = lipgloss.NewStyle().
			Foreground(Gold)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(CineRed).
			Bold(true).
			Padding(0, 1)

	ProfileBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(CineRed).
			Padding(0, 1)
)

// List membership markers
const (
	FavoriteChar = "♥"
	WatchedChar  = "✓"
)

// Stars renders a 1-5 rating, or nothing when unrated
func Stars(rating int) string {
	if !domain.ValidRating(rating) {
		return ""
	}
	return StarStyle.Render(strings.Repeat("★", rating)) +
		DimStyle.Render(strings.Repeat("☆", domain.MaxRating-rating))
}

// MovieLine renders one movie as a single list row
func MovieLine(m domain.Movie) string {
	var b strings.Builder

	b.WriteString(DimStyle.Render(fmt.Sprintf("%8d ", m.ID)))
	b.WriteString(TitleStyle.Render(m.Title))
	if year := m.Year(); year != "" {
		b.WriteString(SubtitleStyle.Render(" (" + year + ")"))
	}
	if m.IsFavorite() {
		b.WriteString(" " + AccentStyle.Render(FavoriteChar))
	}
	if m.IsWatched() {
		b.WriteString(" " + SuccessStyle.Render(WatchedChar))
	}
	if stars := Stars(m.Rating); stars != "" {
		b.WriteString(" " + stars)
	}
	return b.String()
}

// MovieDetail renders the full record of one movie
func MovieDetail(m domain.Movie) string {
	lines := []string{HeaderStyle.Render(m.Title)}
	if year := m.Year(); year != "" {
		lines = append(lines, SubtitleStyle.Render("Released "+m.ReleaseDate))
	}
	if m.VoteAverage > 0 {
		lines = append(lines, SubtitleStyle.Render(fmt.Sprintf("Score %.1f/10", m.VoteAverage)))
	}
	if m.Overview != "" {
		lines = append(lines, "", lipgloss.NewStyle().Width(72).Render(m.Overview))
	}
	if poster := m.PosterURL(); poster != "" {
		lines = append(lines, "", DimStyle.Render(poster))
	}
	return strings.Join(lines, "\n")
}

// ProfileCard renders the signed-in user
func ProfileCard(p *domain.UserProfile) string {
	rows := []string{
		TitleStyle.Render(p.DisplayName),
		p.Email,
	}
	if p.Phone != "" {
		rows = append(rows, SubtitleStyle.Render("Phone   "+p.Phone))
	}
	if p.Country != "" {
		rows = append(rows, SubtitleStyle.Render("Country "+p.Country))
	}
	if p.RegisteredAt != "" {
		rows = append(rows, DimStyle.Render("Member since "+p.RegisteredAt))
	}
	return ProfileBox.Render(strings.Join(rows, "\n"))
}
