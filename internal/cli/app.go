package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/cinehub/cinehub/internal/domain"
	"github.com/cinehub/cinehub/internal/search"
	"github.com/cinehub/cinehub/internal/service"
	"github.com/cinehub/cinehub/internal/session"
)

// ErrUsage is returned for an unknown command or bad arguments
var ErrUsage = errors.New("usage")

// App runs one CLI command against an initialized session
type App struct {
	session *session.Controller
	movies  *service.MovieService
	lists   *service.ListService
	prompt  *Prompter
	out     io.Writer
	logger  *slog.Logger
}

// NewApp creates an App writing its output to out
func NewApp(ctrl *session.Controller, movies *service.MovieService, lists *service.ListService, prompt *Prompter, out io.Writer, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		session: ctrl,
		movies:  movies,
		lists:   lists,
		prompt:  prompt,
		out:     out,
		logger:  logger,
	}
}

type command struct {
	usage string
	auth  bool // Requires a signed-in user
	run   func(a *App, ctx context.Context, args []string) error
}

// Usage strings referenced from inside commands
const (
	usageProfile  = "profile set <field>=<value>..."
	usageSearch   = "search <query> [page|all]"
	usageMovie    = "movie <id>"
	usageFavorite = "favorite <movieID>"
	usageWatch    = "watch <movieID>"
	usageRate     = "rate <movieID> <1-5>"
)

var commands = map[string]command{
	"login":     {usage: "login [email]", run: (*App).login},
	"register":  {usage: "register", run: (*App).register},
	"logout":    {usage: "logout", run: (*App).logout},
	"whoami":    {usage: "whoami", auth: true, run: (*App).whoami},
	"profile":   {usage: usageProfile, auth: true, run: (*App).profile},
	"popular":   {usage: "popular", run: (*App).popular},
	"releases":  {usage: "releases", run: (*App).releases},
	"search":    {usage: usageSearch, run: (*App).search},
	"movie":     {usage: usageMovie, run: (*App).movie},
	"favorites": {usage: "favorites [filter]", auth: true, run: (*App).favorites},
	"favorite":  {usage: usageFavorite, auth: true, run: (*App).toggleFavorite},
	"watched":   {usage: "watched [filter]", auth: true, run: (*App).watched},
	"watch":     {usage: usageWatch, auth: true, run: (*App).toggleWatched},
	"rate":      {usage: usageRate, auth: true, run: (*App).rate},
}

// Usage lists every command
func Usage() string {
	names := []string{
		"login", "register", "logout", "whoami", "profile",
		"popular", "releases", "search", "movie",
		"favorites", "favorite", "watched", "watch", "rate",
	}
	var b strings.Builder
	b.WriteString("Usage: cinehub <command> [args]\n\nCommands:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %s\n", commands[name].usage)
	}
	fmt.Fprintf(&b, "  %s\n", usageConfig)
	return b.String()
}

// Run dispatches args[0] to its command
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: no command given", ErrUsage)
	}

	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
	if cmd.auth && !a.session.Session().IsAuthenticated() {
		return &domain.Error{Kind: domain.ErrAuth, Message: "Not signed in. Run 'cinehub login' first."}
	}

	a.logger.Debug("running command", "command", args[0])
	return cmd.run(a, ctx, args[1:])
}

// === Account ===

func (a *App) login(ctx context.Context, args []string) error {
	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		var err error
		if email, err = a.prompt.Line("Email: "); err != nil {
			return err
		}
	}
	password, err := a.prompt.Password("Password: ")
	if err != nil {
		return err
	}

	if err := a.session.SignIn(ctx, email, password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, SuccessStyle.Render("Signed in as "+a.session.Session().User.Email))
	return nil
}

func (a *App) register(ctx context.Context, _ []string) error {
	var reg domain.Registration
	var err error
	if reg.Email, err = a.prompt.Line("Email: "); err != nil {
		return err
	}
	if reg.DisplayName, err = a.prompt.Line("Name: "); err != nil {
		return err
	}
	if reg.Password, err = a.prompt.Password("Password: "); err != nil {
		return err
	}

	if err := a.session.SignUp(ctx, reg); err != nil {
		return err
	}
	fmt.Fprintln(a.out, SuccessStyle.Render("Account created. Signed in as "+reg.Email))
	return nil
}

func (a *App) logout(_ context.Context, _ []string) error {
	a.session.SignOut()
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func (a *App) whoami(ctx context.Context, _ []string) error {
	if err := a.session.RefreshUser(ctx); err != nil && !errors.Is(err, domain.ErrNetwork) {
		return err
	}
	fmt.Fprintln(a.out, ProfileCard(a.session.Session().User))
	if exp, ok := a.session.TokenExpiry(); ok {
		fmt.Fprintln(a.out, DimStyle.Render("Access token valid until "+exp.Local().Format("2006-01-02 15:04")))
	}
	return nil
}

func (a *App) profile(ctx context.Context, args []string) error {
	if len(args) < 2 || args[0] != "set" {
		return fmt.Errorf("%w: %s", ErrUsage, usageProfile)
	}

	var upd domain.ProfileUpdate
	for _, kv := range args[1:] {
		field, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("%w: expected field=value, got %q", ErrUsage, kv)
		}
		switch field {
		case "name":
			upd.DisplayName = value
		case "email":
			upd.Email = value
		case "phone":
			upd.Phone = value
		case "country":
			upd.Country = value
		default:
			return fmt.Errorf("%w: unknown profile field %q (name, email, phone, country)", ErrUsage, field)
		}
	}

	if err := a.session.UpdateProfile(ctx, upd); err != nil {
		return err
	}
	fmt.Fprintln(a.out, ProfileCard(a.session.Session().User))
	return nil
}

// === Catalog ===

func (a *App) popular(ctx context.Context, _ []string) error {
	movies, err := a.movies.Popular(ctx)
	if err != nil {
		return err
	}
	a.printMovies("Popular", a.annotate(ctx, movies))
	return nil
}

func (a *App) releases(ctx context.Context, _ []string) error {
	movies, err := a.movies.Releases(ctx)
	if err != nil {
		return err
	}
	a.printMovies("New releases", a.annotate(ctx, movies))
	return nil
}

func (a *App) search(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: %s", ErrUsage, usageSearch)
	}

	page := 1
	query := strings.Join(args, " ")
	if len(args) > 1 {
		last := args[len(args)-1]
		if last == "all" {
			return a.searchAll(ctx, strings.Join(args[:len(args)-1], " "))
		}
		if n, err := strconv.Atoi(last); err == nil {
			page = n
			query = strings.Join(args[:len(args)-1], " ")
		}
	}

	result, err := a.movies.Search(ctx, query, page)
	if err != nil {
		return err
	}

	results := search.Rank(a.annotate(ctx, result.Results), query)
	a.printMovies(fmt.Sprintf("Results for %q", query), results)
	fmt.Fprintln(a.out, DimStyle.Render(fmt.Sprintf("Page %d of %d (%d results)", result.Page, result.TotalPages, result.TotalResults)))
	if result.HasMore() {
		fmt.Fprintln(a.out, DimStyle.Render(fmt.Sprintf("Next: cinehub search %s %d", query, result.Page+1)))
	}
	return nil
}

func (a *App) searchAll(ctx context.Context, query string) error {
	movies, err := a.movies.SearchAll(ctx, query, 0)
	if err != nil {
		return err
	}
	a.printMovies(fmt.Sprintf("All results for %q", query), search.Rank(a.annotate(ctx, movies), query))
	return nil
}

func (a *App) movie(ctx context.Context, args []string) error {
	id, err := movieID(args, usageMovie)
	if err != nil {
		return err
	}
	m, err := a.movies.Details(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, MovieDetail(m))
	return nil
}

// === Lists ===

func (a *App) favorites(ctx context.Context, args []string) error {
	return a.printList(ctx, domain.ListFavorites, strings.Join(args, " "))
}

func (a *App) watched(ctx context.Context, args []string) error {
	return a.printList(ctx, domain.ListWatched, strings.Join(args, " "))
}

func (a *App) toggleFavorite(ctx context.Context, args []string) error {
	m, err := a.resolve(ctx, args, usageFavorite)
	if err != nil {
		return err
	}
	updated, err := a.lists.ToggleFavorite(ctx, m)
	if err != nil {
		return err
	}
	if updated.IsFavorite() {
		fmt.Fprintln(a.out, SuccessStyle.Render("Added to favorites: ")+MovieLine(updated))
	} else {
		fmt.Fprintln(a.out, "Removed from favorites: "+MovieLine(updated))
	}
	return nil
}

func (a *App) toggleWatched(ctx context.Context, args []string) error {
	m, err := a.resolve(ctx, args, usageWatch)
	if err != nil {
		return err
	}
	updated, err := a.lists.ToggleWatched(ctx, m)
	if err != nil {
		return err
	}
	if updated.IsWatched() {
		fmt.Fprintln(a.out, SuccessStyle.Render("Marked as watched: ")+MovieLine(updated))
	} else {
		fmt.Fprintln(a.out, "Removed from watched: "+MovieLine(updated))
	}
	return nil
}

func (a *App) rate(ctx context.Context, args []string) error {
	usage := usageRate
	if len(args) != 2 {
		return fmt.Errorf("%w: %s", ErrUsage, usage)
	}
	rating, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUsage, usage)
	}

	m, err := a.resolve(ctx, args[:1], usage)
	if err != nil {
		return err
	}
	updated, err := a.lists.Rate(ctx, m, rating)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, SuccessStyle.Render("Rated: ")+MovieLine(updated))
	return nil
}

// === Helpers ===

// resolve finds the movie in the local lists so toggles see its entry
// ids, falling back to the catalog record
func (a *App) resolve(ctx context.Context, args []string, usage string) (domain.Movie, error) {
	id, err := movieID(args, usage)
	if err != nil {
		return domain.Movie{}, err
	}
	if err := a.lists.Refresh(ctx); err != nil {
		return domain.Movie{}, err
	}
	if m, ok := a.lookup(id); ok {
		return m, nil
	}
	return a.movies.Details(ctx, id)
}

// lookup merges what both lists know about a catalog id
func (a *App) lookup(id int) (domain.Movie, bool) {
	var out domain.Movie
	found := false
	for _, m := range a.lists.Favorites() {
		if m.ID == id {
			out, found = m, true
			break
		}
	}
	for _, m := range a.lists.Watched() {
		if m.ID == id {
			if !found {
				out = m
			}
			out.WatchedID, out.Rating = m.WatchedID, m.Rating
			found = true
			break
		}
	}
	return out, found
}

// annotate marks catalog movies that are already in a list. Anonymous
// users get the movies back unchanged.
func (a *App) annotate(ctx context.Context, movies []domain.Movie) []domain.Movie {
	if !a.session.Session().IsAuthenticated() {
		return movies
	}
	if err := a.lists.Refresh(ctx); err != nil {
		a.logger.Warn("skipping list markers", "error", err)
		return movies
	}
	for i, m := range movies {
		if known, ok := a.lookup(m.ID); ok {
			movies[i].FavoriteID = known.FavoriteID
			movies[i].WatchedID = known.WatchedID
			movies[i].Rating = known.Rating
		}
	}
	return movies
}

func (a *App) printList(ctx context.Context, kind domain.ListKind, filter string) error {
	if err := a.lists.Refresh(ctx); err != nil {
		return err
	}

	movies := a.lists.Filter(kind, filter)
	title := strings.ToUpper(kind.String()[:1]) + kind.String()[1:]
	if filter == "" || len(movies) > 0 {
		a.printMovies(title, movies)
		return nil
	}

	fmt.Fprintln(a.out, DimStyle.Render(fmt.Sprintf("Nothing in %s matches %q.", kind, filter)))
	all := a.lists.Filter(kind, "")
	titles := make([]string, len(all))
	for i, m := range all {
		titles[i] = m.Title
	}
	// Fall back to a looser per-word match
	for _, word := range strings.Fields(filter) {
		if suggestions := search.Suggest(word, titles); len(suggestions) > 0 {
			fmt.Fprintln(a.out, "Did you mean: "+strings.Join(suggestions, ", "))
			break
		}
	}
	return nil
}

func (a *App) printMovies(title string, movies []domain.Movie) {
	fmt.Fprintln(a.out, HeaderStyle.Render(title))
	if len(movies) == 0 {
		fmt.Fprintln(a.out, DimStyle.Render("  (empty)"))
		return
	}
	for _, m := range movies {
		fmt.Fprintln(a.out, MovieLine(m))
	}
}

func movieID(args []string, usage string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: %s", ErrUsage, usage)
	}
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: movie id must be a positive number, got %q", ErrUsage, args[0])
	}
	return id, nil
}
