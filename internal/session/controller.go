package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cinehub/cinehub/internal/api"
	"github.com/cinehub/cinehub/internal/cache"
	"github.com/cinehub/cinehub/internal/domain"
	"github.com/cinehub/cinehub/internal/service"
)

// Deps are the collaborators a Controller drives. Cache and Lists are
// optional; when set they are wiped on sign-out.
type Deps struct {
	Client    *api.Client
	Refresher *api.Refresher
	Tokens    domain.TokenStore
	Auth      *service.AuthService
	Cache     *cache.Store
	Lists     *service.ListService
	Logger    *slog.Logger
}

// Controller owns the current-user state. It starts in Loading and
// settles in Authenticated or Anonymous.
type Controller struct {
	client *api.Client
	tokens domain.TokenStore
	auth   *service.AuthService
	cache  *cache.Store
	lists  *service.ListService
	logger *slog.Logger

	mu       sync.RWMutex
	state    domain.Session
	epoch    uint64 // Bumped on every sign-in/sign-out; stale profile fetches are dropped
	initDone chan struct{}
	subs     map[int]func(domain.Session)
	nextSub  int
}

// NewController creates a controller in the Loading state and hooks it to
// the refresher so an expired session flips it to Anonymous.
func NewController(d Deps) *Controller {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		client: d.Client,
		tokens: d.Tokens,
		auth:   d.Auth,
		cache:  d.Cache,
		lists:  d.Lists,
		logger: logger,
		state:  domain.Session{Status: domain.StatusLoading},
		subs:   make(map[int]func(domain.Session)),
	}
	if d.Refresher != nil {
		d.Refresher.OnExpired(c.expired)
	}
	return c
}

// Session returns a snapshot of the current state
func (c *Controller) Session() domain.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// TokenExpiry reports when the current access token expires, if known
func (c *Controller) TokenExpiry() (time.Time, bool) {
	return api.TokenExpiry(c.client.AuthToken())
}

// Subscribe registers fn to receive every state change. The returned
// function removes the subscription.
func (c *Controller) Subscribe(fn func(domain.Session)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Init restores the persisted session. A stored profile is surfaced right
// away; when an access token exists the profile is refreshed in the
// background. The returned channel is closed once the state has settled.
// Calling Init again returns the same channel.
func (c *Controller) Init(ctx context.Context) <-chan struct{} {
	c.mu.Lock()
	if c.initDone != nil {
		done := c.initDone
		c.mu.Unlock()
		return done
	}
	done := make(chan struct{})
	c.initDone = done
	epoch := c.epoch
	c.mu.Unlock()

	access, err := c.tokens.AccessToken()
	if err != nil {
		c.logger.Error("failed to read stored token", "error", err)
		c.SignOut()
		close(done)
		return done
	}

	profile, err := c.tokens.Profile()
	if err != nil {
		// A corrupt snapshot only costs the optimistic display
		c.logger.Warn("failed to read stored profile", "error", err)
		profile = nil
	}

	if access == "" {
		c.logger.Debug("no stored session")
		c.SignOut()
		close(done)
		return done
	}

	c.client.SetAuthToken(access)
	if profile != nil {
		c.setIf(epoch, domain.Session{User: profile, Status: domain.StatusAuthenticated})
	}

	go func() {
		defer close(done)
		if err := c.RefreshUser(ctx); err != nil {
			c.logger.Warn("profile refresh at startup failed", "error", err)
		}
		// Offline with no stored profile: nothing to show yet. The stored
		// credentials are kept for the next run but not sent meanwhile.
		c.mu.Lock()
		loading := c.state.Status == domain.StatusLoading && c.epoch == epoch
		c.mu.Unlock()
		if loading {
			c.client.SetAuthToken("")
			c.setIf(epoch, domain.Session{Status: domain.StatusAnonymous})
		}
	}()
	return done
}

// SignIn replaces any stored session with a fresh one for email. On any
// failure the session is wiped and the classified error returned.
func (c *Controller) SignIn(ctx context.Context, email, password string) error {
	c.logger.Info("signing in", "email", email)

	c.wipe()
	epoch := c.currentEpoch()

	creds, err := c.auth.Login(ctx, email, password)
	if err != nil {
		return c.failSignIn(err)
	}
	if err := c.tokens.SaveCredentials(creds); err != nil {
		return c.failSignIn(domain.NewStorageError(err))
	}
	c.client.SetAuthToken(creds.AccessToken)

	profile, err := c.auth.Profile(ctx)
	if err != nil {
		return c.failSignIn(err)
	}
	if err := c.tokens.SaveProfile(profile); err != nil {
		return c.failSignIn(domain.NewStorageError(err))
	}

	if !c.setIf(epoch, domain.Session{User: profile, Status: domain.StatusAuthenticated}) {
		return domain.SessionExpired(errors.New("signed out during sign-in"))
	}

	c.logger.Info("signed in", "user_id", profile.ID)
	if c.lists != nil {
		if err := c.lists.Refresh(ctx); err != nil {
			c.logger.Warn("failed to load lists after sign-in", "error", err)
		}
	}
	return nil
}

// SignUp registers an account and then signs in with the same credentials
func (c *Controller) SignUp(ctx context.Context, reg domain.Registration) error {
	if _, err := c.auth.Register(ctx, reg); err != nil {
		c.logger.Warn("registration failed", "email", reg.Email, "error", err)
		c.SignOut()
		return err
	}
	return c.SignIn(ctx, reg.Email, reg.Password)
}

// SignOut wipes credentials, profile, cached responses and local lists and
// moves to Anonymous. It never fails and is safe to call repeatedly.
func (c *Controller) SignOut() {
	c.wipe()
	c.set(domain.Session{Status: domain.StatusAnonymous})
}

// RefreshUser re-fetches the profile. Only a 401 or an expired session
// signs the user out; other failures, 403 included, leave the current
// state alone.
func (c *Controller) RefreshUser(ctx context.Context) error {
	epoch := c.currentEpoch()

	profile, err := c.auth.Profile(ctx)
	if err != nil {
		if rejected(err) && c.currentEpoch() == epoch {
			c.logger.Info("profile refresh rejected, signing out", "error", err)
			c.SignOut()
		}
		return err
	}

	if !c.setIf(epoch, domain.Session{User: profile, Status: domain.StatusAuthenticated}) {
		c.logger.Debug("dropping profile from a previous session")
		return nil
	}
	if err := c.tokens.SaveProfile(profile); err != nil {
		c.logger.Error("failed to persist profile", "error", err)
	}
	return nil
}

// UpdateProfile sends the edited fields. On failure the previous profile
// stays in place.
func (c *Controller) UpdateProfile(ctx context.Context, upd domain.ProfileUpdate) error {
	if !c.Session().IsAuthenticated() {
		return &domain.Error{Kind: domain.ErrAuth, Message: "Sign in to edit your profile."}
	}
	epoch := c.currentEpoch()

	profile, err := c.auth.UpdateProfile(ctx, upd)
	if err != nil {
		if errors.Is(err, domain.ErrSessionExpired) {
			c.SignOut()
		}
		return err
	}

	if !c.setIf(epoch, domain.Session{User: profile, Status: domain.StatusAuthenticated}) {
		return nil
	}
	if err := c.tokens.SaveProfile(profile); err != nil {
		c.logger.Error("failed to persist profile", "error", err)
	}
	return nil
}

// expired runs after the refresher has already cleared the token store
// and the auth header
func (c *Controller) expired() {
	c.logger.Info("session expired")
	c.SignOut()
}

// rejected reports whether err means the credentials are no longer valid
func rejected(err error) bool {
	if errors.Is(err, domain.ErrSessionExpired) {
		return true
	}
	var de *domain.Error
	return errors.As(err, &de) && de.Status == http.StatusUnauthorized
}

func (c *Controller) failSignIn(err error) error {
	c.logger.Warn("sign-in failed", "error", err)
	c.SignOut()
	return domain.Classify(err)
}

// wipe clears every piece of session state except the published status
func (c *Controller) wipe() {
	c.mu.Lock()
	c.epoch++
	c.mu.Unlock()

	if err := c.tokens.Clear(); err != nil {
		c.logger.Error("failed to clear stored session", "error", err)
	}
	c.client.SetAuthToken("")
	if c.cache != nil {
		c.cache.Clear()
	}
	if c.lists != nil {
		c.lists.Reset()
	}
}

func (c *Controller) currentEpoch() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epoch
}

// set publishes s unconditionally
func (c *Controller) set(s domain.Session) {
	c.mu.Lock()
	changed := c.state != s
	c.state = s
	subs := c.subscribers()
	c.mu.Unlock()

	if changed {
		notify(subs, s)
	}
}

// setIf publishes s only if no sign-in/sign-out happened since epoch
func (c *Controller) setIf(epoch uint64, s domain.Session) bool {
	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return false
	}
	c.state = s
	subs := c.subscribers()
	c.mu.Unlock()

	notify(subs, s)
	return true
}

// subscribers must be called with mu held
func (c *Controller) subscribers() []func(domain.Session) {
	subs := make([]func(domain.Session), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(domain.Session), s domain.Session) {
	for _, fn := range subs {
		fn(s)
	}
}
