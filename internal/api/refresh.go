package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/cinehub/cinehub/internal/domain"
)

// RefreshPath is the token refresh endpoint
const RefreshPath = "/auth/token/refresh/"

var errNoRefreshToken = errors.New("no refresh token stored")

type waiter struct {
	req  *Request
	done chan refreshResult
}

type refreshResult struct {
	token string
	err   error
}

// Refresher recovers from expired access tokens. Concurrent 401s collapse
// into a single refresh call; callers that arrive while it is in flight
// wait in order and are settled in the same order once it completes.
type Refresher struct {
	client *Client
	tokens domain.TokenStore
	logger *slog.Logger

	mu         sync.Mutex
	refreshing bool
	waiters    []waiter
	onExpired  func()
}

// NewRefresher creates a refresher that mints tokens through client and
// persists them in tokens.
func NewRefresher(client *Client, tokens domain.TokenStore, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		client: client,
		tokens: tokens,
		logger: logger,
	}
}

// OnExpired registers fn to run after a failed refresh has wiped the session
func (r *Refresher) OnExpired(fn func()) {
	r.mu.Lock()
	r.onExpired = fn
	r.mu.Unlock()
}

// Refreshing reports whether a refresh call is in flight
func (r *Refresher) Refreshing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refreshing
}

// Wrap decorates next with refresh-on-401. Any other error passes through
// untouched, as does a 401 on a call that was already replayed once, that
// went out without a token, or that belongs to a session that has since
// ended.
func (r *Refresher) Wrap(next RequestFunc) RequestFunc {
	return func(ctx context.Context, req *Request) (json.RawMessage, error) {
		data, err := next(ctx, req)
		if err == nil || req.retried || req.Anonymous || req.sentToken == "" || !IsUnauthorized(err) {
			return data, err
		}

		r.mu.Lock()
		current, session := r.client.authState()
		if session != req.sentSession {
			r.mu.Unlock()
			r.logger.Debug("dropping 401 from a previous session", "path", req.Path)
			return data, err
		}

		if r.refreshing {
			wait := waiter{req: req, done: make(chan refreshResult, 1)}
			r.waiters = append(r.waiters, wait)
			r.mu.Unlock()

			r.logger.Debug("waiting for token refresh", "path", req.Path)
			select {
			case res := <-wait.done:
				if res.err != nil {
					return nil, res.err
				}
				return next(ctx, req.replay(res.token))
			case <-ctx.Done():
				return nil, domain.Classify(ctx.Err())
			}
		}

		// The token this call was sent with has already been replaced
		// by a refresh that finished in the meantime
		if current != "" && current != req.sentToken {
			r.mu.Unlock()
			return next(ctx, req.replay(current))
		}

		r.refreshing = true
		r.mu.Unlock()

		token, err := r.refresh(context.WithoutCancel(ctx), session)
		if err != nil {
			err = r.expire(err, session)
		}
		r.settle(refreshResult{token: token, err: err})

		if err != nil {
			return nil, err
		}
		return next(ctx, req.replay(token))
	}
}

// refresh performs the single refresh call and installs the new token
func (r *Refresher) refresh(ctx context.Context, session uint64) (string, error) {
	refreshToken, err := r.tokens.RefreshToken()
	if err != nil {
		return "", err
	}
	if refreshToken == "" {
		return "", errNoRefreshToken
	}

	r.logger.Info("refreshing access token")

	access, err := MintAccessToken(ctx, r.client.Do, refreshToken)
	if err != nil {
		return "", err
	}

	if !r.client.rotateAuthToken(session, access) {
		r.logger.Info("session changed during refresh, discarding token")
		return access, nil
	}
	if err := r.tokens.SaveAccessToken(access); err != nil {
		// The header still carries the new token for this process
		r.logger.Error("failed to persist refreshed token", "error", err)
	}
	return access, nil
}

// expire wipes the session after a failed refresh and returns the error
// every waiting caller will receive. A session that was replaced while the
// refresh was in flight is left alone.
func (r *Refresher) expire(cause error, session uint64) error {
	if !r.client.endSession(session) {
		r.logger.Info("token refresh failed for a previous session", "error", cause)
		return domain.SessionExpired(cause)
	}
	r.logger.Warn("token refresh failed, clearing session", "error", cause)

	if err := r.tokens.Clear(); err != nil {
		r.logger.Error("failed to clear session", "error", err)
	}

	r.mu.Lock()
	hook := r.onExpired
	r.mu.Unlock()
	if hook != nil {
		hook()
	}

	return domain.SessionExpired(cause)
}

// settle releases every queued caller in arrival order and returns to idle
func (r *Refresher) settle(res refreshResult) {
	r.mu.Lock()
	waiters := r.waiters
	r.waiters = nil
	r.refreshing = false
	r.mu.Unlock()

	for _, w := range waiters {
		r.logger.Debug("releasing queued request", "path", w.req.Path, "query", w.req.Query.Encode())
		w.done <- res
	}
}

// MintAccessToken exchanges a refresh token for a new access token.
// The call is anonymous, so a wrapped RequestFunc never recurses into
// another refresh.
func MintAccessToken(ctx context.Context, do RequestFunc, refreshToken string) (string, error) {
	body, err := do(ctx, &Request{
		Method:    http.MethodPost,
		Path:      RefreshPath,
		Body:      map[string]string{"refresh": refreshToken},
		Anonymous: true,
	})
	if err != nil {
		return "", err
	}

	var resp struct {
		Access string `json:"access"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", domain.NewValidationError("failed to parse refresh response: %v", err)
	}
	if resp.Access == "" {
		return "", domain.NewValidationError("refresh response has no access token")
	}
	return resp.Access, nil
}
