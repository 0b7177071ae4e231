// Package auth resolves whether the current user is authenticated, trying
// the session cookie first, then the cached identity headers and finally a
// re-authentication token exchange.
package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/qrattend/internal/client/models"
	"github.com/dmitrijs2005/qrattend/internal/logging"
)

// State is the position of a Resolver in the fallback chain.
type State int

const (
	Unchecked State = iota
	CheckingCookie
	CheckingHeader
	ReAuthenticating
	Resolved
)

func (s State) String() string {
	return [...]string{"unchecked", "checking-cookie", "checking-header", "reauthenticating", "resolved"}[s]
}

// API is the part of the attendance API the resolver talks to.
type API interface {
	CheckAuth(ctx context.Context, ident *models.Identity) (*models.CheckAuthResponse, error)
	Reauth(ctx context.Context, userID string, role models.Role) (*models.ReauthResponse, error)
}

// IdentityStore is the local identity cache.
type IdentityStore interface {
	Load(ctx context.Context) (models.Identity, bool)
	Merge(ctx context.Context, p models.IdentityPatch) bool
	SetCredential(ctx context.Context, secret string) bool
}

// Resolver runs the fallback chain once for an expected role. After it has
// resolved, Resolve keeps returning the same Outcome without touching the
// network.
type Resolver struct {
	api      API
	cache    IdentityStore
	expected models.Role
	log      logging.Logger

	mu      sync.Mutex
	state   State
	outcome Outcome
}

func NewResolver(api API, cache IdentityStore, expected models.Role, log logging.Logger) *Resolver {
	if log == nil {
		log = logging.Nop()
	}
	return &Resolver{api: api, cache: cache, expected: expected, log: log.With("expected_role", expected.String())}
}

// State returns the current state.
func (r *Resolver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Resolver) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Resolve runs the chain. A call made while another one is running returns
// an Error outcome wrapping ErrResolveInProgress and issues no request.
func (r *Resolver) Resolve(ctx context.Context) Outcome {
	r.mu.Lock()
	switch r.state {
	case Resolved:
		o := r.outcome
		r.mu.Unlock()
		return o
	case Unchecked:
		r.state = CheckingCookie
		r.mu.Unlock()
	default:
		r.mu.Unlock()
		return failed(ErrResolveInProgress)
	}

	o := r.run(ctx)

	r.mu.Lock()
	r.state = Resolved
	r.outcome = o
	r.mu.Unlock()

	r.log.Debug(ctx, "auth resolved", "outcome", o.Kind.String(), "source", string(o.Source))
	return o
}

func (r *Resolver) run(ctx context.Context) Outcome {
	if o, done := r.checkCookie(ctx); done {
		return o
	}
	if err := ctx.Err(); err != nil {
		return failed(err)
	}

	r.setState(CheckingHeader)
	ident, ok := r.cache.Load(ctx)
	if !ok {
		return Outcome{Kind: Unauthenticated}
	}
	if o, done := r.checkHeader(ctx, ident); done {
		return o
	}
	if err := ctx.Err(); err != nil {
		return failed(err)
	}

	if !ident.Role.Matches(r.expected) {
		return Outcome{Kind: Unauthenticated}
	}
	r.setState(ReAuthenticating)
	return r.reauthenticate(ctx, ident)
}

// checkCookie asks the server with the ambient cookie only. A confirmed
// identity is merged into the cache.
func (r *Resolver) checkCookie(ctx context.Context) (Outcome, bool) {
	resp, err := r.api.CheckAuth(ctx, nil)
	if err != nil {
		r.log.Warn(ctx, "auth step failed", "step", "cookie", "err", err)
		return Outcome{}, false
	}
	if !resp.Authenticated {
		return Outcome{}, false
	}

	patch := resp.User.Patch()
	if patch.Role == nil || patch.UserID == nil {
		r.log.Warn(ctx, "auth step failed", "step", "cookie", "err", errors.New("response carries no usable identity"))
		return Outcome{}, false
	}
	if !patch.Role.Matches(r.expected) {
		return wrongRole(*patch.Role), true
	}

	r.cache.Merge(ctx, patch)
	return authenticated(patch.Apply(models.Identity{}), SourceCookie), true
}

// checkHeader repeats the check with the cached identity as fallback headers.
func (r *Resolver) checkHeader(ctx context.Context, ident models.Identity) (Outcome, bool) {
	resp, err := r.api.CheckAuth(ctx, &ident)
	if err != nil {
		r.log.Warn(ctx, "auth step failed", "step", "header", "err", err)
		return Outcome{}, false
	}
	if !resp.Authenticated {
		return Outcome{}, false
	}

	confirmed := resp.User.Patch().Apply(ident)
	if !confirmed.Role.Matches(r.expected) {
		return wrongRole(confirmed.Role), true
	}
	return authenticated(confirmed, SourceHeader), true
}

// reauthenticate exchanges the cached id and role for a fresh credential.
// Name fields and the role from the response refresh the cache; absent ones
// are kept. A reported role outside the expected one is WrongRole and stores
// no credential.
func (r *Resolver) reauthenticate(ctx context.Context, ident models.Identity) Outcome {
	resp, err := r.api.Reauth(ctx, ident.UserID, ident.Role)
	if err != nil {
		r.log.Warn(ctx, "auth step failed", "step", "token", "err", err)
		return Outcome{Kind: Unauthenticated}
	}

	full := resp.User.Patch()
	if full.Role != nil && !full.Role.Matches(r.expected) {
		return wrongRole(*full.Role)
	}
	refresh := models.IdentityPatch{Role: full.Role, FirstName: full.FirstName, LastName: full.LastName}
	r.cache.Merge(ctx, refresh)
	if resp.SessionID != "" {
		r.cache.SetCredential(ctx, resp.SessionID)
	}
	return authenticated(refresh.Apply(ident), SourceToken)
}
