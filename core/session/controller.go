package session

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core"
	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core/nav"
)

var (
	// errors
	ErrBusy = errors.New("another authentication request is in progress")

	// user-facing messages
	msgInvalidCredentials = "Invalid email or password. Please try again."
	msgSessionExpired     = core.KindMessage(core.KindAuthentication)
	msgLoggedOut          = "You have been logged out."
)

type (
	// TokenStore is the durable home of the bearer token. Only the Controller writes it.
	TokenStore interface {
		Load(ctx context.Context) (string, error)
		Save(ctx context.Context, token string) error
		Clear(ctx context.Context) error
	}

	AuthAPI interface {
		Login(ctx context.Context, creds Credentials) (AuthResult, error)
		Register(ctx context.Context, nu NewUser) (AuthResult, error)
		Me(ctx context.Context, token string) (User, error)
	}

	// ReauthPrompter asks the user to sign in again after the session expired on a non-home page.
	ReauthPrompter interface {
		PromptReauth(from string)
	}

	// ReauthFunc adapts a plain function to ReauthPrompter.
	ReauthFunc func(from string)

	Deps struct {
		Store      TokenStore
		API        AuthAPI
		Notifier   core.Notifier
		Logger     core.Logger
		Router     nav.Router
		Reauth     ReauthPrompter // optional
		Validate   *validator.Validate
		Translator ut.Translator
		Durations  core.NotificationConfig
		HomePath   string
	}

	// Controller owns the AuthSession. All transitions go through its methods.
	Controller struct {
		deps Deps

		mu          sync.Mutex
		state       AuthSession
		initStarted bool
		subs        []*subscriber
		subSeq      int
	}

	subscriber struct {
		id int
		fn func(AuthSession)
	}

	// Option customizes Login and Register.
	Option func(*authOptions)

	authOptions struct {
		redirect string
	}
)

func (f ReauthFunc) PromptReauth(from string) { f(from) }

// WithRedirect asks for path to be opened once the authenticated role has settled.
func WithRedirect(path string) Option {
	return func(o *authOptions) {
		o.redirect = path
	}
}

func NewController(deps Deps) *Controller {
	if deps.HomePath == "" {
		deps.HomePath = nav.HomePath
	}
	if deps.Validate == nil || deps.Translator == nil {
		deps.Validate, deps.Translator = core.NewValidator()
		InitValidators(deps.Validate, deps.Translator)
	}
	return &Controller{deps: deps, state: defaultSession()}
}

// Snapshot returns a copy of the current session.
func (c *Controller) Snapshot() AuthSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Token returns the bearer token of the current session, if any.
func (c *Controller) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Token
}

func (c *Controller) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.IsAuthenticated()
}

// Subscribe registers fn to receive a snapshot after every transition, in registration order.
// The returned func unregisters it.
func (c *Controller) Subscribe(fn func(AuthSession)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subSeq++
	id := c.subSeq
	c.subs = append(c.subs, &subscriber{id: id, fn: fn})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

// Teardown drops every subscriber and restores the default session. The token store is left as is.
func (c *Controller) Teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = nil
	c.state = defaultSession()
	c.initStarted = false
}

// update applies fn under the lock and publishes the resulting snapshot.
func (c *Controller) update(fn func(s *AuthSession)) AuthSession {
	c.mu.Lock()
	fn(&c.state)
	snap := c.state.clone()
	subs := make([]*subscriber, len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, s := range subs {
		s.fn(snap.clone())
	}
	return snap
}

// Initialize validates the stored token once at startup. It never reports an error to the user.
func (c *Controller) Initialize(ctx context.Context) {
	c.mu.Lock()
	if c.initStarted {
		c.mu.Unlock()
		return
	}
	c.initStarted = true
	c.mu.Unlock()

	token, err := c.deps.Store.Load(ctx)
	if err != nil {
		c.logError("loading stored token", err)
		token = ""
	}

	settleGuest := func() {
		c.update(func(s *AuthSession) {
			// a login that completed meanwhile wins
			if s.Token == "" || s.Token == token {
				*s = s.signedOut()
			}
			s.IsInitialized = true
		})
	}

	if token == "" {
		settleGuest()
		return
	}
	if TokenExpired(token) {
		c.logDebug("stored token expired")
		c.clearStore(ctx)
		settleGuest()
		return
	}

	c.update(func(s *AuthSession) {
		if s.Token == "" {
			s.Token = token
		}
	})

	usr, err := c.deps.API.Me(ctx, token)
	if err != nil {
		c.logDebug("stored token rejected", err)
		if c.Token() == token {
			c.clearStore(ctx)
		}
		settleGuest()
		return
	}

	c.update(func(s *AuthSession) {
		if s.Token == token {
			s.setUser(usr)
		}
		s.IsInitialized = true
	})
}

// Login authenticates with creds. While another Login or Register is in flight it fails with ErrBusy.
func (c *Controller) Login(ctx context.Context, creds Credentials, opts ...Option) (User, error) {
	creds.Clean()
	if err := c.begin(); err != nil {
		return User{}, err
	}
	if err := c.validate(creds); err != nil {
		return User{}, c.fail(err)
	}

	res, err := c.deps.API.Login(ctx, creds)
	if err != nil {
		if apiErr := core.Classify(err); apiErr.Kind == core.KindAuthentication {
			err = &core.APIError{
				Kind:    apiErr.Kind,
				Status:  apiErr.Status,
				Code:    apiErr.Code,
				Message: msgInvalidCredentials,
				Err:     err,
			}
		}
		return User{}, c.fail(err)
	}

	c.succeed(ctx, res, opts...)
	c.notify(core.SeveritySuccess, fmt.Sprintf("Welcome back, %s!", res.User.DisplayName()))
	return res.User, nil
}

// Register creates an account and signs it in. The class group the backend assigned, if any,
// is returned as is and never stored in the session.
func (c *Controller) Register(ctx context.Context, nu NewUser, opts ...Option) (User, *AssignedClassGroup, error) {
	nu.Clean()
	if err := c.begin(); err != nil {
		return User{}, nil, err
	}
	if err := c.validate(nu); err != nil {
		return User{}, nil, c.fail(err)
	}

	res, err := c.deps.API.Register(ctx, nu)
	if err != nil {
		return User{}, nil, c.fail(err)
	}

	c.succeed(ctx, res, opts...)
	c.notify(core.SeveritySuccess, fmt.Sprintf("Welcome to the alumni community, %s!", res.User.DisplayName()))
	return res.User, res.AssignedClassGroup, nil
}

// NotifyAssignedClassGroup surfaces the class group a new alumnus was placed in.
func (c *Controller) NotifyAssignedClassGroup(group *AssignedClassGroup) {
	if group == nil || group.Name == "" {
		return
	}
	c.notify(core.SeverityInfo, fmt.Sprintf("You have been added to the %s class group.", group.Name))
}

// GetCurrentUser refreshes the user of a token-bearing session. A rejection signs the session out.
func (c *Controller) GetCurrentUser(ctx context.Context) (User, error) {
	token := c.Token()
	if token == "" {
		return User{}, &core.APIError{Kind: core.KindAuthentication, Status: http.StatusUnauthorized}
	}

	usr, err := c.deps.API.Me(ctx, token)
	if err != nil {
		c.logDebug("current user rejected", err)
		if c.Token() == token {
			c.clearStore(ctx)
			c.update(func(s *AuthSession) {
				*s = s.signedOut()
			})
		}
		return User{}, errors.Wrap(err, "fetching current user")
	}

	c.update(func(s *AuthSession) {
		if s.Token == token {
			s.setUser(usr)
		}
	})
	return usr, nil
}

// Logout signs the user out.
func (c *Controller) Logout(ctx context.Context) {
	c.clearStore(ctx)
	c.update(func(s *AuthSession) {
		*s = s.signedOut()
		s.Status = StatusIdle
		s.Error = ""
		s.PendingRedirect = ""
	})
	c.notify(core.SeverityInfo, msgLoggedOut)
}

// SessionExpired signs the user out after the backend rejected their token, and asks for
// re-authentication unless the user is on the home page.
func (c *Controller) SessionExpired(ctx context.Context) {
	c.clearStore(ctx)
	c.update(func(s *AuthSession) {
		*s = s.signedOut()
		s.Status = StatusIdle
		s.Error = msgSessionExpired
		s.PendingRedirect = ""
	})
	c.notify(core.SeverityWarning, msgSessionExpired)

	if c.deps.Reauth == nil || c.deps.Router == nil {
		return
	}
	if from := c.deps.Router.CurrentPath(); from != c.deps.HomePath {
		c.deps.Reauth.PromptReauth(from)
	}
}

// RequestRedirect stores path as the destination to open once the authenticated role settles.
func (c *Controller) RequestRedirect(path string) {
	c.update(func(s *AuthSession) {
		s.PendingRedirect = path
	})
}

func (c *Controller) clearPendingRedirect() {
	c.update(func(s *AuthSession) {
		s.PendingRedirect = ""
	})
}

func (c *Controller) begin() error {
	c.mu.Lock()
	if c.state.Status == StatusLoading {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state.Status = StatusLoading
	c.mu.Unlock()
	c.update(func(*AuthSession) {})
	return nil
}

func (c *Controller) validate(form interface{}) error {
	if err := c.deps.Validate.Struct(form); err != nil {
		return core.TranslateValidation(err, c.deps.Translator)
	}
	return nil
}

// fail records a failed Login or Register. User and token are left untouched.
func (c *Controller) fail(err error) error {
	msg := core.MapErrorToMessage(err)
	c.update(func(s *AuthSession) {
		s.Status = StatusFailed
		s.Error = msg
	})
	if kind := core.Classify(err).Kind; kind != core.KindAuthentication && kind != core.KindValidation {
		c.logError("authentication failed", err)
	}
	return err
}

func (c *Controller) succeed(ctx context.Context, res AuthResult, opts ...Option) {
	var o authOptions
	for _, opt := range opts {
		opt(&o)
	}

	if err := c.deps.Store.Save(ctx, res.Token); err != nil {
		// the session still works for this run
		c.logError("saving token", err, map[string]interface{}{"userId": res.User.ID})
	}

	c.update(func(s *AuthSession) {
		s.Token = res.Token
		s.setUser(res.User)
		s.Status = StatusSucceeded
		s.Error = ""
		s.IsInitialized = true
	})
	if o.redirect != "" {
		c.RequestRedirect(o.redirect)
	}
	c.logDebug("signed in", res.User)
}

func (c *Controller) clearStore(ctx context.Context) {
	if err := c.deps.Store.Clear(ctx); err != nil {
		c.logError("clearing stored token", err)
	}
}

func (c *Controller) notify(sev core.Severity, msg string) {
	if c.deps.Notifier == nil {
		return
	}
	c.deps.Notifier.Notify(core.Notification{
		Severity: sev,
		Message:  msg,
		Duration: c.deps.Durations.Duration(sev),
	})
}

func (c *Controller) logDebug(msg string, args ...interface{}) {
	if c.deps.Logger != nil {
		c.deps.Logger.Debug("session: "+msg, args...)
	}
}

func (c *Controller) logError(msg string, args ...interface{}) {
	if c.deps.Logger != nil {
		c.deps.Logger.Error("session: "+msg, args...)
	}
}
