// Package testutil provides an in-memory alumni backend for tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core"
	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core/event"
	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core/membership"
	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core/session"
)

const (
	BasePath   = "/api"
	contextKey = "userToken"
)

var (
	errUnauthorized   = echo.NewHTTPError(http.StatusUnauthorized, "Not authorized to access this route")
	errBadCredentials = echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	errForbidden      = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errNotFound       = echo.NewHTTPError(http.StatusNotFound, "not found")
)

type (
	// Fault makes the fake answer a route with a failure instead of serving it.
	Fault struct {
		Status  int
		Code    string
		Message string
		Drop    bool // close the connection without answering
		Times   int  // 0 means until cleared
	}

	// Claims represents the authorization claims transmitted via a JWT.
	Claims struct {
		jwt.StandardClaims
		Email   string `json:"email,omitempty"`
		IsAdmin bool   `json:"isAdmin,omitempty"`
	}

	fakeUser struct {
		session.User
		pwdHash []byte
	}

	// FakeAPI serves the alumni REST contract from memory.
	FakeAPI struct {
		Echo     *echo.Echo
		Server   *httptest.Server
		TokenTTL time.Duration

		secret []byte

		mu      sync.Mutex
		users   map[string]*fakeUser // by email
		groups  map[string]*membership.ClassGroup
		members map[string]map[string]bool // group id -> user ids
		events  map[string]event.Event
		faults  map[string]*Fault
		calls   []string
	}
)

// NewFakeAPI starts a fake backend. Close it when done.
func NewFakeAPI() *FakeAPI {
	f := &FakeAPI{
		Echo:     echo.New(),
		TokenTTL: time.Hour,
		secret:   []byte(uuid.New().String()),
		users:    make(map[string]*fakeUser),
		groups:   make(map[string]*membership.ClassGroup),
		members:  make(map[string]map[string]bool),
		events:   make(map[string]event.Event),
		faults:   make(map[string]*Fault),
	}
	f.setup()
	f.Server = httptest.NewServer(f.Echo)
	return f
}

// URL is the base URL clients should be configured with.
func (f *FakeAPI) URL() string {
	return f.Server.URL + BasePath
}

func (f *FakeAPI) Close() {
	f.Server.Close()
}

func (f *FakeAPI) setup() {
	e := f.Echo
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(log.OFF)
	e.HTTPErrorHandler = f.httpErrorHandler

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(f.recordMiddleware, f.faultMiddleware)

	jwtMw := middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    f.secret,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextKey,
		Claims:        new(Claims),
	})

	api := e.Group(BasePath)

	auth := api.Group("/auth")
	auth.POST("/login", f.login)
	auth.POST("/register", f.register)
	auth.GET("/me", f.me, jwtMw)

	groups := api.Group("/class-groups", jwtMw)
	groups.GET("", f.listGroups)
	groups.GET("/:id", f.getGroup)
	groups.POST("/:id/join", f.joinGroup)
	groups.POST("/:id/leave", f.leaveGroup)

	events := api.Group("/events")
	events.GET("", f.listEvents)
	events.GET("/:id", f.getEvent)
	events.POST("", f.createEvent, jwtMw, f.adminMiddleware)
	events.PUT("/:id", f.updateEvent, jwtMw, f.adminMiddleware)
	events.DELETE("/:id", f.deleteEvent, jwtMw, f.adminMiddleware)
}

// =========================================================================
// Fixtures

// AddUser creates an account and returns its profile.
func (f *FakeAPI) AddUser(usr session.User, password string) session.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(errors.Wrap(err, "hashing password"))
	}
	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	usr.Email = core.CleanString(usr.Email, true /* lower */)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[usr.Email] = &fakeUser{User: usr, pwdHash: hash}
	return usr
}

// AddGroup creates a class group. Its member count is kept as given plus actual members.
func (f *FakeAPI) AddGroup(g membership.ClassGroup) membership.ClassGroup {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	g.IsMember = false
	f.groups[g.ID] = &g
	f.members[g.ID] = make(map[string]bool)
	return g
}

// AddMember puts a user in a group without going through the API.
func (f *FakeAPI) AddMember(groupID, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g, ok := f.groups[groupID]; ok && !f.members[groupID][userID] {
		f.members[groupID][userID] = true
		g.MemberCount++
	}
}

func (f *FakeAPI) AddEvent(evt event.Event) event.Event {
	if evt.ID == "" {
		evt.ID = uuid.New().String()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[evt.ID] = evt
	return evt
}

// Group returns the server-side view of a group for userID.
func (f *FakeAPI) Group(id, userID string) (membership.ClassGroup, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[id]
	if !ok {
		return membership.ClassGroup{}, false
	}
	out := *g
	out.IsMember = f.members[id][userID]
	return out, true
}

// IssueToken signs a token for usr that expires after ttl (negative for an already expired one).
func (f *FakeAPI) IssueToken(usr session.User, ttl time.Duration) string {
	now := time.Now()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   usr.ID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
		Email:   usr.Email,
		IsAdmin: usr.IsAdmin,
	}
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(f.secret)
	if err != nil {
		panic(errors.Wrap(err, "signing token"))
	}
	return ss
}

// Fail installs a fault on method + path (relative to BasePath, e.g. "/class-groups/g1/join").
func (f *FakeAPI) Fail(method, path string, fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	flt := fault
	f.faults[method+" "+path] = &flt
}

func (f *FakeAPI) ClearFaults() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults = make(map[string]*Fault)
}

// Calls returns every request served so far as "METHOD path", path relative to BasePath.
func (f *FakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// =========================================================================
// Middleware

func routeKey(ctx echo.Context) string {
	return ctx.Request().Method + " " + strings.TrimPrefix(ctx.Request().URL.Path, BasePath)
}

func (f *FakeAPI) recordMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		f.mu.Lock()
		f.calls = append(f.calls, routeKey(ctx))
		f.mu.Unlock()
		return next(ctx)
	}
}

func (f *FakeAPI) faultMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		key := routeKey(ctx)

		f.mu.Lock()
		flt, ok := f.faults[key]
		var fault Fault
		if ok {
			fault = *flt
			if flt.Times > 0 {
				flt.Times--
				if flt.Times == 0 {
					delete(f.faults, key)
				}
			}
		}
		f.mu.Unlock()

		if !ok {
			return next(ctx)
		}
		if fault.Drop {
			conn, _, err := ctx.Response().Hijack()
			if err != nil {
				return errors.Wrap(err, "hijacking connection")
			}
			return conn.Close()
		}
		return ctx.JSON(fault.Status, echo.Map{
			"success": false,
			"message": fault.Message,
			"code":    fault.Code,
		})
	}
}

func (f *FakeAPI) adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := contextClaims(ctx)
		if err != nil {
			return err
		}
		if !claims.IsAdmin {
			return errForbidden
		}
		return next(ctx)
	}
}

func (f *FakeAPI) httpErrorHandler(err error, ctx echo.Context) {
	code := http.StatusInternalServerError
	msg := http.StatusText(code)

	switch origErr := errors.Cause(err).(type) {
	case *echo.HTTPError:
		code = origErr.Code
		if origErr == middleware.ErrJWTMissing {
			code = http.StatusUnauthorized
		}
		if m, ok := origErr.Message.(string); ok {
			msg = m
		}
	case *core.ValidationError:
		code = http.StatusBadRequest
		msg = origErr.Error()
	}

	if !ctx.Response().Committed {
		_ = ctx.JSON(code, echo.Map{"success": false, "message": msg})
	}
}

func contextClaims(ctx echo.Context) (*Claims, error) {
	if token, ok := ctx.Get(contextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return claims, nil
		}
	}
	return nil, errUnauthorized
}

func respond(ctx echo.Context, code int, data interface{}) error {
	return ctx.JSON(code, echo.Map{"success": true, "data": data})
}

// =========================================================================
// Auth

func (f *FakeAPI) authResult(usr session.User, group *membership.ClassGroup) session.AuthResult {
	res := session.AuthResult{Token: f.IssueToken(usr, f.TokenTTL), User: usr}
	if group != nil {
		res.AssignedClassGroup = &session.AssignedClassGroup{ID: group.ID, Name: group.Name, GraduationYear: group.GraduationYear}
	}
	return res
}

func (f *FakeAPI) login(ctx echo.Context) error {
	var creds session.Credentials
	if err := ctx.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	f.mu.Lock()
	usr, found := f.users[core.CleanString(creds.Email, true)]
	f.mu.Unlock()
	if !found || bcrypt.CompareHashAndPassword(usr.pwdHash, []byte(creds.Password)) != nil {
		return errBadCredentials
	}
	return respond(ctx, http.StatusOK, f.authResult(usr.User, nil))
}

func (f *FakeAPI) register(ctx echo.Context) error {
	var nu session.NewUser
	if err := ctx.Bind(&nu); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	nu.Clean()
	if nu.Email == "" || nu.Password == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "email", Error: "Please provide email and password"})
	}

	f.mu.Lock()
	_, exists := f.users[nu.Email]
	f.mu.Unlock()
	if exists {
		return echo.NewHTTPError(http.StatusBadRequest, "User already exists")
	}

	usr := f.AddUser(session.User{
		Email:          nu.Email,
		FirstName:      nu.FirstName,
		LastName:       nu.LastName,
		GraduationYear: nu.GraduationYear,
	}, nu.Password)

	var assigned *membership.ClassGroup
	f.mu.Lock()
	for _, g := range f.groups {
		if g.GraduationYear != 0 && g.GraduationYear == nu.GraduationYear {
			assigned = g
			break
		}
	}
	if assigned != nil {
		f.members[assigned.ID][usr.ID] = true
		assigned.MemberCount++
		usr.ClassGroupID = assigned.ID
		f.users[usr.Email].ClassGroupID = assigned.ID
	}
	f.mu.Unlock()

	return respond(ctx, http.StatusCreated, f.authResult(usr, assigned))
}

func (f *FakeAPI) currentUser(ctx echo.Context) (session.User, error) {
	claims, err := contextClaims(ctx)
	if err != nil {
		return session.User{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	usr, found := f.users[claims.Email]
	if !found || usr.ID != claims.Subject {
		return session.User{}, errUnauthorized
	}
	return usr.User, nil
}

func (f *FakeAPI) me(ctx echo.Context) error {
	usr, err := f.currentUser(ctx)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, usr)
}

// =========================================================================
// Class groups

func (f *FakeAPI) listGroups(ctx echo.Context) error {
	usr, err := f.currentUser(ctx)
	if err != nil {
		return err
	}
	f.mu.Lock()
	groups := make([]membership.ClassGroup, 0, len(f.groups))
	for id, g := range f.groups {
		out := *g
		out.IsMember = f.members[id][usr.ID]
		groups = append(groups, out)
	}
	f.mu.Unlock()
	sort.Slice(groups, func(i, j int) bool { return groups[i].GraduationYear > groups[j].GraduationYear })
	return respond(ctx, http.StatusOK, groups)
}

func (f *FakeAPI) getGroup(ctx echo.Context) error {
	usr, err := f.currentUser(ctx)
	if err != nil {
		return err
	}
	g, found := f.Group(ctx.Param("id"), usr.ID)
	if !found {
		return errNotFound
	}
	return respond(ctx, http.StatusOK, g)
}

func (f *FakeAPI) joinGroup(ctx echo.Context) error {
	return f.changeMembership(ctx, true)
}

func (f *FakeAPI) leaveGroup(ctx echo.Context) error {
	return f.changeMembership(ctx, false)
}

func (f *FakeAPI) changeMembership(ctx echo.Context, join bool) error {
	usr, err := f.currentUser(ctx)
	if err != nil {
		return err
	}
	id := ctx.Param("id")

	f.mu.Lock()
	defer f.mu.Unlock()
	g, found := f.groups[id]
	if !found {
		return errNotFound
	}
	isMember := f.members[id][usr.ID]
	switch {
	case join && isMember:
		return ctx.JSON(http.StatusBadRequest, echo.Map{
			"success": false, "message": "User is already a member of this class group", "code": core.CodeAlreadyMember,
		})
	case !join && !isMember:
		return ctx.JSON(http.StatusBadRequest, echo.Map{
			"success": false, "message": "User is not a member of this class group", "code": core.CodeNotMember,
		})
	case join:
		f.members[id][usr.ID] = true
		g.MemberCount++
	default:
		delete(f.members[id], usr.ID)
		if g.MemberCount > 0 {
			g.MemberCount--
		}
	}
	return respond(ctx, http.StatusOK, membership.Change{IsMember: &join, MemberCount: &g.MemberCount})
}

// =========================================================================
// Events

func (f *FakeAPI) listEvents(ctx echo.Context) error {
	category := ctx.QueryParam("category")
	search := strings.ToLower(ctx.QueryParam("search"))

	f.mu.Lock()
	events := make([]event.Event, 0, len(f.events))
	for _, evt := range f.events {
		if category != "" && evt.Category != category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(evt.Title), search) {
			continue
		}
		events = append(events, evt)
	}
	f.mu.Unlock()
	sort.Slice(events, func(i, j int) bool { return events[i].StartDate.Before(events[j].StartDate) })
	return respond(ctx, http.StatusOK, events)
}

func (f *FakeAPI) getEvent(ctx echo.Context) error {
	f.mu.Lock()
	evt, found := f.events[ctx.Param("id")]
	f.mu.Unlock()
	if !found {
		return errNotFound
	}
	return respond(ctx, http.StatusOK, evt)
}

func eventFromInput(id string, in event.Input) event.Event {
	return event.Event{
		ID:           id,
		Title:        in.Title,
		Description:  in.Description,
		Location:     in.Location,
		Category:     in.Category,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		IsPublished:  in.IsPublished,
		ClassGroupID: in.ClassGroupID,
	}
}

func (f *FakeAPI) createEvent(ctx echo.Context) error {
	var in event.Input
	if err := ctx.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	claims, _ := contextClaims(ctx)
	evt := eventFromInput(uuid.New().String(), in)
	evt.CreatedBy = claims.Subject
	return respond(ctx, http.StatusCreated, f.AddEvent(evt))
}

func (f *FakeAPI) updateEvent(ctx echo.Context) error {
	var in event.Input
	if err := ctx.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	id := ctx.Param("id")

	f.mu.Lock()
	defer f.mu.Unlock()
	prev, found := f.events[id]
	if !found {
		return errNotFound
	}
	evt := eventFromInput(id, in)
	evt.CreatedBy = prev.CreatedBy
	f.events[id] = evt
	return respond(ctx, http.StatusOK, evt)
}

func (f *FakeAPI) deleteEvent(ctx echo.Context) error {
	id := ctx.Param("id")
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, found := f.events[id]; !found {
		return errNotFound
	}
	delete(f.events, id)
	return ctx.NoContent(http.StatusNoContent)
}
