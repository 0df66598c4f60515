package apisvc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core"
	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core/event"
	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core/membership"
	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core/session"
	"github.com/Burgess-GLAY/psdahs-alumni-sub001/testutil"
)

type staticToken string

func (t staticToken) Token() string { return string(t) }

var (
	ama = session.User{ID: "u-ama", Email: "ama@example.com", FirstName: "Ama", GraduationYear: 2010}
	adm = session.User{ID: "u-admin", Email: "admin@psdahs.org", IsAdmin: true}

	class2010 = membership.ClassGroup{ID: "g2010", Name: "Class of 2010", GraduationYear: 2010, MemberCount: 50}
)

func newTestClient(t *testing.T, token string) (*Client, *testutil.FakeAPI, *int) {
	t.Helper()
	fake := testutil.NewFakeAPI()
	t.Cleanup(fake.Close)
	fake.AddUser(ama, "Kente#2024x")
	fake.AddUser(adm, "Adinkra42")
	fake.AddGroup(class2010)

	unauthorized := 0
	c := NewClient(Options{BaseURL: fake.URL() + "/", Timeout: 5 * time.Second})
	c.SetTokenSource(staticToken(token), func() { unauthorized++ })
	return c, fake, &unauthorized
}

func requireKind(t *testing.T, err error, kind core.ErrorKind) *core.APIError {
	t.Helper()
	require.Error(t, err)
	apiErr, ok := err.(*core.APIError)
	require.True(t, ok, "error = %T %v, want *core.APIError", err, err)
	assert.Equal(t, kind, apiErr.Kind, "error = %v", err)
	return apiErr
}

func TestClient_Login(t *testing.T) {
	c, _, unauthorized := newTestClient(t, "")

	res, err := c.Login(context.Background(), session.Credentials{Email: ama.Email, Password: "Kente#2024x"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, ama.ID, res.User.ID)
	assert.Equal(t, "Ama", res.User.FirstName)

	_, err = c.Login(context.Background(), session.Credentials{Email: ama.Email, Password: "wrong"})
	apiErr := requireKind(t, err, core.KindAuthentication)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.Zero(t, *unauthorized, "auth endpoints never expire the session")
}

func TestClient_Register(t *testing.T) {
	c, fake, _ := newTestClient(t, "")

	res, err := c.Register(context.Background(), session.NewUser{
		FirstName:       "Kofi",
		LastName:        "Boateng",
		Email:           "kofi@example.com",
		Password:        "Adinkra42",
		PasswordConfirm: "Adinkra42",
		GraduationYear:  2010,
	})
	require.NoError(t, err)
	require.NotNil(t, res.AssignedClassGroup)
	assert.Equal(t, class2010.ID, res.AssignedClassGroup.ID)

	g, _ := fake.Group(class2010.ID, res.User.ID)
	assert.True(t, g.IsMember)
	assert.Equal(t, 51, g.MemberCount)

	_, err = c.Register(context.Background(), session.NewUser{Email: "kofi@example.com", Password: "Adinkra42"})
	apiErr := requireKind(t, err, core.KindValidation)
	assert.Equal(t, "User already exists", apiErr.Message)
}

func TestClient_Me(t *testing.T) {
	c, fake, unauthorized := newTestClient(t, "")

	usr, err := c.Me(context.Background(), fake.IssueToken(ama, time.Hour))
	require.NoError(t, err)
	assert.Equal(t, ama.Email, usr.Email)

	_, err = c.Me(context.Background(), fake.IssueToken(ama, -time.Hour))
	requireKind(t, err, core.KindAuthentication)
	assert.Zero(t, *unauthorized)
}

func TestClient_ClassGroups(t *testing.T) {
	c, fake, _ := newTestClient(t, "")
	c.SetTokenSource(staticToken(fake.IssueToken(ama, time.Hour)), nil)
	ctx := context.Background()

	groups, err := c.ListClassGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.False(t, groups[0].IsMember)

	ch, err := c.JoinClassGroup(ctx, class2010.ID)
	require.NoError(t, err)
	require.NotNil(t, ch.IsMember)
	require.NotNil(t, ch.MemberCount)
	assert.True(t, *ch.IsMember)
	assert.Equal(t, 51, *ch.MemberCount)

	_, err = c.JoinClassGroup(ctx, class2010.ID)
	apiErr := requireKind(t, err, core.KindConflict)
	assert.Equal(t, core.CodeAlreadyMember, apiErr.Code)

	g, err := c.GetClassGroup(ctx, class2010.ID)
	require.NoError(t, err)
	assert.True(t, g.IsMember)

	ch, err = c.LeaveClassGroup(ctx, class2010.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, *ch.MemberCount)

	_, err = c.LeaveClassGroup(ctx, class2010.ID)
	apiErr = requireKind(t, err, core.KindConflict)
	assert.Equal(t, core.CodeNotMember, apiErr.Code)

	assert.Equal(t, []string{
		"GET /class-groups",
		"POST /class-groups/g2010/join",
		"POST /class-groups/g2010/join",
		"GET /class-groups/g2010",
		"POST /class-groups/g2010/leave",
		"POST /class-groups/g2010/leave",
	}, fake.Calls())
}

func TestClient_failures(t *testing.T) {
	tests := []struct {
		name       string
		fault      testutil.Fault
		wantKind   core.ErrorKind
		wantUnauth int
	}{
		{name: "server error", fault: testutil.Fault{Status: http.StatusServiceUnavailable}, wantKind: core.KindServer},
		{name: "forbidden", fault: testutil.Fault{Status: http.StatusForbidden, Message: "permission denied"}, wantKind: core.KindAuthorization},
		{name: "dropped connection", fault: testutil.Fault{Drop: true}, wantKind: core.KindNetwork},
		{name: "expired session", fault: testutil.Fault{Status: http.StatusUnauthorized}, wantKind: core.KindAuthentication, wantUnauth: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, fake, unauthorized := newTestClient(t, "")
			c.SetTokenSource(staticToken(fake.IssueToken(ama, time.Hour)), func() { *unauthorized++ })
			fake.Fail(http.MethodPost, "/class-groups/g2010/join", tt.fault)

			_, err := c.JoinClassGroup(context.Background(), class2010.ID)
			apiErr := requireKind(t, err, tt.wantKind)
			assert.Equal(t, tt.wantKind.Retryable(), apiErr.Retryable())
			assert.Equal(t, tt.wantUnauth, *unauthorized)
		})
	}
}

func TestClient_unauthorizedWithoutToken(t *testing.T) {
	c, _, unauthorized := newTestClient(t, "")

	_, err := c.ListClassGroups(context.Background())
	requireKind(t, err, core.KindAuthentication)
	assert.Zero(t, *unauthorized, "a request without a token cannot expire a session")
}

func TestClient_Events(t *testing.T) {
	c, fake, _ := newTestClient(t, "")
	ctx := context.Background()
	start := time.Date(2026, time.December, 12, 18, 0, 0, 0, time.UTC)

	fake.AddEvent(event.Event{Title: "Homecoming", Category: event.CategoryReunion, StartDate: start, IsPublished: true})
	fake.AddEvent(event.Event{Title: "Career Webinar", Category: event.CategoryWebinar, StartDate: start.AddDate(0, 1, 0)})

	events, err := c.ListEvents(ctx, event.Filter{Category: event.CategoryReunion})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Homecoming", events[0].Title)

	in := event.Input{Title: "Gala", Category: event.CategoryFundraiser, StartDate: start}
	_, err = c.CreateEvent(ctx, in)
	requireKind(t, err, core.KindAuthentication)

	c.SetTokenSource(staticToken(fake.IssueToken(ama, time.Hour)), nil)
	_, err = c.CreateEvent(ctx, in)
	requireKind(t, err, core.KindAuthorization)

	c.SetTokenSource(staticToken(fake.IssueToken(adm, time.Hour)), nil)
	created, err := c.CreateEvent(ctx, in)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, adm.ID, created.CreatedBy)
	assert.True(t, created.StartDate.Equal(start))

	in.Title = "Annual Gala"
	updated, err := c.UpdateEvent(ctx, created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Annual Gala", updated.Title)

	got, err := c.GetEvent(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Annual Gala", got.Title)

	require.NoError(t, c.DeleteEvent(ctx, created.ID))
	_, err = c.GetEvent(ctx, created.ID)
	requireKind(t, err, core.KindUnknown)
}

func TestClient_headers(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"g1","name":"Class of 1999","memberCount":3}]`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Tokens: staticToken("tok")})
	groups, err := c.ListClassGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 3, groups[0].MemberCount)

	assert.Equal(t, "Bearer tok", got.Get("Authorization"))
	assert.Equal(t, "application/json", got.Get("Accept"))
	_, err = uuid.Parse(got.Get("X-Request-ID"))
	assert.NoError(t, err)
}
