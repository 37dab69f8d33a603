package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/gig_board/internal/domain"
	"github.com/Skotchmaster/gig_board/internal/events"
	"github.com/Skotchmaster/gig_board/internal/moderation"
	"github.com/Skotchmaster/gig_board/internal/ratelimit"
	"github.com/Skotchmaster/gig_board/internal/repo"
	"github.com/Skotchmaster/gig_board/internal/repo/repotest"
	"github.com/Skotchmaster/gig_board/internal/search"
	"github.com/Skotchmaster/gig_board/internal/service"
	"github.com/Skotchmaster/gig_board/internal/transport"
	"github.com/Skotchmaster/gig_board/pkg/tokens"
	"github.com/Skotchmaster/gig_board/pkg/util"
)

const adminKey = "test-admin-key"

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type server struct {
	e      *echo.Echo
	events *events.Memory
	now    time.Time
}

func newServer(t *testing.T, throttle int) *server {
	t.Helper()

	srv := &server{events: &events.Memory{}, now: t0}
	clock := func() time.Time { return srv.now }

	r := &repo.GormRepo{DB: repotest.NewDB(t)}
	limiter := ratelimit.New()
	filter := moderation.NewFilter(moderation.DefaultTerms())

	issuer, err := tokens.NewIssuer([]byte("test-jwt-secret"), 30*time.Minute)
	require.NoError(t, err)
	guard, err := service.NewAdminGuard(adminKey)
	require.NoError(t, err)

	authSvc := &service.AuthService{Users: r, Tokens: issuer, Now: clock}
	gigSvc := &service.GigService{
		Gigs:        r,
		Lifecycle:   domain.NewLifecycle(3),
		Filter:      filter,
		PostLimit:   &ratelimit.Policy{Limiter: limiter, Name: "gig_post", Max: 3, Window: time.Hour, Now: clock},
		ReportLimit: &ratelimit.Policy{Limiter: limiter, Name: "report", Max: 1, Window: 24 * time.Hour, Now: clock},
		Events:      srv.events,
		Index:       search.Disabled{},
		Now:         clock,
	}

	deps := &Deps{
		AuthHandler:  &AuthHTTP{Svc: authSvc},
		GigHandler:   &GigHTTP{Svc: gigSvc},
		AdminHandler: &AdminHTTP{Svc: gigSvc},
		InteractionHandler: &InteractionHTTP{
			Messages: &service.MessageService{Gigs: r, Messages: r, Filter: filter, Events: srv.events, Now: clock},
			Reviews:  &service.ReviewService{Gigs: r, Reviews: r, Filter: filter, Events: srv.events, Now: clock},
		},
		Auth:       authSvc,
		AdminGuard: guard,
	}
	if throttle > 0 {
		deps.APIThrottle = &ratelimit.Policy{Limiter: limiter, Name: "api", Max: throttle, Window: time.Minute, Now: clock}
	}

	e := echo.New()
	e.IPExtractor = echo.ExtractIPDirect()
	Register(e, deps)
	srv.e = e
	return srv
}

type call struct {
	method string
	path   string
	body   any
	token  string
	apiKey string
	ip     string
}

func (s *server) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	switch b := c.body.(type) {
	case nil:
		req = httptest.NewRequest(c.method, c.path, nil)
	case url.Values:
		req = httptest.NewRequest(c.method, c.path, strings.NewReader(b.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		req = httptest.NewRequest(c.method, c.path, bytes.NewReader(raw))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if c.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+c.token)
	}
	if c.apiKey != "" {
		req.Header.Set(HeaderAPIKey, c.apiKey)
	}
	ip := c.ip
	if ip == "" {
		ip = "192.0.2.10"
	}
	req.RemoteAddr = ip + ":40000"

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *server) register(t *testing.T, name string) {
	t.Helper()
	rec := s.do(t, call{method: http.MethodPost, path: "/api/users/register", body: transport.RegisterRequest{
		Username: name, Email: name + "@example.com", Password: "Secret123",
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *server) login(t *testing.T, name string) string {
	t.Helper()
	rec := s.do(t, call{method: http.MethodPost, path: "/api/token", body: url.Values{
		"username": {name}, "password": {"Secret123"},
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tok := decode[transport.TokenResponse](t, rec)
	require.Equal(t, "bearer", tok.TokenType)
	return tok.AccessToken
}

func (s *server) postGig(t *testing.T, token, title string) transport.GigResponse {
	t.Helper()
	rec := s.do(t, call{method: http.MethodPost, path: "/api/gigs", token: token, body: transport.CreateGigRequest{
		Title: title, GigType: "ODD_JOB", Suburb: "Fitzroy", Details: "Saturday morning",
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[transport.GigResponse](t, rec)
}

type listBody struct {
	Data []transport.GigResponse `json:"data"`
	Meta struct {
		Page    int   `json:"page"`
		Total   int64 `json:"total"`
		HasNext bool  `json:"has_next"`
	} `json:"meta"`
}

func TestHealth(t *testing.T) {
	t.Parallel()

	s := newServer(t, 0)
	assert.Equal(t, http.StatusOK, s.do(t, call{method: http.MethodGet, path: "/health/live"}).Code)
	assert.Equal(t, http.StatusOK, s.do(t, call{method: http.MethodGet, path: "/health/ready"}).Code)
}

func TestAuthFlow(t *testing.T) {
	t.Parallel()

	s := newServer(t, 0)
	s.register(t, "alice")

	rec := s.do(t, call{method: http.MethodPost, path: "/api/users/register", body: transport.RegisterRequest{
		Username: "alice", Email: "x@example.com", Password: "x",
	}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, call{method: http.MethodPost, path: "/api/users/register", body: transport.RegisterRequest{
		Username: "carol", Email: "not-an-email", Password: "x",
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, call{method: http.MethodPost, path: "/api/token", body: url.Values{
		"username": {"alice"}, "password": {"wrong"},
	}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))

	token := s.login(t, "alice")

	rec = s.do(t, call{method: http.MethodPost, path: "/api/token", body: transport.TokenRequest{Username: "alice", Password: "Secret123"}})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, call{method: http.MethodGet, path: "/api/gigs/me", token: token})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, call{method: http.MethodGet, path: "/api/gigs/me"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, call{method: http.MethodGet, path: "/api/gigs/me", token: token + "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	s.now = t0.Add(30 * time.Minute)
	rec = s.do(t, call{method: http.MethodGet, path: "/api/gigs/me", token: token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestModerationRoundTrip(t *testing.T) {
	t.Parallel()

	s := newServer(t, 0)
	s.register(t, "alice")
	s.register(t, "bob")
	alice := s.login(t, "alice")
	bob := s.login(t, "bob")

	rec := s.do(t, call{method: http.MethodPost, path: "/api/gigs", body: transport.CreateGigRequest{Title: "x"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	gig := s.postGig(t, alice, "Paint the fence")
	assert.Equal(t, "LIVE", gig.Status)
	assert.Equal(t, "alice", gig.OwnerUsername)
	gigPath := "/api/gigs/" + itoa(gig.ID)

	for i, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		rec := s.do(t, call{method: http.MethodPost, path: gigPath + "/report", ip: ip})
		require.Equal(t, http.StatusOK, rec.Code, "report %d", i+1)
		assert.Equal(t, "Gig reported successfully", decode[transport.MessageResult](t, rec).Message)
	}

	rec = s.do(t, call{method: http.MethodPost, path: gigPath + "/report", ip: "10.0.0.1"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	assert.Equal(t, http.StatusNotFound, s.do(t, call{method: http.MethodGet, path: gigPath}).Code)
	list := decode[listBody](t, s.do(t, call{method: http.MethodGet, path: "/api/gigs"}))
	assert.Empty(t, list.Data)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, call{method: http.MethodGet, path: "/api/admin/flagged"}).Code)
	rec = s.do(t, call{method: http.MethodGet, path: "/api/admin/flagged", apiKey: adminKey})
	require.Equal(t, http.StatusOK, rec.Code)
	flagged := decode[listBody](t, rec)
	require.Len(t, flagged.Data, 1)
	assert.Equal(t, "FLAGGED", flagged.Data[0].Status)
	assert.Equal(t, 3, flagged.Data[0].ReportCount)

	approvePath := "/api/admin/gigs/" + itoa(gig.ID) + "/approve"
	assert.Equal(t, http.StatusUnauthorized, s.do(t, call{method: http.MethodPost, path: approvePath}).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, call{method: http.MethodPost, path: approvePath, apiKey: "guess"}).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, call{method: http.MethodPost, path: approvePath, token: alice}).Code)

	rec = s.do(t, call{method: http.MethodPost, path: approvePath, apiKey: adminKey})
	require.Equal(t, http.StatusOK, rec.Code)
	approved := decode[transport.GigResponse](t, rec)
	assert.Equal(t, "LIVE", approved.Status)
	assert.Zero(t, approved.ReportCount)

	assert.Equal(t, http.StatusOK, s.do(t, call{method: http.MethodGet, path: gigPath}).Code)

	assert.Equal(t, http.StatusForbidden, s.do(t, call{method: http.MethodPost, path: gigPath + "/complete", token: bob}).Code)
	rec = s.do(t, call{method: http.MethodPost, path: gigPath + "/complete", token: alice})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "COMPLETED", decode[transport.GigResponse](t, rec).Status)

	assert.Equal(t, http.StatusNotFound, s.do(t, call{method: http.MethodPost, path: gigPath + "/report", ip: "10.0.0.9"}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, call{method: http.MethodPost, path: gigPath + "/complete", token: alice}).Code)
	assert.Equal(t, http.StatusConflict, s.do(t, call{method: http.MethodPost, path: approvePath, apiKey: adminKey}).Code)
	assert.Equal(t, http.StatusConflict, s.do(t, call{method: http.MethodDelete, path: "/api/admin/gigs/" + itoa(gig.ID), apiKey: adminKey}).Code)

	rec = s.do(t, call{method: http.MethodPost, path: gigPath + "/messages", token: bob, body: transport.MessageRequest{Content: "hi"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, call{method: http.MethodPost, path: gigPath + "/reviews", token: bob, body: transport.ReviewRequest{Rating: 5, Comment: "Great"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, gig.OwnerID, decode[transport.ReviewResponse](t, rec).RevieweeID)

	mine := decode[[]transport.GigResponse](t, s.do(t, call{method: http.MethodGet, path: "/api/gigs/me", token: alice}))
	require.Len(t, mine, 1)
	assert.Equal(t, "COMPLETED", mine[0].Status)
}

func TestAdminDelete(t *testing.T) {
	t.Parallel()

	s := newServer(t, 0)
	s.register(t, "alice")
	alice := s.login(t, "alice")
	gig := s.postGig(t, alice, "Garage sale")

	rec := s.do(t, call{method: http.MethodDelete, path: "/api/admin/gigs/" + itoa(gig.ID), apiKey: adminKey})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Gig deleted successfully", decode[transport.MessageResult](t, rec).Message)

	assert.Equal(t, http.StatusNotFound, s.do(t, call{method: http.MethodGet, path: "/api/gigs/" + itoa(gig.ID)}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, call{method: http.MethodDelete, path: "/api/admin/gigs/999", apiKey: adminKey}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, call{method: http.MethodDelete, path: "/api/admin/gigs/abc", apiKey: adminKey}).Code)
}

func TestCreateGig_GuardOrder(t *testing.T) {
	t.Parallel()

	s := newServer(t, 0)
	s.register(t, "alice")
	alice := s.login(t, "alice")

	rec := s.do(t, call{method: http.MethodPost, path: "/api/gigs", token: alice, body: transport.CreateGigRequest{
		Title: "Cheap drugs", GigType: "ODD_JOB", Suburb: "Fitzroy", Details: "x",
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "blacklisted")

	rec = s.do(t, call{method: http.MethodPost, path: "/api/gigs", token: alice, body: transport.CreateGigRequest{
		Title: "Odd", GigType: "NOPE", Suburb: "Fitzroy", Details: "x",
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.postGig(t, alice, "one")
	s.postGig(t, alice, "two")

	rec = s.do(t, call{method: http.MethodPost, path: "/api/gigs", token: alice, body: transport.CreateGigRequest{
		Title: "three", GigType: "ODD_JOB", Suburb: "Fitzroy", Details: "x",
	}})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	created := 0
	for _, r := range s.events.Records() {
		if ev, ok := r.Event.(map[string]any); ok && ev["type"] == "gig_created" {
			created++
		}
	}
	assert.Equal(t, 2, created)
}

func TestListGigs_FiltersAndPaging(t *testing.T) {
	t.Parallel()

	s := newServer(t, 0)
	s.register(t, "alice")
	alice := s.login(t, "alice")

	first := s.postGig(t, alice, "Mow lawn")
	s.now = s.now.Add(time.Minute)
	second := s.postGig(t, alice, "Wash car")

	list := decode[listBody](t, s.do(t, call{method: http.MethodGet, path: "/api/gigs?size=1"}))
	require.Len(t, list.Data, 1)
	assert.Equal(t, second.ID, list.Data[0].ID)
	assert.EqualValues(t, 2, list.Meta.Total)
	assert.True(t, list.Meta.HasNext)

	list = decode[listBody](t, s.do(t, call{method: http.MethodGet, path: "/api/gigs?search=lawn"}))
	require.Len(t, list.Data, 1)
	assert.Equal(t, first.ID, list.Data[0].ID)

	rec := s.do(t, call{method: http.MethodGet, path: "/api/gigs?page=9223372036854775807"})
	require.Equal(t, http.StatusOK, rec.Code)
	list = decode[listBody](t, rec)
	assert.Empty(t, list.Data)
	assert.Equal(t, util.MaxPage, list.Meta.Page)
	assert.EqualValues(t, 2, list.Meta.Total)

	list = decode[listBody](t, s.do(t, call{method: http.MethodGet, path: "/api/gigs?search=%25"}))
	assert.Empty(t, list.Data)

	assert.Equal(t, http.StatusBadRequest, s.do(t, call{method: http.MethodGet, path: "/api/gigs?gig_type=NOPE"}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, call{method: http.MethodGet, path: "/api/gigs/search?q=lawn"}).Code)
}

func TestMessages(t *testing.T) {
	t.Parallel()

	s := newServer(t, 0)
	s.register(t, "alice")
	s.register(t, "bob")
	alice := s.login(t, "alice")
	bob := s.login(t, "bob")
	gig := s.postGig(t, alice, "Dog walking")
	path := "/api/gigs/" + itoa(gig.ID) + "/messages"

	rec := s.do(t, call{method: http.MethodPost, path: path, token: bob, body: transport.MessageRequest{Content: "Still available?"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Still available?", decode[transport.MessageResponse](t, rec).Content)

	rec = s.do(t, call{method: http.MethodPost, path: path, token: bob, body: transport.MessageRequest{Content: "escort service"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, call{method: http.MethodPost, path: path, body: transport.MessageRequest{Content: "hi"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	last := s.events.Records()[len(s.events.Records())-1]
	assert.Equal(t, events.TopicMessages, last.Topic)
}

func TestAPIThrottle(t *testing.T) {
	t.Parallel()

	s := newServer(t, 2)
	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, s.do(t, call{method: http.MethodGet, path: "/api/gigs", ip: "198.51.100.7"}).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, s.do(t, call{method: http.MethodGet, path: "/api/gigs", ip: "198.51.100.7"}).Code)
	assert.Equal(t, http.StatusOK, s.do(t, call{method: http.MethodGet, path: "/api/gigs", ip: "198.51.100.8"}).Code)
	assert.Equal(t, http.StatusOK, s.do(t, call{method: http.MethodGet, path: "/health/live", ip: "198.51.100.7"}).Code)

	s.now = t0.Add(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, s.do(t, call{method: http.MethodGet, path: "/api/gigs", ip: "198.51.100.7"}).Code)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
