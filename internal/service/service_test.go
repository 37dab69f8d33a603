package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/gig_board/internal/domain"
	"github.com/Skotchmaster/gig_board/internal/events"
	"github.com/Skotchmaster/gig_board/internal/models"
	"github.com/Skotchmaster/gig_board/internal/moderation"
	"github.com/Skotchmaster/gig_board/internal/ratelimit"
	"github.com/Skotchmaster/gig_board/internal/repo"
	"github.com/Skotchmaster/gig_board/internal/repo/repotest"
	"github.com/Skotchmaster/gig_board/internal/search"
	"github.com/Skotchmaster/gig_board/pkg/tokens"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingIndex records upserts and answers every query with hits, which
// may be stale on purpose.
type recordingIndex struct {
	mu       sync.Mutex
	upserted []uint
	hits     []search.Document
}

func (r *recordingIndex) Enabled() bool { return true }

func (r *recordingIndex) Upsert(_ context.Context, g *models.Gig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserted = append(r.upserted, g.ID)
	return nil
}

func (r *recordingIndex) Search(context.Context, string, int, int) (int64, []search.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]search.Document(nil), r.hits...)
	return int64(len(out)), out, nil
}

func (r *recordingIndex) setHits(docs ...search.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits = docs
}

type testEnv struct {
	repo    *repo.GormRepo
	clock   *fakeClock
	events  *events.Memory
	index   *recordingIndex
	auth    *AuthService
	gigs    *GigService
	msgs    *MessageService
	reviews *ReviewService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	r := &repo.GormRepo{DB: repotest.NewDB(t)}
	clk := &fakeClock{now: t0}
	limiter := ratelimit.New()
	filter := moderation.NewFilter(moderation.DefaultTerms())
	mem := &events.Memory{}
	idx := &recordingIndex{}

	issuer, err := tokens.NewIssuer([]byte("test-jwt-secret"), 30*time.Minute)
	require.NoError(t, err)

	return &testEnv{
		repo:   r,
		clock:  clk,
		events: mem,
		index:  idx,
		auth:   &AuthService{Users: r, Tokens: issuer, Now: clk.Now},
		gigs: &GigService{
			Gigs:        r,
			Lifecycle:   domain.NewLifecycle(3),
			Filter:      filter,
			PostLimit:   &ratelimit.Policy{Limiter: limiter, Name: "gig_post", Max: 3, Window: time.Hour, Now: clk.Now},
			ReportLimit: &ratelimit.Policy{Limiter: limiter, Name: "report", Max: 1, Window: 24 * time.Hour, Now: clk.Now},
			Events:      mem,
			Index:       idx,
			Now:         clk.Now,
		},
		msgs:    &MessageService{Gigs: r, Messages: r, Filter: filter, Events: mem, Now: clk.Now},
		reviews: &ReviewService{Gigs: r, Reviews: r, Filter: filter, Events: mem, Now: clk.Now},
	}
}

func (env *testEnv) user(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := env.auth.Register(context.Background(), RegisterInput{
		Username: name,
		Email:    name + "@example.com",
		Password: "Secret123",
	})
	require.NoError(t, err)
	return u
}

func (env *testEnv) gig(t *testing.T, owner *models.User, title string) *models.Gig {
	t.Helper()
	g, err := env.gigs.Create(context.Background(), owner, CreateGigInput{
		Title:   title,
		GigType: models.GigTypeOddJob,
		Suburb:  "Fitzroy",
		Details: "Front and back yard",
	})
	require.NoError(t, err)
	return g
}
