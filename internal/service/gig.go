package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/gig_board/internal/domain"
	"github.com/Skotchmaster/gig_board/internal/events"
	"github.com/Skotchmaster/gig_board/internal/models"
	"github.com/Skotchmaster/gig_board/internal/moderation"
	"github.com/Skotchmaster/gig_board/internal/ratelimit"
	"github.com/Skotchmaster/gig_board/internal/repo"
	"github.com/Skotchmaster/gig_board/internal/search"
	"github.com/Skotchmaster/gig_board/pkg/logging"
)

const maxTitleLen = 200

type GigService struct {
	Gigs        GigStore
	Lifecycle   domain.Lifecycle
	Filter      *moderation.Filter
	PostLimit   Admitter
	ReportLimit Admitter
	Events      events.Publisher
	Index       search.Index
	Now         func() time.Time
}

type CreateGigInput struct {
	Title    string
	GigType  models.GigType
	Suburb   string
	Details  string
	ImageURL *string
	ClientIP string
}

func (in *CreateGigInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Suburb = strings.TrimSpace(in.Suburb)
	in.Details = strings.TrimSpace(in.Details)
	if in.ImageURL != nil && strings.TrimSpace(*in.ImageURL) == "" {
		in.ImageURL = nil
	}

	switch {
	case in.Title == "":
		return fmt.Errorf("title is required: %w", domain.ErrValidation)
	case len(in.Title) > maxTitleLen:
		return fmt.Errorf("title is longer than %d characters: %w", maxTitleLen, domain.ErrValidation)
	case !in.GigType.Valid():
		return fmt.Errorf("gig_type must be %s or %s: %w", models.GigTypeOddJob, models.GigTypeMarketSpot, domain.ErrValidation)
	case in.Suburb == "":
		return fmt.Errorf("suburb is required: %w", domain.ErrValidation)
	case in.Details == "":
		return fmt.Errorf("details are required: %w", domain.ErrValidation)
	}
	return nil
}

// Create posts a new LIVE gig. The poster is rate limited before the
// content filter runs, so rejected posts still use up the allowance.
func (s *GigService) Create(ctx context.Context, owner *models.User, in CreateGigInput) (*models.Gig, error) {
	l := logging.FromContext(ctx).With("svc", "gig.create", "user_id", owner.ID)

	if err := in.validate(); err != nil {
		return nil, err
	}

	if s.PostLimit.Admit(owner.Username) == ratelimit.Denied {
		l.Warn("create_gig_denied", "status", 429, "reason", "post limit reached")
		return nil, fmt.Errorf("too many posts: %w", domain.ErrRateLimited)
	}

	if err := s.Filter.Check(in.Title, in.Details); err != nil {
		l.Warn("create_gig_denied", "status", 400, "reason", "content rejected")
		return nil, err
	}

	gig := &models.Gig{
		Title:    in.Title,
		GigType:  in.GigType,
		Suburb:   in.Suburb,
		Details:  in.Details,
		ImageURL: in.ImageURL,
		ClientIP: in.ClientIP,
	}
	state := gig.State()
	s.Lifecycle.Create(&state, owner.ID, clock(s.Now).UTC())
	gig.Apply(state)

	if err := s.Gigs.CreateGig(ctx, gig); err != nil {
		l.Error("create_gig_error", "status", 500, "error", err)
		return nil, err
	}

	s.afterChange(ctx, "gig_created", gig)
	l.Info("gig created", "gig_id", gig.ID)
	return gig, nil
}

// Get returns a gig only while it is publicly visible.
func (s *GigService) Get(ctx context.Context, id uint) (*models.Gig, error) {
	gig, err := s.Gigs.GetGig(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.Lifecycle.Visible(gig.State()) {
		return nil, fmt.Errorf("gig %d is %s: %w", id, gig.Status, domain.ErrNotFound)
	}
	return gig, nil
}

func (s *GigService) List(ctx context.Context, f repo.GigFilter, offset, limit int) (int64, []models.Gig, error) {
	if f.GigType != "" && !f.GigType.Valid() {
		return 0, nil, fmt.Errorf("unknown gig_type %q: %w", f.GigType, domain.ErrValidation)
	}
	return s.Gigs.ListLiveGigs(ctx, f, offset, limit)
}

func (s *GigService) ListMine(ctx context.Context, owner *models.User) ([]models.Gig, error) {
	return s.Gigs.ListGigsByOwner(ctx, owner.ID)
}

func (s *GigService) ListFlagged(ctx context.Context, offset, limit int) (int64, []models.Gig, error) {
	return s.Gigs.ListGigsByStatus(ctx, domain.StatusFlagged, offset, limit)
}

func (s *GigService) Search(ctx context.Context, query string, offset, limit int) (int64, []search.Document, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, nil, fmt.Errorf("q is required: %w", domain.ErrValidation)
	}
	if offset < 0 || offset+limit > search.MaxResultWindow {
		return 0, nil, fmt.Errorf("search results stop at %d: %w", search.MaxResultWindow, domain.ErrValidation)
	}
	if s.Index == nil || !s.Index.Enabled() {
		return 0, nil, search.ErrDisabled
	}

	total, hits, err := s.Index.Search(ctx, query, offset, limit)
	if err != nil {
		return 0, nil, err
	}
	docs, err := s.liveHits(ctx, hits)
	if err != nil {
		return 0, nil, err
	}
	total -= int64(len(hits) - len(docs))
	if total < int64(len(docs)) {
		total = int64(len(docs))
	}
	return total, docs, nil
}

// liveHits re-reads search hits from the database and keeps only gigs that
// are LIVE there, in hit order. The index can lag behind a failed re-index.
func (s *GigService) liveHits(ctx context.Context, hits []search.Document) ([]search.Document, error) {
	if len(hits) == 0 {
		return []search.Document{}, nil
	}
	ids := make([]uint, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ID)
	}
	gigs, err := s.Gigs.GetGigsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]*models.Gig, len(gigs))
	for i := range gigs {
		byID[gigs[i].ID] = &gigs[i]
	}

	docs := make([]search.Document, 0, len(hits))
	for _, h := range hits {
		g, ok := byID[h.ID]
		if !ok || !s.Lifecycle.Visible(g.State()) {
			continue
		}
		docs = append(docs, search.NewDocument(g))
	}
	if dropped := len(hits) - len(docs); dropped > 0 {
		logging.FromContext(ctx).Warn("search_stale_hits", "svc", "gig.search", "dropped", dropped)
	}
	return docs, nil
}

func (s *GigService) Complete(ctx context.Context, caller *models.User, id uint) (*models.Gig, error) {
	gig, err := s.transition(ctx, id, func(st *domain.GigState) error {
		return s.Lifecycle.Complete(st, caller.ID)
	})
	if err != nil {
		return nil, err
	}
	s.afterChange(ctx, "gig_completed", gig)
	return gig, nil
}

// Report counts one abuse report from ip. The per ip and gig limit is
// checked before the gig is looked up.
func (s *GigService) Report(ctx context.Context, id uint, ip string) (*models.Gig, error) {
	l := logging.FromContext(ctx).With("svc", "gig.report", "gig_id", id)

	if s.ReportLimit.Admit(fmt.Sprintf("%s_%d", ip, id)) == ratelimit.Denied {
		l.Warn("report_denied", "status", 429, "reason", "report limit reached")
		return nil, fmt.Errorf("too many reports: %w", domain.ErrRateLimited)
	}

	var flagged bool
	gig, err := s.transition(ctx, id, func(st *domain.GigState) error {
		var err error
		flagged, err = s.Lifecycle.Report(st)
		return err
	})
	if err != nil {
		return nil, err
	}

	kind := "gig_reported"
	if flagged {
		kind = "gig_flagged"
		l.Info("gig flagged", "report_count", gig.ReportCount)
	}
	s.afterChange(ctx, kind, gig)
	return gig, nil
}

func (s *GigService) Approve(ctx context.Context, id uint) (*models.Gig, error) {
	gig, err := s.transition(ctx, id, s.Lifecycle.Approve)
	if err != nil {
		return nil, err
	}
	s.afterChange(ctx, "gig_approved", gig)
	return gig, nil
}

func (s *GigService) Delete(ctx context.Context, id uint) (*models.Gig, error) {
	gig, err := s.transition(ctx, id, s.Lifecycle.Delete)
	if err != nil {
		return nil, err
	}
	s.afterChange(ctx, "gig_deleted", gig)
	return gig, nil
}

func (s *GigService) transition(ctx context.Context, id uint, fn func(*domain.GigState) error) (*models.Gig, error) {
	return s.Gigs.MutateGig(ctx, id, func(g *models.Gig) error {
		st := g.State()
		if err := fn(&st); err != nil {
			return err
		}
		g.Apply(st)
		return nil
	})
}

// afterChange fans a committed change out to the event stream and the
// search index. Failures here are logged and never fail the request.
func (s *GigService) afterChange(ctx context.Context, kind string, gig *models.Gig) {
	l := logging.FromContext(ctx).With("svc", "gig.events", "gig_id", gig.ID)

	if s.Events != nil {
		if err := s.Events.Publish(ctx, events.TopicGigs, events.GigKey(gig.ID), events.GigEvent(kind, gig, clock(s.Now))); err != nil {
			l.Error("publish_error", "event", kind, "error", err)
		}
	}
	if s.Index != nil {
		if err := s.Index.Upsert(ctx, gig); err != nil && !errors.Is(err, search.ErrDisabled) {
			l.Error("index_error", "event", kind, "error", err)
		}
	}
}
