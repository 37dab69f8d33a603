package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/gig_board/internal/domain"
	"github.com/Skotchmaster/gig_board/internal/models"
	"github.com/Skotchmaster/gig_board/internal/ratelimit"
	"github.com/Skotchmaster/gig_board/internal/repo"
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
}

type GigReader interface {
	GetGig(ctx context.Context, id uint) (*models.Gig, error)
}

type GigStore interface {
	GigReader
	GetGigsByIDs(ctx context.Context, ids []uint) ([]models.Gig, error)
	CreateGig(ctx context.Context, g *models.Gig) error
	MutateGig(ctx context.Context, id uint, fn func(*models.Gig) error) (*models.Gig, error)
	ListLiveGigs(ctx context.Context, f repo.GigFilter, offset, limit int) (int64, []models.Gig, error)
	ListGigsByStatus(ctx context.Context, status domain.GigStatus, offset, limit int) (int64, []models.Gig, error)
	ListGigsByOwner(ctx context.Context, ownerID uint) ([]models.Gig, error)
}

type MessageStore interface {
	CreateMessage(ctx context.Context, m *models.Message) error
}

type ReviewStore interface {
	CreateReview(ctx context.Context, rv *models.Review) error
}

type TokenIssuer interface {
	Issue(subject string, now time.Time) (string, time.Time, error)
	Verify(raw string, now time.Time) (string, error)
}

// Admitter is a bound rate-limit policy, usually a *ratelimit.Policy.
type Admitter interface {
	Admit(identifier string) ratelimit.Decision
}

func clock(now func() time.Time) time.Time {
	if now != nil {
		return now()
	}
	return time.Now()
}
