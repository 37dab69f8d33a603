package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/gig_board/internal/domain"
	"github.com/Skotchmaster/gig_board/internal/models"
)

type GigFilter struct {
	Search  string
	GigType models.GigType
	Suburb  string
}

func gigNotFound(id uint, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("gig %d: %w", id, domain.ErrNotFound)
	}
	return err
}

func (r *GormRepo) CreateGig(ctx context.Context, gig *models.Gig) error {
	if err := r.DB.WithContext(ctx).Omit("Owner").Create(gig).Error; err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Where("id = ?", gig.OwnerID).First(&gig.Owner).Error
}

func (r *GormRepo) GetGig(ctx context.Context, id uint) (*models.Gig, error) {
	var gig models.Gig
	if err := r.DB.WithContext(ctx).Preload("Owner").Where("id = ?", id).First(&gig).Error; err != nil {
		return nil, gigNotFound(id, err)
	}
	return &gig, nil
}

// MutateGig loads the gig under a row lock, lets fn change it, and writes the
// status and report count back in the same transaction. Nothing is written
// when fn returns an error.
func (r *GormRepo) MutateGig(ctx context.Context, id uint, fn func(*models.Gig) error) (*models.Gig, error) {
	var gig models.Gig
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&gig).Error; err != nil {
			return gigNotFound(id, err)
		}
		if err := tx.Where("id = ?", gig.OwnerID).First(&gig.Owner).Error; err != nil {
			return err
		}

		if err := fn(&gig); err != nil {
			return err
		}

		return tx.Model(&models.Gig{}).Where("id = ?", gig.ID).Updates(map[string]any{
			"status":       gig.Status,
			"report_count": gig.ReportCount,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &gig, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a case-folded LIKE pattern that matches s literally.
// Use it with ESCAPE '\'.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func liveGigsQuery(db *gorm.DB, f GigFilter) *gorm.DB {
	q := db.Model(&models.Gig{}).Where("status = ?", domain.StatusLive)
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := containsPattern(s)
		q = q.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(details) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if f.GigType != "" {
		q = q.Where("gig_type = ?", f.GigType)
	}
	if s := strings.TrimSpace(f.Suburb); s != "" {
		q = q.Where(`LOWER(suburb) LIKE ? ESCAPE '\'`, containsPattern(s))
	}
	return q
}

// ListLiveGigs is the public feed: LIVE gigs only, newest first.
func (r *GormRepo) ListLiveGigs(ctx context.Context, f GigFilter, offset, limit int) (int64, []models.Gig, error) {
	db := r.DB.WithContext(ctx)

	var total int64
	if err := liveGigsQuery(db, f).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Gig, 0, limit)
	if err := liveGigsQuery(db, f).
		Preload("Owner").
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) ListGigsByStatus(ctx context.Context, status domain.GigStatus, offset, limit int) (int64, []models.Gig, error) {
	db := r.DB.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Gig{}).Where("status = ?", status).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Gig, 0, limit)
	if err := db.Model(&models.Gig{}).
		Preload("Owner").
		Where("status = ?", status).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// GetGigsByIDs loads the gigs with the given ids in no particular order.
// Missing ids are skipped.
func (r *GormRepo) GetGigsByIDs(ctx context.Context, ids []uint) ([]models.Gig, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.Gig
	if err := r.DB.WithContext(ctx).Preload("Owner").Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) ListGigsByOwner(ctx context.Context, ownerID uint) ([]models.Gig, error) {
	var items []models.Gig
	if err := r.DB.WithContext(ctx).
		Preload("Owner").
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
