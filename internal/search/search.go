// Package search keeps an Elasticsearch copy of the gig feed for full-text
// queries. The relational store stays the source of truth.
package search

import (
	"context"
	"errors"
	"time"

	"github.com/Skotchmaster/gig_board/internal/models"
)

var ErrDisabled = errors.New("search is not configured")

// MaxResultWindow is the Elasticsearch default for index.max_result_window.
// Queries with from+size past it are refused by the cluster.
const MaxResultWindow = 10000

// Document is the indexed shape of a gig.
type Document struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	GigType       string    `json:"gig_type"`
	Suburb        string    `json:"suburb"`
	Details       string    `json:"details"`
	ImageURL      *string   `json:"image_url,omitempty"`
	Status        string    `json:"status"`
	OwnerUsername string    `json:"owner_username"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewDocument(g *models.Gig) Document {
	return Document{
		ID:            g.ID,
		Title:         g.Title,
		GigType:       string(g.GigType),
		Suburb:        g.Suburb,
		Details:       g.Details,
		ImageURL:      g.ImageURL,
		Status:        string(g.Status),
		OwnerUsername: g.Owner.Username,
		CreatedAt:     g.CreatedAt,
	}
}

type Index interface {
	Enabled() bool
	Upsert(ctx context.Context, g *models.Gig) error
	Search(ctx context.Context, query string, from, size int) (int64, []Document, error)
}

type Disabled struct{}

func (Disabled) Enabled() bool                              { return false }
func (Disabled) Upsert(context.Context, *models.Gig) error { return nil }
func (Disabled) Search(context.Context, string, int, int) (int64, []Document, error) {
	return 0, nil, ErrDisabled
}
