package events

import (
	"strconv"
	"time"

	"github.com/Skotchmaster/gig_board/internal/models"
)

func GigKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func GigEvent(kind string, g *models.Gig, at time.Time) map[string]any {
	return map[string]any{
		"type":         kind,
		"gig_id":       g.ID,
		"owner_id":     g.OwnerID,
		"status":       string(g.Status),
		"report_count": g.ReportCount,
		"timestamp":    at.UTC().Format(time.RFC3339),
	}
}

// MessageEvent carries what the mailer needs to notify the gig owner.
func MessageEvent(m *models.Message, g *models.Gig, sender string, at time.Time) map[string]any {
	return map[string]any{
		"type":        "message_sent",
		"message_id":  m.ID,
		"gig_id":      g.ID,
		"gig_title":   g.Title,
		"owner_id":    g.OwnerID,
		"owner_email": g.Owner.Email,
		"sender":      sender,
		"content":     m.Content,
		"timestamp":   at.UTC().Format(time.RFC3339),
	}
}

func ReviewEvent(rv *models.Review, g *models.Gig, reviewer string, at time.Time) map[string]any {
	return map[string]any{
		"type":      "review_created",
		"review_id": rv.ID,
		"gig_id":    g.ID,
		"owner_id":  rv.RevieweeID,
		"reviewer":  reviewer,
		"rating":    rv.Rating,
		"timestamp": at.UTC().Format(time.RFC3339),
	}
}
