package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/gig_board/internal/domain"
	"github.com/Skotchmaster/gig_board/internal/events"
	"github.com/Skotchmaster/gig_board/internal/models"
	"github.com/Skotchmaster/gig_board/internal/moderation"
	"github.com/Skotchmaster/gig_board/pkg/logging"
)

type MessageService struct {
	Gigs     GigReader
	Messages MessageStore
	Filter   *moderation.Filter
	Events   events.Publisher
	Now      func() time.Time
}

// Send stores a message about a gig that is still open and notifies the
// owner through the event stream.
func (s *MessageService) Send(ctx context.Context, sender *models.User, gigID uint, content string) (*models.Message, error) {
	l := logging.FromContext(ctx).With("svc", "message.send", "gig_id", gigID)

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("content is required: %w", domain.ErrValidation)
	}
	if err := s.Filter.Check(content); err != nil {
		l.Warn("send_message_denied", "status", 400, "reason", "content rejected")
		return nil, err
	}

	gig, err := s.Gigs.GetGig(ctx, gigID)
	if err != nil {
		return nil, err
	}
	if gig.Status.Terminal() {
		return nil, fmt.Errorf("gig %d is %s: %w", gigID, gig.Status, domain.ErrNotFound)
	}

	msg := &models.Message{
		GigID:     gig.ID,
		SenderID:  sender.ID,
		Content:   content,
		CreatedAt: clock(s.Now).UTC(),
	}
	if err := s.Messages.CreateMessage(ctx, msg); err != nil {
		l.Error("send_message_error", "status", 500, "error", err)
		return nil, err
	}

	if s.Events != nil {
		ev := events.MessageEvent(msg, gig, sender.Username, clock(s.Now))
		if err := s.Events.Publish(ctx, events.TopicMessages, events.GigKey(gig.ID), ev); err != nil {
			l.Error("publish_error", "error", err)
		}
	}
	return msg, nil
}

type ReviewService struct {
	Gigs    GigReader
	Reviews ReviewStore
	Filter  *moderation.Filter
	Events  events.Publisher
	Now     func() time.Time
}

// Create reviews the owner of a gig. Completed gigs can be reviewed; deleted
// ones cannot.
func (s *ReviewService) Create(ctx context.Context, reviewer *models.User, gigID uint, rating int, comment string) (*models.Review, error) {
	l := logging.FromContext(ctx).With("svc", "review.create", "gig_id", gigID)

	comment = strings.TrimSpace(comment)
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5: %w", domain.ErrValidation)
	}
	if err := s.Filter.Check(comment); err != nil {
		l.Warn("create_review_denied", "status", 400, "reason", "content rejected")
		return nil, err
	}

	gig, err := s.Gigs.GetGig(ctx, gigID)
	if err != nil {
		return nil, err
	}
	if gig.Status == domain.StatusDeleted {
		return nil, fmt.Errorf("gig %d is deleted: %w", gigID, domain.ErrNotFound)
	}
	if gig.OwnerID == reviewer.ID {
		return nil, fmt.Errorf("cannot review your own gig: %w", domain.ErrValidation)
	}

	rv := &models.Review{
		GigID:      gig.ID,
		ReviewerID: reviewer.ID,
		RevieweeID: gig.OwnerID,
		Rating:     rating,
		Comment:    comment,
		CreatedAt:  clock(s.Now).UTC(),
	}
	if err := s.Reviews.CreateReview(ctx, rv); err != nil {
		l.Error("create_review_error", "status", 500, "error", err)
		return nil, err
	}

	if s.Events != nil {
		ev := events.ReviewEvent(rv, gig, reviewer.Username, clock(s.Now))
		if err := s.Events.Publish(ctx, events.TopicReviews, events.GigKey(gig.ID), ev); err != nil {
			l.Error("publish_error", "error", err)
		}
	}
	return rv, nil
}
