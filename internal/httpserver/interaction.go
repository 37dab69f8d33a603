package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/gig_board/internal/service"
	"github.com/Skotchmaster/gig_board/internal/transport"
	"github.com/Skotchmaster/gig_board/pkg/logging"
)

type InteractionHTTP struct {
	Messages *service.MessageService
	Reviews  *service.ReviewService
}

func (h *InteractionHTTP) SendMessage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "message.send")

	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req transport.MessageRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("send_message_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	msg, err := h.Messages.Send(ctx, user, id, req.Content)
	if err != nil {
		return respondError(l, "send_message_error", err)
	}
	return c.JSON(http.StatusCreated, transport.NewMessageResponse(msg))
}

func (h *InteractionHTTP) CreateReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.create")

	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req transport.ReviewRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_review_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	rv, err := h.Reviews.Create(ctx, user, id, req.Rating, req.Comment)
	if err != nil {
		return respondError(l, "create_review_error", err)
	}
	return c.JSON(http.StatusCreated, transport.NewReviewResponse(rv))
}
