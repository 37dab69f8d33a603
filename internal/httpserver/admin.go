package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/gig_board/internal/service"
	"github.com/Skotchmaster/gig_board/internal/transport"
	"github.com/Skotchmaster/gig_board/pkg/logging"
)

type AdminHTTP struct {
	Svc *service.GigService
}

func (h *AdminHTTP) Flagged(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.flagged")

	p := pageFromQuery(c)
	total, items, err := h.Svc.ListFlagged(ctx, p.Offset, p.Limit)
	if err != nil {
		return respondError(l, "list_flagged_error", err)
	}
	return c.JSON(http.StatusOK, paged(transport.NewGigList(items), p, total))
}

func (h *AdminHTTP) Approve(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.approve")

	id, err := parseID(c)
	if err != nil {
		return err
	}
	gig, err := h.Svc.Approve(ctx, id)
	if err != nil {
		return respondError(l, "approve_gig_error", err)
	}
	l.Info("gig approved", "gig_id", gig.ID)
	return c.JSON(http.StatusOK, transport.NewGigResponse(gig))
}

func (h *AdminHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete")

	id, err := parseID(c)
	if err != nil {
		return err
	}
	if _, err := h.Svc.Delete(ctx, id); err != nil {
		return respondError(l, "delete_gig_error", err)
	}
	l.Info("gig deleted", "gig_id", id)
	return c.JSON(http.StatusOK, transport.MessageResult{Message: "Gig deleted successfully"})
}
