package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/gig_board/internal/models"
	"github.com/Skotchmaster/gig_board/internal/repo"
	"github.com/Skotchmaster/gig_board/internal/service"
	"github.com/Skotchmaster/gig_board/internal/transport"
	"github.com/Skotchmaster/gig_board/pkg/logging"
)

type GigHTTP struct {
	Svc *service.GigService
}

func (h *GigHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "gig.list")

	p := pageFromQuery(c)
	filter := repo.GigFilter{
		Search:  c.QueryParam("search"),
		GigType: models.GigType(c.QueryParam("gig_type")),
		Suburb:  c.QueryParam("suburb"),
	}

	total, items, err := h.Svc.List(ctx, filter, p.Offset, p.Limit)
	if err != nil {
		return respondError(l, "list_gigs_error", err)
	}
	return c.JSON(http.StatusOK, paged(transport.NewGigList(items), p, total))
}

func (h *GigHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "gig.search")

	p := pageFromQuery(c)
	total, docs, err := h.Svc.Search(ctx, c.QueryParam("q"), p.Offset, p.Limit)
	if err != nil {
		return respondError(l, "search_gigs_error", err)
	}
	return c.JSON(http.StatusOK, paged(docs, p, total))
}

func (h *GigHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "gig.get")

	id, err := parseID(c)
	if err != nil {
		return err
	}
	gig, err := h.Svc.Get(ctx, id)
	if err != nil {
		return respondError(l, "get_gig_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewGigResponse(gig))
}

func (h *GigHTTP) Mine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "gig.mine")

	user, err := currentUser(c)
	if err != nil {
		return err
	}
	items, err := h.Svc.ListMine(ctx, user)
	if err != nil {
		return respondError(l, "list_my_gigs_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewGigList(items))
}

func (h *GigHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "gig.create")

	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req transport.CreateGigRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_gig_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	gig, err := h.Svc.Create(ctx, user, service.CreateGigInput{
		Title:    req.Title,
		GigType:  models.GigType(req.GigType),
		Suburb:   req.Suburb,
		Details:  req.Details,
		ImageURL: req.ImageURL,
		ClientIP: c.RealIP(),
	})
	if err != nil {
		return respondError(l, "create_gig_error", err)
	}
	return c.JSON(http.StatusCreated, transport.NewGigResponse(gig))
}

func (h *GigHTTP) Complete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "gig.complete")

	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	gig, err := h.Svc.Complete(ctx, user, id)
	if err != nil {
		return respondError(l, "complete_gig_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewGigResponse(gig))
}

// Report needs no login; reports are limited per client address and gig.
func (h *GigHTTP) Report(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "gig.report")

	id, err := parseID(c)
	if err != nil {
		return err
	}
	if _, err := h.Svc.Report(ctx, id, c.RealIP()); err != nil {
		return respondError(l, "report_gig_error", err)
	}
	return c.JSON(http.StatusOK, transport.MessageResult{Message: "Gig reported successfully"})
}
