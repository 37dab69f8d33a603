package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/gig_board/pkg/util"
)

type page struct {
	Page   int
	Offset int
	Limit  int
}

func pageFromQuery(c echo.Context) page {
	p := util.ClampPage(util.ParseIntDefault(c.QueryParam("page"), 1))
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(p, size)
	return page{Page: p, Offset: offset, Limit: limit}
}

func paged(data any, p page, total int64) map[string]any {
	return map[string]any{
		"data": data,
		"meta": map[string]any{
			"page":        p.Page,
			"size":        p.Limit,
			"total":       total,
			"total_pages": util.TotalPages(total, p.Limit),
			"has_prev":    p.Page > 1,
			"has_next":    int64(p.Offset+p.Limit) < total,
		},
	}
}
