package api

import (
	"bytes"
	"net/http"

	"conflictdash/internal/charts"
	"conflictdash/internal/dashboard"
	"conflictdash/internal/engine"
	"conflictdash/internal/logger"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/labstack/echo/v4"
)

const arrowStreamMIME = "application/vnd.apache.arrow.stream"

type Handler struct {
	svc  *dashboard.Service
	svgs *lru.Cache[string, []byte]
	log  *logger.Logger
}

// NewHandler keeps up to chartEntries rendered SVGs in memory.
func NewHandler(svc *dashboard.Service, chartEntries int, log *logger.Logger) (*Handler, error) {
	if chartEntries <= 0 {
		chartEntries = 1
	}
	svgs, err := lru.New[string, []byte](chartEntries)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{svc: svc, svgs: svgs, log: log}, nil
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	api := e.Group("/api")
	api.GET("/options", h.GetOptions)
	api.GET("/views/yearly", h.view(dashboard.PanelYearly))
	api.GET("/views/conflicts/top", h.view(dashboard.PanelTopConflicts))
	api.GET("/views/violence", h.view(dashboard.PanelViolence))
	api.GET("/views/conflicts/deaths", h.view(dashboard.PanelConflictDeaths))
	api.GET("/views/regions", h.view(dashboard.PanelRegions))
	api.GET("/views/map", h.view(dashboard.PanelMap))
	api.GET("/dashboard", h.GetDashboard)
	api.GET("/charts/:panel", h.GetChart)
	api.GET("/charts/:panel/svg", h.GetChartSVG)
	api.GET("/events.arrow", h.GetEventsArrow)
}

// --- HANDLERS ---

// selection reads country, year and death_type from the query string.
// Absent parameters mean "All".
func selection(c echo.Context) (engine.Selection, error) {
	year, err := engine.ParseYear(c.QueryParam("year"))
	if err != nil {
		return engine.Selection{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	metric, err := engine.ParseDeathMetric(c.QueryParam("death_type"))
	if err != nil {
		return engine.Selection{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return engine.Selection{
		Country:   engine.ParseCountry(c.QueryParam("country")),
		Year:      year,
		DeathType: metric,
	}, nil
}

func (h *Handler) panelParam(c echo.Context) (dashboard.PanelID, error) {
	panel := dashboard.PanelID(c.Param("panel"))
	if _, ok := h.svc.Board().Deps(panel); !ok {
		return "", echo.NewHTTPError(http.StatusNotFound, "unknown panel "+string(panel))
	}
	return panel, nil
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ok",
		"rows":   h.svc.Store().Len(),
	})
}

func (h *Handler) GetOptions(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Options())
}

// view serves the raw rows of one panel.
func (h *Handler) view(panel dashboard.PanelID) echo.HandlerFunc {
	return func(c echo.Context) error {
		sel, err := selection(c)
		if err != nil {
			return err
		}
		data, err := h.svc.View(panel, sel)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, data)
	}
}

// GetDashboard recomputes the panels subscribed to ?changed=...
func (h *Handler) GetDashboard(c echo.Context) error {
	sel, err := selection(c)
	if err != nil {
		return err
	}
	changed, err := dashboard.ParseControls(c.QueryParam("changed"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	updates, err := h.svc.Dashboard(c.Request().Context(), sel, changed...)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"selection": map[string]interface{}{
			"country":    sel.Country.Label(),
			"year":       sel.Year.Label(),
			"death_type": sel.DeathType.Value(),
		},
		"panels": updates,
	})
}

func (h *Handler) figure(c echo.Context) (charts.Figure, engine.Selection, error) {
	panel, err := h.panelParam(c)
	if err != nil {
		return charts.Figure{}, engine.Selection{}, err
	}
	sel, err := selection(c)
	if err != nil {
		return charts.Figure{}, engine.Selection{}, err
	}
	data, err := h.svc.View(panel, sel)
	if err != nil {
		return charts.Figure{}, engine.Selection{}, err
	}
	fig, err := charts.Build(panel, sel, data)
	return fig, sel, err
}

func (h *Handler) GetChart(c echo.Context) error {
	fig, _, err := h.figure(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, fig)
}

func (h *Handler) GetChartSVG(c echo.Context) error {
	fig, sel, err := h.figure(c)
	if err != nil {
		return err
	}

	key := h.svc.Board().CacheKey(fig.Panel, sel)
	if svg, ok := h.svgs.Get(key); ok {
		return c.Blob(http.StatusOK, "image/svg+xml", svg)
	}

	var buf bytes.Buffer
	if err := charts.RenderSVG(fig, &buf); err != nil {
		return err
	}
	svg := buf.Bytes()
	h.svgs.Add(key, svg)
	return c.Blob(http.StatusOK, "image/svg+xml", svg)
}

// GetEventsArrow streams the rows matching country and year.
func (h *Handler) GetEventsArrow(c echo.Context) error {
	sel, err := selection(c)
	if err != nil {
		return err
	}
	rows := h.svc.Rows(sel)
	h.log.Debug("arrow export", "selection", sel.Key(), "rows", len(rows))

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, arrowStreamMIME)
	res.WriteHeader(http.StatusOK)
	return h.svc.Store().WriteArrow(res, rows)
}
