package server

import (
	"context"
	"errors"
	"html/template"
	"io"
	"net/http"
	"os"
	"slices"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fitplan/fitplan/internal/export"
	"github.com/fitplan/fitplan/internal/history"
	"github.com/fitplan/fitplan/internal/workout"
	"github.com/fitplan/fitplan/web"
)

// TemplateRenderer is a custom html/template renderer for Echo framework
type TemplateRenderer struct {
	templates *template.Template
}

// Render renders a template document
func (t *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

func newTemplateRenderer() *TemplateRenderer {
	funcs := template.FuncMap{
		"has": func(list []string, item string) bool { return slices.Contains(list, item) },
	}
	return &TemplateRenderer{
		templates: template.Must(template.New("").Funcs(funcs).ParseFS(web.Templates, "templates/*.html")),
	}
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("64K"))
	e.Use(LoggerMiddleware)

	e.Renderer = newTemplateRenderer()

	e.GET("/", s.indexHandler)
	e.POST("/generate", s.generateHandler)
	e.GET("/download", s.downloadHandler)
	e.POST("/history/clear", s.clearHistoryHandler)

	e.GET("/health", s.healthHandler)
	e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))

	return e
}

// LoggerMiddleware attaches a request-scoped logger carrying the request id,
// both to the echo context and to the request context.
func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get(echo.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Response().Header().Set(echo.HeaderXRequestID, requestID)

		logger := log.With().Str("request_id", requestID).Logger()
		c.Set("logger", &logger)
		c.SetRequest(c.Request().WithContext(logger.WithContext(c.Request().Context())))

		return next(c)
	}
}

// requestLogger returns the logger installed by LoggerMiddleware.
func requestLogger(c echo.Context) *zerolog.Logger {
	if logger, ok := c.Get("logger").(*zerolog.Logger); ok {
		return logger
	}
	return &log.Logger
}

/* ====================================================================
                   		Session
==================================================================== */

// sessionID returns the id of the caller's session, starting a new one
// when the cookie is missing or cannot be decoded. The cookie is written
// on every call so that its expiry slides with activity.
func (s *Server) sessionID(c echo.Context) (string, error) {
	sess, err := s.cookies.Get(c.Request(), sessionName)
	if err != nil {
		// A stale or tampered cookie still yields a usable new session.
		requestLogger(c).Debug().Err(err).Msg("Discarding unreadable session cookie")
	}

	id, _ := sess.Values["sid"].(string)
	if id == "" {
		id = uuid.New().String()
		sess.Values["sid"] = id
	}

	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return "", err
	}
	return id, nil
}

/* ====================================================================
                   		Page
==================================================================== */

type pageData struct {
	Goals            []string
	ExperienceLevels []string
	EquipmentOptions []string
	MinFrequency     int
	MaxFrequency     int

	Form    workout.Request
	Warning string
	Error   string

	// Generated is the plan produced by this very request, if any.
	Generated *history.Plan

	Entries []history.Entry
	HasPlan bool
}

func newPageData(form workout.Request, h history.History) pageData {
	_, hasPlan := h.Latest()
	return pageData{
		Goals:            workout.Goals,
		ExperienceLevels: workout.ExperienceLevels,
		EquipmentOptions: workout.EquipmentOptions,
		MinFrequency:     workout.MinFrequency,
		MaxFrequency:     workout.MaxFrequency,
		Form:             form,
		Entries:          h.Entries(),
		HasPlan:          hasPlan,
	}
}

// indexHandler renders the form and the session's plan history.
func (s *Server) indexHandler(c echo.Context) error {
	sid, err := s.sessionID(c)
	if err != nil {
		requestLogger(c).Error().Err(err).Msg("indexHandler: failed to save session")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to start session")
	}

	h := s.plans.Load(sid)
	return c.Render(http.StatusOK, "index.html", newPageData(workout.DefaultRequest(), h))
}

// generateHandler validates the form, asks the model for a plan and shows
// the result. A failed or rejected submission leaves the history as it was.
func (s *Server) generateHandler(c echo.Context) error {
	logger := requestLogger(c)

	sid, err := s.sessionID(c)
	if err != nil {
		logger.Error().Err(err).Msg("generateHandler: failed to save session")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to start session")
	}

	form, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form submission")
	}

	ctx := c.Request().Context()
	if s.llmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.llmTimeout)
		defer cancel()
	}

	before := s.plans.Load(sid)
	after, res := s.planner.Submit(ctx, form, before)

	status := http.StatusOK
	switch {
	case res.Warning != "":
		status = http.StatusUnprocessableEntity
	case res.Err != nil:
		status = http.StatusBadGateway
	default:
		s.plans.Save(sid, after)
	}

	data := newPageData(res.Request, after)
	data.Warning = res.Warning
	if res.Err != nil {
		data.Error = res.Err.Error()
	}
	data.Generated = res.Plan

	return c.Render(status, "index.html", data)
}

// downloadHandler streams the most recent plan of the session as a PDF.
func (s *Server) downloadHandler(c echo.Context) error {
	logger := requestLogger(c)

	sid, err := s.sessionID(c)
	if err != nil {
		logger.Error().Err(err).Msg("downloadHandler: failed to save session")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to start session")
	}

	plan, ok := s.plans.Load(sid).Latest()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "No workout plan has been generated yet.")
	}

	path, err := export.WriteTempFile(plan.Text)
	if err != nil {
		logger.Error().Err(err).Msg("downloadHandler: failed to render pdf")
		if errors.Is(err, export.ErrEmptyPlan) {
			return echo.NewHTTPError(http.StatusNotFound, "The latest workout plan is empty.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to export plan")
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("Failed to remove exported pdf")
		}
	}()

	s.metrics.PDFExports.Inc()
	c.Response().Header().Set(echo.HeaderContentType, export.ContentType)
	return c.Attachment(path, export.FileName)
}

// clearHistoryHandler forgets the session's plans and returns to the form.
func (s *Server) clearHistoryHandler(c echo.Context) error {
	sid, err := s.sessionID(c)
	if err != nil {
		requestLogger(c).Error().Err(err).Msg("clearHistoryHandler: failed to save session")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to start session")
	}

	s.plans.Clear(sid)
	requestLogger(c).Info().Msg("Cleared plan history")
	return c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) healthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":   "up",
		"provider": s.provider,
		"model":    s.model,
	})
}
