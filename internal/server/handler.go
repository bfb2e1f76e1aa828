package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mrsinham/oeukintake/internal/api"
	"github.com/mrsinham/oeukintake/internal/questionnaire"
	"github.com/mrsinham/oeukintake/internal/record"
)

type Handler struct {
	svc    *record.Service
	logger zerolog.Logger
}

func NewHandler(svc *record.Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST(api.PathRecords, h.CreateRecord)
	g.GET(api.PathRecords, h.ListRecords)
	g.GET(api.PathRecords+"/:id", h.GetRecord)
	g.PUT(api.PathRecords+"/:id"+api.PathComments, h.UpdateComments)
	g.POST(api.PathAuth, h.AuthDoctor)
}

func (h *Handler) CreateRecord(c echo.Context) error {
	dec := json.NewDecoder(c.Request().Body)
	dec.UseNumber()
	var answers questionnaire.Answers
	if err := dec.Decode(&answers); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if answers == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	key := c.Request().Header.Get(api.HeaderIdempotencyKey)
	id, err := h.svc.Submit(c.Request().Context(), key, answers)
	if err != nil {
		if errors.Is(err, record.ErrInvalid) {
			return err
		}
		h.logger.Error().Err(err).Msg("create medical record")
		return echo.NewHTTPError(http.StatusInternalServerError, "Error creating medical record")
	}
	return c.JSON(http.StatusCreated, api.CreateResponse{Success: true, ID: id, Message: api.MsgCreated})
}

func (h *Handler) ListRecords(c echo.Context) error {
	records, err := h.svc.List(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list medical records")
		return echo.NewHTTPError(http.StatusInternalServerError, "Error fetching medical records")
	}
	return c.JSON(http.StatusOK, api.ListResponse{Success: true, Records: records})
}

func (h *Handler) GetRecord(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return record.ErrNotFound
	}
	rec, err := h.svc.Get(c.Request().Context(), id)
	if errors.Is(err, record.ErrNotFound) {
		return err
	}
	if err != nil {
		h.logger.Error().Err(err).Int64("id", id).Msg("get medical record")
		return echo.NewHTTPError(http.StatusInternalServerError, "Error fetching medical record")
	}
	return c.JSON(http.StatusOK, api.GetResponse{Success: true, Record: rec})
}

func (h *Handler) UpdateComments(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return record.ErrNotFound
	}
	var req api.CommentsRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	err := h.svc.Review(c.Request().Context(), id, req.PhysicianComments)
	if errors.Is(err, record.ErrNotFound) {
		return err
	}
	if err != nil {
		h.logger.Error().Err(err).Int64("id", id).Msg("update physician comments")
		return echo.NewHTTPError(http.StatusInternalServerError, "Error updating physician comments")
	}
	return c.JSON(http.StatusOK, api.MessageResponse{Success: true, Message: api.MsgCommentsUpdated})
}

// AuthDoctor checks the shared reviewer password. It only gates the review
// screens and is not a security boundary.
func (h *Handler) AuthDoctor(c echo.Context) error {
	var req api.AuthRequest
	_ = json.NewDecoder(c.Request().Body).Decode(&req)
	if !h.svc.Authenticate(req.Password) {
		return c.JSON(http.StatusUnauthorized, api.AuthResponse{Success: false, Authenticated: false})
	}
	return c.JSON(http.StatusOK, api.AuthResponse{Success: true, Authenticated: true})
}

func (h *Handler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.svc.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, api.HealthResponse{Status: "unhealthy", Error: err.Error()})
	}
	return c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
}

func parseID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}
