// Package server exposes the intake record store over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/mrsinham/oeukintake/internal/api"
	"github.com/mrsinham/oeukintake/internal/record"
)

type Options struct {
	CORSOrigins []string
	BodyLimit   string
}

// New builds the echo application with every route under /api.
func New(svc *record.Service, opts Options, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(Recovery(logger))
	e.Use(RequestID())
	e.Use(Logger(logger))
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderXRequestID, api.HeaderIdempotencyKey},
	}))
	if opts.BodyLimit != "" {
		e.Use(echomw.BodyLimit(opts.BodyLimit))
	}

	h := NewHandler(svc, logger)
	e.GET("/health", h.Health)
	h.RegisterRoutes(e.Group("/api"))
	return e
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, e *echo.Echo, addr string, logger zerolog.Logger) error {
	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// errorHandler renders {"success":false,"error":msg} for every failure.
func errorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := http.StatusText(code)

		var he *echo.HTTPError
		switch {
		case errors.As(err, &he):
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(code)
			}
		case errors.Is(err, record.ErrNotFound):
			code, msg = http.StatusNotFound, api.MsgNotFound
		case errors.Is(err, record.ErrInvalid):
			code, msg = http.StatusBadRequest, err.Error()
		default:
			logger.Error().Err(err).Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, api.ErrorResponse{Success: false, Error: msg})
		}
		if err != nil {
			logger.Error().Err(err).Msg("write error response")
		}
	}
}
