package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/jsiebens/memberd/internal/errors"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const genericErrorMessage = "something went wrong, please try again later"

// EchoErrorHandler translates the error taxonomy into HTTP errors. Client
// faults keep their message; upstream and unexpected failures are logged
// with full detail and replaced by a generic message.
func EchoErrorHandler(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var httpError *echo.HTTPError
			if errors.As(err, &httpError) {
				return httpError
			}

			switch {
			case apperrors.IsValidationError(err):
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			case apperrors.IsNotFoundError(err):
				return echo.NewHTTPError(http.StatusNotFound, err.Error())
			default:
				logger.Error("error processing request",
					zap.String("http.method", c.Request().Method),
					zap.String("http.uri", c.Request().RequestURI),
					zap.String("err", fmt.Sprintf("%+v", err)))
				return echo.NewHTTPError(http.StatusInternalServerError, genericErrorMessage)
			}
		}
	}
}

func EchoLogger(logger *zap.Logger) echo.MiddlewareFunc {
	httpLogger := logger.Sugar()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			if !httpLogger.Level().Enabled(zap.DebugLevel) {
				return next(c)
			}

			request := c.Request()
			response := c.Response()
			start := time.Now()
			if err = next(c); err != nil {
				c.Error(err)
			}

			httpLogger.Debugw("finished server http call",
				"http.code", response.Status,
				"http.method", request.Method,
				"http.uri", request.RequestURI,
				"http.start_time", start.Format(time.RFC3339),
				"http.duration", time.Since(start))

			return
		}
	}
}

func EchoRecover() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			apply := func() (topErr error) {
				defer func() {
					if r := recover(); r != nil {
						err, ok := r.(error)
						if !ok {
							err = fmt.Errorf("%v", r)
						}
						zap.L().Error("panic when processing request", zap.Error(err))
						topErr = err
					}
				}()
				return next(c)
			}
			return apply()
		}
	}
}
