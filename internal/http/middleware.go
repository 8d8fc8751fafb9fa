package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/streamline/internal/auth"
	"github.com/fyrsmithlabs/streamline/internal/logging"
)

// subjectKey holds the authenticated subject in the echo context.
const subjectKey = "auth.subject"

// requestContext carries the request ID into the request context and logs
// each request on completion.
func (s *Server) requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()
		rid := c.Response().Header().Get(echo.HeaderXRequestID)
		ctx := logging.WithRequestID(req.Context(), rid)
		c.SetRequest(req.WithContext(ctx))

		err := next(c)
		if err != nil {
			// Let echo write the response so the logged status is final.
			c.Error(err)
		}

		s.logger.Info(ctx, "http request",
			zap.String("method", req.Method),
			zap.String("uri", req.RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)),
		)
		return nil
	}
}

// bearerAuth rejects requests without a valid bearer token. It is a no-op
// when no verifier is configured.
func (s *Server) bearerAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.verifier == nil {
			return next(c)
		}

		token, err := auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if err == nil {
			var claims auth.Claims
			claims, err = s.verifier.Verify(token)
			if err == nil {
				c.Set(subjectKey, claims.Subject)
				return next(c)
			}
		}

		s.logger.Warn(c.Request().Context(), "rejected bearer token",
			zap.String("uri", c.Request().RequestURI),
			zap.Error(err),
		)
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer realm="streamline"`)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing bearer token")
	}
}
