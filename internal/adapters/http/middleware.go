package httpadapter

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/observability"
)

const requestIDHeader = "X-Request-ID"

// requestID assigns every request an id and stores it in the context so the
// whole operation logs under it.
func requestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID := c.Request().Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}

			ctx := observability.WithRequestID(c.Request().Context(), reqID)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Response().Header().Set(requestIDHeader, reqID)

			return next(c)
		}
	}
}
