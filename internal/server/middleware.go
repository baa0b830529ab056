package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"ctrdash/internal/runtime"
	"ctrdash/pkg/dataerr"
)

// RequestGuard bounds global concurrency and applies an operation timeout to
// each request using the runtime Controller. It guarantees release of the
// acquired slot.
func RequestGuard(ctrl *runtime.Controller) fiber.Handler {
	limits := ctrl.LimitsSnapshot()
	return func(c *fiber.Ctx) error {
		acquireCtx := c.UserContext()
		if limits.AcquireRequestTimeout > 0 {
			var cancel context.CancelFunc
			acquireCtx, cancel = context.WithTimeout(acquireCtx, limits.AcquireRequestTimeout)
			defer cancel()
		}

		if err := ctrl.AcquireRequest(acquireCtx); err != nil {
			return c.Status(http.StatusTooManyRequests).JSON(ErrorResponse{
				Error:    string(dataerr.BusyResource),
				Message:  dataerr.New(dataerr.BusyResource, "").Error(),
				Guidance: dataerr.Guidance(dataerr.BusyResource),
			})
		}
		defer ctrl.ReleaseRequest()

		callCtx := c.UserContext()
		cancel := func() {}
		if limits.OperationTimeout > 0 {
			callCtx, cancel = context.WithTimeout(callCtx, limits.OperationTimeout)
		}
		defer cancel()
		c.SetUserContext(callCtx)

		err := c.Next()
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return c.Status(http.StatusGatewayTimeout).JSON(ErrorResponse{
				Error:    string(dataerr.Timeout),
				Message:  dataerr.New(dataerr.Timeout, "").Error(),
				Guidance: dataerr.Guidance(dataerr.Timeout),
			})
		}
		return err
	}
}
