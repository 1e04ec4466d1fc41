// Package handler contains the HTTP endpoints: public booking and
// availability, and the authenticated admin surface.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/standakozak/ticketsbooking/internal/model"
)

// fail translates service errors into JSON error responses. Known
// sentinels map to specific statuses; anything else is a 500 with the
// generic message msg so internals never leak to the client.
func fail(c echo.Context, err error, msg string) error {
	switch {
	case errors.Is(err, model.ErrNoSeatsRequested):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, model.ErrTooManyTickets):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	case errors.Is(err, model.ErrInsufficientInventory),
		errors.Is(err, model.ErrStateConflict),
		errors.Is(err, model.ErrAttendeeHasSeats):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, model.ErrAttendeeNotFound),
		errors.Is(err, model.ErrSeatNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, model.ErrPaymentFeedUnavailable):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error()})
	default:
		c.Logger().Errorf("%s: %v", msg, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": msg})
	}
}
