package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/standakozak/ticketsbooking/internal/model"
	"github.com/standakozak/ticketsbooking/internal/service"
)

// BookingHandler exposes the public sale endpoints.
type BookingHandler struct {
	Booking *service.BookingService
}

func NewBookingHandler(b *service.BookingService) *BookingHandler {
	return &BookingHandler{Booking: b}
}

// ----- DTOs -----

type attendeeReq struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	PickupPlace string `json:"pickup_place"`
}

type standingReq struct {
	attendeeReq
	Tickets int `json:"tickets"`
}

type tableSelection struct {
	Table uint `json:"table"`
	Seats int  `json:"seats"`
}

type tablesReq struct {
	attendeeReq
	Tables []tableSelection `json:"tables"`
}

type bookingResp struct {
	AttendeeID uint64   `json:"attendee_id"`
	Tickets    int      `json:"tickets"`
	TotalPrice int64    `json:"total_price"`
	Details    []string `json:"details"`
	MailSent   bool     `json:"mail_sent"`
}

func (r attendeeReq) details() (service.AttendeeDetails, bool) {
	name := strings.TrimSpace(r.Name)
	email := strings.TrimSpace(r.Email)
	if name == "" || email == "" {
		return service.AttendeeDetails{}, false
	}
	return service.AttendeeDetails{
		Name:   name,
		Email:  email,
		Phone:  strings.TrimSpace(r.Phone),
		Pickup: model.ParsePickupPlace(r.PickupPlace),
	}, true
}

// BookStanding claims standing tickets for a new attendee.
func (h *BookingHandler) BookStanding(c echo.Context) error {
	var req standingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	who, ok := req.details()
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Booking.BookStanding(ctx, who, req.Tickets)
	if err != nil {
		return fail(c, err, "booking failed")
	}
	return c.JSON(http.StatusCreated, toBookingResp(res))
}

// BookTables claims seats at the requested tables for a new attendee.
// The whole selection succeeds or fails together.
func (h *BookingHandler) BookTables(c echo.Context) error {
	var req tablesReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	who, ok := req.details()
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/email required"})
	}

	tables := make(map[uint]int, len(req.Tables))
	for _, sel := range req.Tables {
		tables[sel.Table] += sel.Seats
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Booking.BookTables(ctx, who, tables)
	if err != nil {
		return fail(c, err, "booking failed")
	}
	return c.JSON(http.StatusCreated, toBookingResp(res))
}

// Availability reports free seats per table and the remaining standing
// capacity. Sits behind the response cache.
func (h *BookingHandler) Availability(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tables, standing, err := h.Booking.Availability(ctx)
	if err != nil {
		return fail(c, err, "availability lookup failed")
	}

	type tableAvail struct {
		Table uint   `json:"table"`
		Hall  string `json:"hall"`
		Free  int    `json:"free"`
	}
	out := make([]tableAvail, 0, len(tables))
	for t := model.FirstTable; t <= model.LastTable; t++ {
		out = append(out, tableAvail{
			Table: model.DisplayTable(t),
			Hall:  string(model.HallForTable(t)),
			Free:  tables[t],
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"tables":   out,
		"standing": standing,
	})
}

func toBookingResp(res service.BookingResult) bookingResp {
	return bookingResp{
		AttendeeID: res.AttendeeID,
		Tickets:    res.Tickets,
		TotalPrice: res.TotalPrice,
		Details:    res.Details,
		MailSent:   res.MailSent,
	}
}
