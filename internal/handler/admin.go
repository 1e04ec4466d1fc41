package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/standakozak/ticketsbooking/internal/config"
	"github.com/standakozak/ticketsbooking/internal/model"
	"github.com/standakozak/ticketsbooking/internal/service"
	"github.com/standakozak/ticketsbooking/internal/utils"
)

const dateLayout = "2006-01-02"

// AdminHandler exposes the administration surface: login, the expiry
// sweep and its restore, payment reconciliation, attendee and seat
// reports, and the manual flag edits.
type AdminHandler struct {
	Cfg        config.Config
	Admin      *service.AdminService
	Sweeper    *service.Sweeper
	Reconciler *service.Reconciler
}

func NewAdminHandler(cfg config.Config, admin *service.AdminService, sweeper *service.Sweeper, rec *service.Reconciler) *AdminHandler {
	return &AdminHandler{Cfg: cfg, Admin: admin, Sweeper: sweeper, Reconciler: rec}
}

// ----- auth -----

type loginReq struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

// Login checks the admin credentials against the configured login name
// and bcrypt hash and returns a signed access token.
func (h *AdminHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.User != h.Cfg.AdminUser || !utils.VerifyPassword(h.Cfg.AdminPassHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, h.Cfg.AdminUser, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"token":   access.Token,
		"expires": access.Exp,
	})
}

// ----- sweep and restore -----

// Sweep cancels every expired unpaid booking and reports the result.
func (h *AdminHandler) Sweep(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	report, err := h.Sweeper.SweepExpired(ctx)
	if err != nil {
		return fail(c, err, "sweep failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"cancelled": report.Cancelled,
		"lines":     report.Lines,
	})
}

// RestoreSweep re-books the seats cancelled by the last sweep.
func (h *AdminHandler) RestoreSweep(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	report, err := h.Sweeper.RestoreLastSweep(ctx)
	if err != nil {
		return fail(c, err, "restore failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"restored": report.Restored,
		"lines":    report.Lines,
	})
}

type cancelSeatReq struct {
	AttendeeID uint64 `json:"attendee_id"`
}

// CancelSeat cancels one specific seat after verifying it belongs to
// the named attendee. The cancellation is restorable until the next
// sweep or single cancellation replaces the ledger.
func (h *AdminHandler) CancelSeat(c echo.Context) error {
	seatID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
	}
	var req cancelSeatReq
	if err := c.Bind(&req); err != nil || req.AttendeeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "attendee_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	snapshot, err := h.Sweeper.CancelSpecific(ctx, req.AttendeeID, seatID)
	if err != nil {
		return fail(c, err, "cancel failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"cancelled": snapshot})
}

// ----- reconciliation -----

// Reconcile pulls the bank feed for the period and marks attendees with
// sufficient payments as paid.
func (h *AdminHandler) Reconcile(c echo.Context) error {
	start, end, err := parsePeriod(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	results, err := h.Reconciler.Reconcile(ctx, start, end)
	if err != nil {
		return fail(c, err, "reconcile failed")
	}

	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, r.Describe())
	}
	return c.JSON(http.StatusOK, echo.Map{
		"classified": len(results),
		"lines":      lines,
	})
}

// ReconcileAndSweep is the combined end-of-period action: pull the bank
// feed and mark settled attendees paid, then sweep the expired unpaid
// bookings that remain. Running reconciliation first means nobody whose
// payment already arrived can be swept in the same pass.
func (h *AdminHandler) ReconcileAndSweep(c echo.Context) error {
	start, end, err := parsePeriod(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 90*time.Second)
	defer cancel()

	results, err := h.Reconciler.Reconcile(ctx, start, end)
	if err != nil {
		return fail(c, err, "reconcile failed")
	}
	report, err := h.Sweeper.SweepExpired(ctx)
	if err != nil {
		return fail(c, err, "sweep failed")
	}

	lines := make([]string, 0, len(results)+len(report.Lines))
	for _, r := range results {
		lines = append(lines, r.Describe())
	}
	lines = append(lines, report.Lines...)
	return c.JSON(http.StatusOK, echo.Map{
		"classified": len(results),
		"cancelled":  report.Cancelled,
		"lines":      lines,
	})
}

// Statement renders the period's account statement without changing
// any payment state.
func (h *AdminHandler) Statement(c echo.Context) error {
	start, end, err := parsePeriod(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	st, err := h.Reconciler.Statement(ctx, start, end)
	if err != nil {
		return fail(c, err, "statement failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"income":   st.Income,
		"expenses": st.Expenses,
		"balance":  st.Balance,
		"lines":    st.Lines,
	})
}

// ----- reports -----

// FindAttendee resolves an id-or-name search term to one attendee and
// its seats.
func (h *AdminHandler) FindAttendee(c echo.Context) error {
	term := c.QueryParam("q")
	if term == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "q required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	lines, err := h.Admin.AttendeeInfo(ctx, term)
	if err != nil {
		return fail(c, err, "lookup failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"lines": lines})
}

// ListAttendees lists attendees filtered by paid, collected and pickup
// place query parameters.
func (h *AdminHandler) ListAttendees(c echo.Context) error {
	f := model.AttendeeFilter{Pickup: model.PickupPlace(c.QueryParam("pickup"))}
	var err error
	if f.Paid, err = boolParam(c, "paid"); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if f.Collected, err = boolParam(c, "collected"); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	lines, err := h.Admin.ListAttendees(ctx, f)
	if err != nil {
		return fail(c, err, "listing failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"lines": lines})
}

// ListSeats lists booked seats filtered by the paid and collected query
// parameters.
func (h *AdminHandler) ListSeats(c echo.Context) error {
	paid, err := boolParam(c, "paid")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	collected, err := boolParam(c, "collected")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	lines, err := h.Admin.ListBookedSeats(ctx, paid, collected)
	if err != nil {
		return fail(c, err, "listing failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"lines": lines})
}

// ----- flag edits and deletion -----

type flagReq struct {
	Term  string `json:"term"`
	Value bool   `json:"value"`
}

// SetPaid manually flips the paid flag for an attendee and all its
// seats.
func (h *AdminHandler) SetPaid(c echo.Context) error {
	return h.editFlag(c, h.Admin.SetPaid)
}

// SetCollected marks an attendee's tickets as picked up (or not).
func (h *AdminHandler) SetCollected(c echo.Context) error {
	return h.editFlag(c, h.Admin.SetCollected)
}

func (h *AdminHandler) editFlag(c echo.Context, apply func(context.Context, string, bool) ([]string, error)) error {
	var req flagReq
	if err := c.Bind(&req); err != nil || req.Term == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "term required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	lines, err := apply(ctx, req.Term, req.Value)
	if err != nil {
		return fail(c, err, "edit failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"lines": lines})
}

// DeleteAttendee removes an attendee record that owns no seats.
func (h *AdminHandler) DeleteAttendee(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid attendee id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	lines, err := h.Admin.DeleteAttendee(ctx, id)
	if err != nil {
		return fail(c, err, "delete failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"lines": lines})
}

// ----- helpers -----

func parsePeriod(c echo.Context) (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, c.QueryParam("start"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("start must be YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, c.QueryParam("end"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("end must be YYYY-MM-DD")
	}
	return start, end, nil
}

func boolParam(c echo.Context, name string) (*bool, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, errors.New(name + " must be true or false")
	}
	return &b, nil
}
