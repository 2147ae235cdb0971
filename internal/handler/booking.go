package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"campusd/internal/booking"
)

// ListRooms filters by ?q= when given, otherwise by the session's search text.
func (h *Handler) ListRooms(c *gin.Context) {
	p := h.session(c).Booking
	ctx := c.Request.Context()

	var (
		rooms []booking.Room
		err   error
	)
	if q, ok := c.GetQuery("q"); ok {
		rooms, err = p.AllRooms(ctx)
		rooms = booking.FilterRooms(rooms, q)
	} else {
		rooms, err = p.Rooms(ctx)
	}
	if err != nil {
		h.internalError(c, "failed to load rooms", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

func (h *Handler) RoomDetails(c *gin.Context) {
	room, err := h.session(c).Booking.FindRoom(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, booking.ErrUnknownRoom):
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	case err != nil:
		h.internalError(c, "failed to load rooms", err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *Handler) ListBookings(c *gin.Context) {
	bookings, err := h.session(c).Booking.Bookings(c.Request.Context())
	if err != nil {
		h.internalError(c, "failed to load bookings", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// BookRoom leaves validation to the provider so every failure also reaches
// the session's notifications.
func (h *Handler) BookRoom(c *gin.Context) {
	var form booking.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.session(c).Booking.Book(c.Request.Context(), form)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"booked": true})
	case errors.Is(err, booking.ErrInvalidForm):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrUnknownRoom):
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to book room. Please try again."})
	}
}

func (h *Handler) CancelBooking(c *gin.Context) {
	if !h.session(c).Booking.CancelBooking(c.Request.Context(), c.Param("id")) {
		c.JSON(http.StatusConflict, gin.H{"error": "Failed to cancel booking. Please try again."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}

func (h *Handler) BookingState(c *gin.Context) {
	st, err := h.session(c).Booking.State(c.Request.Context())
	if err != nil {
		h.internalError(c, "failed to load bookings", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

type bookingDialogRequest struct {
	Dialog string `json:"dialog" binding:"required,oneof=booking detail"`
	Open   *bool  `json:"open" binding:"required"`
	RoomID string `json:"roomId"`
}

// BookingDialog opens a dialog on a room, or closes one.
func (h *Handler) BookingDialog(c *gin.Context) {
	var req bookingDialogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p := h.session(c).Booking
	ctx := c.Request.Context()

	switch {
	case !*req.Open && req.Dialog == "booking":
		p.SetBookingDialogOpen(false)
	case !*req.Open:
		p.SetDetailDialogOpen(false)
	case req.Dialog == "booking" && !p.OpenBookingDialog(ctx, req.RoomID),
		req.Dialog == "detail" && !p.OpenRoomDetails(ctx, req.RoomID):
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	h.BookingState(c)
}

func (h *Handler) GetSelection(c *gin.Context) {
	c.JSON(http.StatusOK, h.session(c).Booking.Selection())
}

func (h *Handler) PutSelection(c *gin.Context) {
	var sel booking.Selection
	if err := c.ShouldBindJSON(&sel); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.session(c).Booking.SetSelection(sel))
}
