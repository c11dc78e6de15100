package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/Domenick1991/flightreserve/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	service booking.BookingUseCase
}

type createReservationRequest struct {
	FlightID   int64  `json:"flight_id" binding:"required,gt=0"`
	SeatNumber string `json:"seat_number" binding:"required,seatlabel"`
}

type reservationResponse struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"user_id"`
	FlightID   int64           `json:"flight_id"`
	SeatNumber string          `json:"seat_number"`
	CreatedAt  string          `json:"created_at"`
	Flight     *flightResponse `json:"flight,omitempty"`
}

func NewReservationHandler(service booking.BookingUseCase) *ReservationHandler {
	return &ReservationHandler{service: service}
}

func (h *ReservationHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.DELETE("/:id", h.cancel)
}

func (h *ReservationHandler) create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		writeError(c, domain.ErrUnauthorized)
		return
	}

	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	reservation, err := h.service.Reserve(c.Request.Context(), booking.ReserveInput{
		UserID:    userID,
		FlightID:  req.FlightID,
		SeatLabel: req.SeatNumber,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponse(reservation))
}

func (h *ReservationHandler) list(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		writeError(c, domain.ErrUnauthorized)
		return
	}

	reservations, err := h.service.ListForUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]reservationResponse, 0, len(reservations))
	for i := range reservations {
		out = append(out, toReservationResponse(&reservations[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *ReservationHandler) cancel(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		writeError(c, domain.ErrUnauthorized)
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Cancel(c.Request.Context(), id, userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

func toReservationResponse(r *domain.Reservation) reservationResponse {
	resp := reservationResponse{
		ID:         r.ID,
		UserID:     r.UserID,
		FlightID:   r.FlightID,
		SeatNumber: r.SeatLabel,
		CreatedAt:  r.CreatedAt.Format(time.RFC3339),
	}
	if r.Flight != nil {
		flight := toFlightResponse(r.Flight)
		resp.Flight = &flight
	}
	return resp
}
