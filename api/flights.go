package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/Domenick1991/flightreserve/internal/service/flights"
	"github.com/gin-gonic/gin"
)

type FlightHandler struct {
	service flights.FlightUseCase
}

type flightResponse struct {
	ID             int64    `json:"id"`
	Origin         string   `json:"origin"`
	Destination    string   `json:"destination"`
	Date           string   `json:"date"`
	DisplayDate    string   `json:"display_date"`
	AvailableSeats []string `json:"available_seats"`
	TotalSeats     int      `json:"total_seats"`
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:id", h.get)
}

// list returns the whole catalog, or the upcoming flights when ?from is set.
// limit only applies to the upcoming listing.
func (h *FlightHandler) list(c *gin.Context) {
	var (
		result []domain.Flight
		err    error
	)
	from := c.Query("from")
	if from == "" && c.Query("limit") != "" {
		badRequest(c, "limit requires from")
		return
	}
	if from != "" {
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil {
				badRequest(c, "invalid limit")
				return
			}
		}
		result, err = h.service.ListUpcoming(c.Request.Context(), from, limit)
	} else {
		result, err = h.service.List(c.Request.Context())
	}
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]flightResponse, 0, len(result))
	for i := range result {
		out = append(out, toFlightResponse(&result[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *FlightHandler) get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	flight, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFlightResponse(flight))
}

func toFlightResponse(f *domain.Flight) flightResponse {
	seats := f.AvailableSeats
	if seats == nil {
		seats = []string{}
	}
	return flightResponse{
		ID:             f.ID,
		Origin:         f.Origin,
		Destination:    f.Destination,
		Date:           f.Date,
		DisplayDate:    f.PrettyDate(),
		AvailableSeats: seats,
		TotalSeats:     f.TotalSeats,
	}
}
