package api

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/Domenick1991/flightreserve/internal/service/booking"
	"github.com/Domenick1991/flightreserve/internal/service/flights"
	"github.com/Domenick1991/flightreserve/internal/service/sessions"
	"github.com/Domenick1991/flightreserve/internal/service/users"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

const swaggerSpecURL = "/swagger/flightreserve.swagger.json"

var registerOnce sync.Once

type RouterDeps struct {
	Flights  flights.FlightUseCase
	Bookings booking.BookingUseCase
	Users    users.UserUseCase
	Sessions sessions.SessionUseCase
	Log      *zap.Logger

	// Health reports whether the backing stores answer.
	Health     func(ctx context.Context) error
	SwaggerDir string
}

func NewRouter(deps RouterDeps) *gin.Engine {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	registerValidators()

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log))

	r.GET("/healthz", healthz(deps.Health))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if deps.SwaggerDir != "" {
		r.Static("/swagger", deps.SwaggerDir)
		r.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL(swaggerSpecURL))))
	}

	requireSession := RequireSession(deps.Sessions)

	NewFlightHandler(deps.Flights).Register(r.Group("/flights"))
	NewReservationHandler(deps.Bookings).Register(r.Group("/reservations", requireSession))
	NewUserHandler(deps.Users).Register(r.Group("/users"), r.Group("/users", requireSession))
	NewSessionHandler(deps.Sessions).Register(r.Group("/sessions"), r.Group("/sessions", requireSession))

	return r
}

func registerValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("seatlabel", func(fl validator.FieldLevel) bool {
				return domain.ValidSeatLabel(strings.TrimSpace(fl.Field().String()))
			})
		}
	})
}

func healthz(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			if err := check(c.Request.Context()); err != nil {
				_ = c.Error(err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
