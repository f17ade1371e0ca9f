package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
	RequestTimeout time.Duration
	Logger         *logrus.Logger
}

// NewRouter собирает gin-движок со всеми маршрутами API.
func NewRouter(svc Services, opts Options) *gin.Engine {
	h := &handler{svc: svc, log: opts.Logger}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(AccessLog(opts.Logger))
	r.Use(cors.New(corsConfig(opts.AllowedOrigins)))
	r.Use(RequestTimeout(opts.RequestTimeout))

	r.GET("/health", h.health)

	api := r.Group("/api")
	api.Use(Authenticate(opts.JWTSecret, svc.Identity, opts.Logger))
	{
		api.GET("/me", h.me)

		api.POST("/users", h.createUser)
		api.GET("/users", h.listUsers)
		api.GET("/users/:id", h.getUser)
		api.PATCH("/users/:id", h.updateUser)
		api.DELETE("/users/:id", h.deleteUser)

		api.POST("/clients", h.registerClient)

		api.GET("/serviceproviders", h.listProviders)
		api.GET("/serviceproviders/:id", h.getProvider)
		api.POST("/serviceproviders", h.createProvider)
		api.PATCH("/serviceproviders/:id", h.updateProvider)
		api.DELETE("/serviceproviders/:id", h.deleteProvider)

		api.GET("/services", h.listServices)
		api.GET("/services/:id", h.getService)
		api.POST("/services", h.createService)
		api.PATCH("/services/:id", h.updateService)
		api.DELETE("/services/:id", h.deleteService)

		api.GET("/bookings", h.listBookings)
		api.GET("/bookings/:id", h.getBooking)
		api.POST("/bookings", h.createBooking)
		api.PATCH("/bookings/:id", h.patchBooking)
		api.POST("/bookings/:id/confirm", h.confirmBooking)
		api.POST("/bookings/:id/complete", h.completeBooking)
		api.DELETE("/bookings/:id", h.cancelBooking)

		api.POST("/bookings/:id/payment", h.payBooking)
		api.GET("/bookings/:id/payment", h.getPayment)

		api.POST("/bookings/:id/event-details", h.attachEventDetails)
		api.GET("/bookings/:id/event-details", h.getEventDetails)
		api.PATCH("/bookings/:id/event-details", h.updateEventDetails)

		api.GET("/reviews", h.listReviews)
		api.GET("/reviews/:id", h.getReview)
		api.POST("/reviews", h.createReview)
		api.PATCH("/reviews/:id", h.updateReview)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
