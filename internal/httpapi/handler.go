// Package httpapi exposes the booking core over JSON/HTTP with gin.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/harmoni/harmoniconnect/internal/apperr"
	"github.com/harmoni/harmoniconnect/internal/pagination"
	"github.com/harmoni/harmoniconnect/internal/service"
)

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services — всё, что нужно обработчикам.
type Services struct {
	Identity     *service.IdentityService
	Providers    *service.ProviderService
	Catalog      *service.CatalogService
	Bookings     *service.BookingService
	Reviews      *service.ReviewService
	Payments     *service.PaymentService
	EventDetails *service.EventDetailsService
	Store        Pinger
}

type handler struct {
	svc Services
	log *logrus.Logger
}

func (h *handler) fail(c *gin.Context, err error) {
	respondError(c, h.log, err)
}

// pathID parses :id; an unparsable id cannot match any row.
func pathID(c *gin.Context, resource string) (uuid.UUID, error) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.NotFound(resource, raw)
	}
	return id, nil
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return bindError(err)
	}
	return nil
}

type pageQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

func pageParams(c *gin.Context) (pagination.Params, error) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return pagination.Params{}, apperr.Validation(map[string]string{"page": "A valid integer is required."})
	}
	return pagination.Params{Page: q.Page, PageSize: q.PageSize}, nil
}

// queryID reads an optional uuid filter from the query string.
func queryID(c *gin.Context, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.Validation(map[string]string{name: "Must be a valid UUID."})
	}
	return &id, nil
}

func writePage[T, U any](c *gin.Context, page pagination.Page[T], fn func(T) U) {
	c.JSON(http.StatusOK, pagination.Map(page, fn))
}

func (h *handler) health(c *gin.Context) {
	if h.svc.Store != nil {
		if err := h.svc.Store.Ping(c.Request.Context()); err != nil {
			h.log.WithError(err).Warn("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
