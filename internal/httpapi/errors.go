package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/harmoni/harmoniconnect/internal/apperr"
)

type errorBody struct {
	Kind     apperr.Kind       `json:"kind"`
	Code     string            `json:"code,omitempty"`
	Message  string            `json:"message"`
	Fields   map[string]string `json:"fields,omitempty"`
	Current  string            `json:"current,omitempty"`
	Required string            `json:"required,omitempty"`
	Details  map[string]string `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func statusFor(e *apperr.Error) int {
	switch e.Kind {
	case apperr.KindAuthorization:
		if e.Anonymous {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case apperr.KindValidation, apperr.KindReferential:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindTransientStore:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError пишет ошибку в едином формате и прерывает цепочку.
// Неизвестные ошибки наружу не раскрываются.
func respondError(c *gin.Context, log *logrus.Logger, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		log.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).WithError(err).Error("unhandled error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: errorBody{
			Kind:    "internal",
			Message: "internal server error",
		}})
		return
	}

	status := statusFor(ae)
	if status >= http.StatusInternalServerError {
		log.WithError(err).Warn("request failed")
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: errorBody{
		Kind:     ae.Kind,
		Code:     ae.Code,
		Message:  ae.Message,
		Fields:   ae.Fields,
		Current:  ae.Current,
		Required: ae.Required,
		Details:  ae.Details,
	}})
}

// bindError превращает ошибку декодирования тела в ошибку валидации.
func bindError(err error) error {
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return apperr.Validation(map[string]string{"non_field_errors": "Request body is empty."})
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return apperr.Validation(map[string]string{typeErr.Field: "Incorrect type."})
	default:
		return apperr.Validation(map[string]string{"non_field_errors": "Malformed JSON payload."})
	}
}
