package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carissacho3/pet-adoption-backend/internal/service"
)

type errorResponse struct {
	Code    service.Kind `json:"code"`
	Message string       `json:"message"`
}

var statusByKind = map[service.Kind]int{
	service.KindBadRequest:      http.StatusBadRequest,
	service.KindUnauthenticated: http.StatusUnauthorized,
	service.KindForbidden:       http.StatusForbidden,
	service.KindNotFound:        http.StatusNotFound,
	service.KindConflict:        http.StatusConflict,
	service.KindInternal:        http.StatusInternalServerError,
}

const internalMessage = "internal server error"

func statusForKind(kind service.Kind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func abortWith(c *gin.Context, kind service.Kind, message string) {
	c.AbortWithStatusJSON(statusForKind(kind), errorResponse{Code: kind, Message: message})
}

// fail writes err as a structured response. Internal failures are logged with
// their cause and reported with a generic message.
func (h *Handler) fail(c *gin.Context, err error) {
	kind := service.KindOf(err)
	if kind == service.KindInternal {
		h.logger.WithError(err).WithFields(requestFields(c)).Error("request failed")
		abortWith(c, kind, internalMessage)
		return
	}

	message := err.Error()
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		message = svcErr.Message
	}
	abortWith(c, kind, message)
}
