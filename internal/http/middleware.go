package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/carissacho3/pet-adoption-backend/internal/auth"
	"github.com/carissacho3/pet-adoption-backend/internal/domain"
	"github.com/carissacho3/pet-adoption-backend/internal/service"
)

const identityKey = "identity"

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(requestFields(c)).WithFields(logrus.Fields{
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}

func requestFields(c *gin.Context) logrus.Fields {
	return logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
		"client": c.ClientIP(),
	}
}

// authGuard resolves the bearer token to a stored user and attaches it to the
// context. Requests never reach the next handler without an identity.
func (h *Handler) authGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			h.rejectUnauthenticated(c, "missing", "not authorized, no token")
			return
		}

		claims, err := h.tokens.Parse(token)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				h.rejectUnauthenticated(c, "expired", "token expired, please log in again")
				return
			}
			h.rejectUnauthenticated(c, "invalid", "not authorized, token failed")
			return
		}

		user, err := h.users.Resolve(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, service.ErrUnknownUser) {
				h.rejectUnauthenticated(c, "unknown_user", service.ErrUnknownUser.Message)
				return
			}
			h.fail(c, err)
			return
		}

		c.Set(identityKey, user)
		c.Next()
	}
}

func (h *Handler) rejectUnauthenticated(c *gin.Context, reason, message string) {
	h.logger.WithFields(requestFields(c)).WithField("reason", reason).Warn("authentication rejected")
	abortWith(c, service.KindUnauthenticated, message)
}

// requireRole admits only identities attached by authGuard whose role is listed.
func (h *Handler) requireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			abortWith(c, service.KindUnauthenticated, "not authorized")
			return
		}
		if !hasRole(user, roles) {
			h.logger.WithFields(requestFields(c)).WithField("user", user.ID).Warn("role check failed")
			abortWith(c, service.KindForbidden, "forbidden")
			return
		}
		c.Next()
	}
}

func hasRole(user *domain.User, roles []domain.Role) bool {
	for _, role := range roles {
		if user.Role == role {
			return true
		}
	}
	return false
}

func currentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*domain.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
