package httpserver

import (
	"context"
	"errors"
	"net/http"

	"cartify/internal/domain"
	"cartify/internal/logging"
	"cartify/internal/remote"
	"cartify/internal/service/billing"
	"cartify/internal/service/cart"
	"cartify/internal/service/fulfillment"
	"cartify/internal/service/posadmin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var conflictErrors = []error{
	fulfillment.ErrBusy,
	fulfillment.ErrNoBill,
	fulfillment.ErrStaleBill,
	fulfillment.ErrAlreadyCompleted,
	fulfillment.ErrDiscarded,
	billing.ErrSuperseded,
	cart.ErrLocked,
}

func errorStatus(err error) int {
	var pf *domain.PaymentFailure
	var re *remote.Error
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case isConflict(err):
		return http.StatusConflict
	case errors.As(err, &pf):
		switch pf.Kind {
		case domain.FailureValidation:
			return http.StatusBadRequest
		case domain.FailureNetwork, domain.FailureRemote:
			return http.StatusBadGateway
		default:
			return http.StatusPaymentRequired
		}
	case remote.IsUnavailable(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, posadmin.ErrInvalidDocument), errors.As(err, &re):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func isConflict(err error) bool {
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// errorMessage prefers the message the remote service gave.
func errorMessage(err error, status int) string {
	var pf *domain.PaymentFailure
	if errors.As(err, &pf) {
		return pf.Reason
	}
	var re *remote.Error
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	if status == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}

func writeError(c *gin.Context, logger *zap.Logger, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request.Context(), logger).Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	body := gin.H{"success": false, "message": errorMessage(err, status)}
	var pf *domain.PaymentFailure
	if errors.As(err, &pf) {
		body["kind"] = pf.Kind
	}
	c.AbortWithStatusJSON(status, body)
}

func requireSession(session SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := session.Current(); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": domain.ErrUnauthenticated.Error()})
			return
		}
		c.Next()
	}
}

func requireAdmin(session SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := session.Current()
		if !ok || !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "admin role required"})
			return
		}
		c.Next()
	}
}
