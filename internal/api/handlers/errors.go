package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/btc-dashboard-go/internal/utils"
)

// respondError writes {"error": msg} with the status mapped from the error kind.
func respondError(c *gin.Context, logger *logrus.Logger, operation string, err error) {
	status := utils.HTTPStatus(err)

	entry := logger.WithFields(logrus.Fields{
		"component": "api",
		"operation": operation,
		"status":    status,
		"kind":      utils.KindOf(err).String(),
		"error":     err.Error(),
	})
	if status >= 500 {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	_ = c.Error(err)
	c.JSON(status, gin.H{"error": errorMessage(err)})
}

// errorMessage is the caller-facing text: the AppError message when there is
// one, the raw error otherwise.
func errorMessage(err error) string {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
