package controllers

import (
	"errors"
	"net/http"

	"bundler/chains"
	"bundler/entrypoint"
	"bundler/services"
	"bundler/store"

	"github.com/gin-gonic/gin"
)

// respondError 把类型化错误映射为 HTTP 状态码
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var derr *entrypoint.DispatchError
	switch {
	case errors.Is(err, chains.ErrUnknownChain),
		errors.Is(err, entrypoint.ErrInvalidFieldValue),
		errors.Is(err, services.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &derr):
		status := http.StatusUnprocessableEntity
		if derr.Kind == entrypoint.Transient {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"error":     err.Error(),
			"kind":      derr.Kind.String(),
			"retryable": derr.Kind == entrypoint.Transient,
		})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
