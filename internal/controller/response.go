// Package controller holds the gin handlers of the HTTP API.
// Every response is a JSON object with "status" and "msg" plus a payload key.
package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"task-manager/internal/errs"
	"task-manager/internal/middleware"
	"task-manager/pkg/logger"
)

const internalError = "Internal Server Error"

func ok(c *gin.Context, code int, msg string, payload gin.H) {
	body := gin.H{"status": true, "msg": msg}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(code, body)
}

func fail(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"status": false, "msg": msg})
}

// statusFor maps the error taxonomy to HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, op string, err error) {
	ctx := c.Request.Context()
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		if isContextErr(err) && ctx.Err() != nil {
			return
		}
		logger.Error(ctx, op+" failed", "error", err)
		fail(c, code, internalError)
		return
	}
	logger.Debug(ctx, op+" rejected", "error", err, "code", code)
	fail(c, code, err.Error())
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// actor returns the authenticated account or writes 401.
func actor(c *gin.Context) (uuid.UUID, bool) {
	id, found := middleware.AccountID(c)
	if !found {
		fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	return id, found
}

// taskID parses the :id path param. A malformed id cannot name a task, so it is a 404.
func taskID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusNotFound, "Task with given ID not found")
		return uuid.Nil, false
	}
	return id, true
}
