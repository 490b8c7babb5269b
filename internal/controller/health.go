package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Health returns 200 if the process is alive. Used by load balancers.
func Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// Ready returns 200 if every named dependency answers. Used by K8s readiness probes.
func Ready(checks map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		for name, p := range checks {
			if p == nil {
				fail(c, http.StatusServiceUnavailable, name+" unavailable")
				return
			}
			if err := p.Ping(ctx); err != nil {
				fail(c, http.StatusServiceUnavailable, name+" ping failed")
				return
			}
		}
		c.String(http.StatusOK, "OK")
	}
}
