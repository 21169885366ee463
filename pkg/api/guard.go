package api

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/latticelabs/helix/pkg/metrics"
	"github.com/latticelabs/helix/pkg/models"
)

// concurrencyGuard bounds simultaneous in-flight requests on a route
// with a slot semaphore. A full guard rejects with the current in-flight
// count; slots release on every completion path, including panics and
// client aborts.
type concurrencyGuard struct {
	slots    chan struct{}
	inFlight atomic.Int64
	metrics  *metrics.Metrics
}

// newConcurrencyGuard creates a guard with max slots. max <= 0 disables
// the guard.
func newConcurrencyGuard(max int, m *metrics.Metrics) *concurrencyGuard {
	g := &concurrencyGuard{metrics: m}
	if max > 0 {
		g.slots = make(chan struct{}, max)
	}
	return g
}

func (g *concurrencyGuard) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if g.slots == nil {
			c.Next()
			return
		}

		select {
		case g.slots <- struct{}{}:
			g.inFlight.Add(1)
			defer func() {
				g.inFlight.Add(-1)
				<-g.slots
			}()
			c.Next()
		default:
			if g.metrics != nil {
				g.metrics.RecordRejection(models.ReasonConcurrencyExhausted)
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, concurrencyResponse{
				Error:    models.ReasonConcurrencyExhausted,
				InFlight: int(g.inFlight.Load()),
			})
		}
	}
}

// currentInFlight reports how many requests hold a slot.
func (g *concurrencyGuard) currentInFlight() int {
	return int(g.inFlight.Load())
}
