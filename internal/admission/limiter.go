package admission

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pegwatch/pkg/config"
)

// Decision is the outcome of an admission check for one request.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

type window struct {
	count   int
	resetAt time.Time
}

// Controller enforces a fixed-window request quota per client. The window
// starts at a client's first request and resets wholesale when it elapses;
// there is no sliding credit.
type Controller struct {
	mu      sync.Mutex
	clients map[string]*window
	limit   int
	span    time.Duration
	logger  *logrus.Entry
	now     func() time.Time
}

// NewController creates a quota controller from configuration.
func NewController(cfg *config.AdmissionConfig, log *logrus.Logger) *Controller {
	return &Controller{
		clients: make(map[string]*window),
		limit:   cfg.Limit,
		span:    cfg.Window,
		logger:  log.WithField("component", "admission"),
		now:     time.Now,
	}
}

// Check consumes one unit of quota for the client and reports the decision.
// The count is incremented before comparison, so a client at the limit is
// refused and the refusal itself does not burn additional quota beyond the
// recorded overage.
func (c *Controller) Check(clientKey string) Decision {
	now := c.now()

	c.mu.Lock()
	w, ok := c.clients[clientKey]
	if !ok || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(c.span)}
		c.clients[clientKey] = w
	}
	w.count++
	count := w.count
	resetAt := w.resetAt
	c.mu.Unlock()

	remaining := c.limit - count
	d := Decision{
		Allowed:   remaining >= 0,
		Limit:     c.limit,
		Remaining: remaining,
		ResetTime: resetAt,
	}
	if remaining < 0 {
		d.Remaining = 0
		d.RetryAfter = resetAt.Sub(now)
		if d.RetryAfter < 0 {
			d.RetryAfter = 0
		}
		c.logger.WithFields(logrus.Fields{
			"client": clientKey,
			"count":  count,
			"limit":  c.limit,
		}).Warn("Request quota exceeded")
	}
	return d
}

// Peek reports the remaining quota for a client without consuming any.
func (c *Controller) Peek(clientKey string) Decision {
	now := c.now()

	c.mu.Lock()
	w, ok := c.clients[clientKey]
	var count int
	resetAt := now.Add(c.span)
	if ok && !now.After(w.resetAt) {
		count = w.count
		resetAt = w.resetAt
	}
	c.mu.Unlock()

	remaining := c.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   remaining > 0,
		Limit:     c.limit,
		Remaining: remaining,
		ResetTime: resetAt,
	}
}

// Sweep drops windows that have elapsed and returns how many were removed.
func (c *Controller) Sweep() int {
	now := c.now()
	c.mu.Lock()
	removed := 0
	for key, w := range c.clients {
		if now.After(w.resetAt) {
			delete(c.clients, key)
			removed++
		}
	}
	c.mu.Unlock()
	if removed > 0 {
		c.logger.WithField("removed", removed).Debug("Swept expired admission windows")
	}
	return removed
}

// ClientKey derives the quota identity for a request. Proxy headers are
// trusted in order; the first address in X-Forwarded-For is the origin
// client.
func ClientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
