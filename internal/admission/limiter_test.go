package admission

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pegwatch/pkg/config"
)

func newTestController(limit int, window time.Duration) *Controller {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewController(&config.AdmissionConfig{Limit: limit, Window: window}, log)
}

func TestCheckConsumesQuota(t *testing.T) {
	c := newTestController(3, time.Hour)

	for i := 0; i < 3; i++ {
		d := c.Check("10.0.0.1")
		assert.True(t, d.Allowed, "request %d should be admitted", i+1)
		assert.Equal(t, 3, d.Limit)
		assert.Equal(t, 2-i, d.Remaining)
	}

	denied := c.Check("10.0.0.1")
	assert.False(t, denied.Allowed)
	assert.Equal(t, 0, denied.Remaining)
	assert.Greater(t, denied.RetryAfter, time.Duration(0))
}

func TestCheckIsPerClient(t *testing.T) {
	c := newTestController(1, time.Hour)

	assert.True(t, c.Check("10.0.0.1").Allowed)
	assert.False(t, c.Check("10.0.0.1").Allowed)
	assert.True(t, c.Check("10.0.0.2").Allowed)
}

func TestWindowReset(t *testing.T) {
	c := newTestController(1, time.Hour)
	now := time.Now()
	c.now = func() time.Time { return now }

	require.True(t, c.Check("10.0.0.1").Allowed)
	require.False(t, c.Check("10.0.0.1").Allowed)

	now = now.Add(2 * time.Hour)
	d := c.Check("10.0.0.1")
	assert.True(t, d.Allowed, "elapsed window must reset the count")
}

func TestPeekDoesNotConsume(t *testing.T) {
	c := newTestController(2, time.Hour)

	c.Check("10.0.0.1")
	before := c.Peek("10.0.0.1")
	after := c.Peek("10.0.0.1")
	assert.Equal(t, before.Remaining, after.Remaining)
	assert.Equal(t, 1, after.Remaining)
}

func TestSweepDropsElapsedWindows(t *testing.T) {
	c := newTestController(5, time.Hour)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Check("10.0.0.1")
	c.Check("10.0.0.2")
	assert.Equal(t, 0, c.Sweep())

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 2, c.Sweep())
}

func TestClientKeyPrecedence(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/assessment/USDC", nil)
	r.RemoteAddr = "192.0.2.10:43111"
	assert.Equal(t, "192.0.2.10", ClientKey(r))

	r.Header.Set("X-Real-IP", "203.0.113.7")
	assert.Equal(t, "203.0.113.7", ClientKey(r))

	r.Header.Set("X-Forwarded-For", "198.51.100.4, 203.0.113.7")
	assert.Equal(t, "198.51.100.4", ClientKey(r))
}
