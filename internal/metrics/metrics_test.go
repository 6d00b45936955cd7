package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.Sampled()
	c.Sampled()
	c.Decoded("found")
	c.Outcome("success", "camera")
	c.Outcome("already_recorded", "manual")
	c.CameraError("permission_denied")
	c.Transition("idle", "name_entry")
	c.ObserveVerification("camera", 120*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.samples))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.decodes.WithLabelValues("found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.outcomes.WithLabelValues("already_recorded", "manual")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.cameraErrors.WithLabelValues("permission_denied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.transitions.WithLabelValues("idle", "name_entry")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 6)
}

func TestNilCollectorsAreSafe(t *testing.T) {
	var c *Collectors
	assert.NotPanics(t, func() {
		c.Sampled()
		c.Decoded("empty")
		c.Outcome("success", "camera")
		c.CameraError("unknown")
		c.Transition("a", "b")
		c.ObserveVerification("manual", time.Second)
	})
}
