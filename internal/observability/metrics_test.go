package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCountCredentialActivity(t *testing.T) {
	m := NewMetrics()

	m.CredentialIssued("confirmed")
	m.CredentialIssued("confirmed")
	m.Verification("Valid")
	m.Verification("Expired")
	m.TokenCollision()
	m.EncodingFailure()
	m.CredentialsExpired(3)
	m.CredentialsExpired(0)
	m.RecordRequest("/api/bookings", "POST", 201, 15*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.credentialsIssued.WithLabelValues("confirmed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.verifications.WithLabelValues("Expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tokenCollisions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.encodingFailures))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.credentialsExpired))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("POST", "/api/bookings", "201")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CredentialIssued("confirmed")
		m.Verification("Valid")
		m.RecordError("/", "GET", "NOT_FOUND")
	})
}
