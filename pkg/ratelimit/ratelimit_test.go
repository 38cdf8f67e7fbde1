package ratelimit

import (
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoginRateLimiter(t *testing.T) {
	rl := NewLoginRateLimiter(3, time.Minute)
	t.Cleanup(rl.Stop)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"))
	}
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "other IPs are unaffected")
	assert.Greater(t, rl.RetryAfterSeconds("10.0.0.1"), 0)

	rl.Reset("10.0.0.1")
	assert.True(t, rl.Allow("10.0.0.1"))
}

func TestMessageRateLimiterCooldown(t *testing.T) {
	rl := NewMessageRateLimiter(2, time.Minute, 50*time.Millisecond)
	t.Cleanup(rl.Stop)

	assert.True(t, rl.Allow(1))
	assert.True(t, rl.Allow(1))
	assert.False(t, rl.Allow(1))
	assert.Equal(t, 1, rl.CooldownSeconds(1))
	assert.True(t, rl.Allow(2))

	time.Sleep(60 * time.Millisecond)
	assert.True(t, rl.Allow(1), "cooldown expired")
	assert.Equal(t, 0, rl.CooldownSeconds(1))
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		name       string
		trustProxy bool
		xff        string
		xri        string
		want       string
	}{
		{"remote addr only", false, "", "", "192.168.1.5"},
		{"forwarded headers ignored without proxy", false, "198.51.100.7", "203.0.113.9", "192.168.1.5"},
		{"real ip behind proxy", true, "", "203.0.113.9", "203.0.113.9"},
		{"forwarded for wins behind proxy", true, "198.51.100.7, 10.0.0.1", "203.0.113.9", "198.51.100.7"},
		{"proxy without headers", true, "", "", "192.168.1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = "192.168.1.5:4321"
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, ExtractIP(r, tt.trustProxy))
		})
	}
}

func TestLoginLimiterIgnoresRotatedForwardedFor(t *testing.T) {
	rl := NewLoginRateLimiter(2, time.Minute)
	t.Cleanup(rl.Stop)

	allowed := 0
	for i := 0; i < 5; i++ {
		r := httptest.NewRequest("POST", "/api/auth/login", nil)
		r.RemoteAddr = "192.168.1.5:4321"
		r.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		if rl.Allow(ExtractIP(r, false)) {
			allowed++
		}
	}
	assert.Equal(t, 2, allowed)
}

func TestFormatRetryMessage(t *testing.T) {
	assert.Equal(t, "2 minute(s)", FormatRetryMessage(120))
	assert.Equal(t, "45 second(s)", FormatRetryMessage(45))
}
