package server

import "testing"

func TestLoginLimiterEnforcesBurst(t *testing.T) {
	l := newLoginLimiter(LoginConfig{RatePerMinute: 1, Burst: 2})
	defer l.Stop()

	if !l.Allow("10.0.0.1") || !l.Allow("10.0.0.1") {
		t.Fatal("burst capacity must admit initial attempts")
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("attempt beyond burst must be denied")
	}
}

func TestLoginLimiterIsolatesIPs(t *testing.T) {
	l := newLoginLimiter(LoginConfig{RatePerMinute: 1, Burst: 1})
	defer l.Stop()

	if !l.Allow("10.0.0.1") {
		t.Fatal("first attempt must pass")
	}
	if !l.Allow("10.0.0.2") {
		t.Fatal("another IP must have its own budget")
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("exhausted IP must stay denied")
	}
}

func TestLoginLimiterStopIsIdempotent(t *testing.T) {
	l := newLoginLimiter(LoginConfig{RatePerMinute: 10, Burst: 5})
	l.Stop()
	l.Stop()
}
