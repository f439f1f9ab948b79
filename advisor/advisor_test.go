package advisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pthm-cable/arena/config"
)

type serviceFunc func(ctx context.Context, s Situation) (string, error)

func (f serviceFunc) Advise(ctx context.Context, s Situation) (string, error) { return f(ctx, s) }

func testConfig() *config.AdvisorConfig {
	cfg := config.Default().Advisor
	cfg.TimeoutS = 0.05
	return &cfg
}

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func drainOne(t *testing.T, c *Client) Response {
	t.Helper()
	c.Wait()
	got := c.Drain()
	if len(got) != 1 {
		t.Fatalf("drained %d responses, want 1", len(got))
	}
	return got[0]
}

func TestRequestSuccess(t *testing.T) {
	svc := serviceFunc(func(ctx context.Context, s Situation) (string, error) {
		return "Flank left.", nil
	})
	c := NewClient(svc, testConfig())

	req, err := c.Request(t0, Situation{Category: CategoryWinning})
	if err != nil {
		t.Fatal(err)
	}
	resp := drainOne(t, c)
	if resp.RequestID != req.ID || resp.Text != "Flank left." || resp.Fallback || resp.Err != nil {
		t.Errorf("response = %+v", resp)
	}
	if !req.Deadline.After(req.Issued) {
		t.Errorf("deadline %v not after issue %v", req.Deadline, req.Issued)
	}
}

func TestCooldown(t *testing.T) {
	cfg := testConfig()
	c := NewClient(nil, cfg)
	cooldown := time.Duration(cfg.CooldownS * float64(time.Second))

	if _, err := c.Request(t0, Situation{}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Request(t0.Add(time.Second), Situation{}); !errors.Is(err, ErrCooldown) {
		t.Errorf("err = %v, want ErrCooldown", err)
	}
	if _, err := c.Request(t0.Add(cooldown+time.Millisecond), Situation{}); err != nil {
		t.Errorf("after cooldown: %v", err)
	}
	c.Wait()
	if n := len(c.Drain()); n != 2 {
		t.Errorf("drained %d, want 2", n)
	}
}

func TestTimeoutFallsBack(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	svc := serviceFunc(func(ctx context.Context, s Situation) (string, error) {
		<-release // ignores ctx
		return "too late", nil
	})
	c := NewClient(svc, testConfig())

	if _, err := c.Request(t0, Situation{Category: CategoryLowHealth}); err != nil {
		t.Fatal(err)
	}
	resp := drainOne(t, c)
	if !errors.Is(resp.Err, ErrAdvisoryTimeout) {
		t.Errorf("err = %v, want timeout", resp.Err)
	}
	if !resp.Fallback || resp.Text == "" || resp.Text == "too late" {
		t.Errorf("response = %+v, want fallback text", resp)
	}
}

func TestServiceErrorFallsBack(t *testing.T) {
	boom := errors.New("boom")
	svc := serviceFunc(func(ctx context.Context, s Situation) (string, error) { return "", boom })
	c := NewClient(svc, testConfig())

	c.Request(t0, Situation{Category: CategoryOutnumbered})
	resp := drainOne(t, c)
	if !errors.Is(resp.Err, boom) || !resp.Fallback {
		t.Errorf("response = %+v", resp)
	}
	want := testConfig().Fallbacks[string(CategoryOutnumbered)]
	found := false
	for _, p := range want {
		if p == resp.Text {
			found = true
		}
	}
	if !found {
		t.Errorf("text %q not in %v", resp.Text, want)
	}
}

func TestDrainNonBlocking(t *testing.T) {
	c := NewClient(nil, testConfig())
	done := make(chan []Response)
	go func() { done <- c.Drain() }()
	select {
	case got := <-done:
		if len(got) != 0 {
			t.Errorf("drained %d from an idle client", len(got))
		}
	case <-time.After(time.Second):
		t.Fatal("Drain blocked")
	}
}

func TestFallbackUnknownCategory(t *testing.T) {
	c := NewClient(nil, testConfig())
	if got := c.Fallback("weather", 3); got != genericFallback {
		t.Errorf("Fallback = %q", got)
	}
}
