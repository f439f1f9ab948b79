// Package advisor requests short tactical advice from an external text
// service without ever blocking the frame loop. Requests are rate limited,
// carry a deadline and resolve exactly once onto a completion queue that
// the loop drains on a later tick.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pthm-cable/arena/config"
)

var (
	// ErrCooldown is returned by Request inside the minimum interval.
	ErrCooldown = errors.New("advisor: cooldown")
	// ErrAdvisoryTimeout marks a request that missed its deadline.
	ErrAdvisoryTimeout = errors.New("advisor: timeout")
)

// Category selects the fallback phrase list.
type Category string

const (
	CategoryLowHealth   Category = "low_health"
	CategoryOutnumbered Category = "outnumbered"
	CategoryWinning     Category = "winning"
	CategoryLevelStart  Category = "level_start"
)

const genericFallback = "Stay alive."

// Situation is the summary sent to the service.
type Situation struct {
	Category     Category
	Level        int
	PlayerHealth float64 // fraction of max
	Hostiles     int
	Strategy     string
	Difficulty   float64
}

// Summary renders the situation as one line of prompt text.
func (s Situation) Summary() string {
	return fmt.Sprintf("level %d, player health %.0f%%, %d hostiles alive, enemy strategy %s, difficulty %.2f, situation %s",
		s.Level, s.PlayerHealth*100, s.Hostiles, s.Strategy, s.Difficulty, s.Category)
}

// Service produces advice text.
type Service interface {
	Advise(ctx context.Context, s Situation) (string, error)
}

// Request is the handle for one in-flight call.
type Request struct {
	ID        uint64
	Situation Situation
	Issued    time.Time
	Deadline  time.Time
}

// Response is a resolved request. Fallback is set when Text came from the
// static phrase list.
type Response struct {
	RequestID uint64
	Category  Category
	Text      string
	Fallback  bool
	Err       error
	Latency   time.Duration
}

// Client gates and tracks advisory requests.
type Client struct {
	svc       Service
	fallbacks map[string][]string
	timeout   time.Duration
	limiter   *rate.Limiter

	done    chan Response
	nextID  uint64
	wg      sync.WaitGroup
	dropped int
	mu      sync.Mutex // guards dropped
}

// NewClient creates a client. A nil service resolves every request with a
// fallback phrase.
func NewClient(svc Service, cfg *config.AdvisorConfig) *Client {
	cooldown := time.Duration(cfg.CooldownS * float64(time.Second))
	timeout := time.Duration(cfg.TimeoutS * float64(time.Second))
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	lim := rate.NewLimiter(rate.Inf, 1)
	if cooldown > 0 {
		lim = rate.NewLimiter(rate.Every(cooldown), 1)
	}
	queue := cfg.QueueSize
	if queue <= 0 {
		queue = 8
	}
	return &Client{
		svc:       svc,
		fallbacks: cfg.Fallbacks,
		timeout:   timeout,
		limiter:   lim,
		done:      make(chan Response, queue),
	}
}

// Request starts a call at time now and returns immediately. It returns
// ErrCooldown when called again inside the minimum interval.
func (c *Client) Request(now time.Time, s Situation) (*Request, error) {
	if !c.limiter.AllowN(now, 1) {
		return nil, ErrCooldown
	}
	c.nextID++
	req := &Request{ID: c.nextID, Situation: s, Issued: now, Deadline: now.Add(c.timeout)}

	c.wg.Add(1)
	go c.run(req)
	return req, nil
}

type result struct {
	text string
	err  error
}

func (c *Client) run(req *Request) {
	defer c.wg.Done()
	start := time.Now()
	resp := Response{RequestID: req.ID, Category: req.Situation.Category}

	if c.svc == nil {
		c.resolve(c.withFallback(resp, nil), start)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	out := make(chan result, 1)
	go func() {
		text, err := c.svc.Advise(ctx, req.Situation)
		out <- result{text, err}
	}()

	select {
	case r := <-out:
		switch {
		case r.err != nil:
			resp = c.withFallback(resp, r.err)
		case r.text == "":
			resp = c.withFallback(resp, errors.New("advisor: empty response"))
		default:
			resp.Text = r.text
		}
	case <-ctx.Done():
		resp = c.withFallback(resp, fmt.Errorf("%w after %s", ErrAdvisoryTimeout, c.timeout))
	}
	c.resolve(resp, start)
}

func (c *Client) withFallback(resp Response, err error) Response {
	resp.Err = err
	resp.Fallback = true
	resp.Text = c.Fallback(resp.Category, resp.RequestID)
	if err != nil {
		slog.Warn("advisory fallback", "request", resp.RequestID, "category", string(resp.Category), "err", err)
	}
	return resp
}

// resolve places the response on the completion queue. A full queue drops
// the response.
func (c *Client) resolve(resp Response, start time.Time) {
	resp.Latency = time.Since(start)
	select {
	case c.done <- resp:
	default:
		c.mu.Lock()
		c.dropped++
		c.mu.Unlock()
		slog.Warn("advisory queue full", "request", resp.RequestID)
	}
}

// Fallback returns a static phrase for the category; seq rotates through
// the list.
func (c *Client) Fallback(cat Category, seq uint64) string {
	phrases := c.fallbacks[string(cat)]
	if len(phrases) == 0 {
		return genericFallback
	}
	return phrases[seq%uint64(len(phrases))]
}

// Drain returns every resolved response without blocking.
func (c *Client) Drain() []Response {
	var out []Response
	for {
		select {
		case r := <-c.done:
			out = append(out, r)
		default:
			return out
		}
	}
}

// Wait blocks until every in-flight request has resolved.
func (c *Client) Wait() {
	c.wg.Wait()
}

// Dropped returns how many responses were discarded on a full queue.
func (c *Client) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}
