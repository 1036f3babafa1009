package coordinator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/vitaliisemenov/modelfleet/internal/metrics"
)

// fanoutTimeout is the per-target deadline applied to every fan-out call;
// on timeout the target is evicted from the registry so the next fan-out
// skips it.
const fanoutTimeout = 1 * time.Second

// ErrFanoutTimeout distinguishes a timed-out target (auto-evicted) from
// any other fan-out failure (logged, not evicting).
var ErrFanoutTimeout = errors.New("coordinator: fan-out call timed out")

// Fanout relays operator commands to every registered node of a given
// type. Outbound calls are throttled by a token-bucket limiter so a burst
// of operator commands cannot open unbounded concurrent connections to the
// fleet.
type Fanout struct {
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewFanout builds a Fanout whose outbound rate is capped at
// ratePerSecond sustained, burst concurrent calls.
func NewFanout(ratePerSecond float64, burst int, logger *slog.Logger) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{
		client:  &http.Client{Timeout: fanoutTimeout},
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		logger:  logger,
	}
}

// Result is one target's outcome from a fan-out call.
type Result struct {
	Target     string
	StatusCode int
	Body       []byte
	Err        error
}

// Call issues method to target+path with body, applying the rate limiter
// and the fixed per-call timeout.
func (f *Fanout) Call(ctx context.Context, method, target, path string, body []byte) Result {
	if err := f.limiter.Wait(ctx); err != nil {
		return Result{Target: target, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, fanoutTimeout)
	defer cancel()

	url := fmt.Sprintf("http://%s%s", target, path)
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return Result{Target: target, Err: err}
	}
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Result{Target: target, Err: ErrFanoutTimeout}
		}
		return Result{Target: target, Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	return Result{Target: target, StatusCode: resp.StatusCode, Body: respBody}
}

// ToAll calls method/path/body against every currently registered target of
// nodeType, evicting any target whose call times out, and returns every
// result (best-effort: a failing or missing target does not abort the
// others).
func (f *Fanout) ToAll(ctx context.Context, registry *Registry, nodeType NodeType, method, path string, body []byte) []Result {
	targets := registry.Targets(nodeType)
	results := make([]Result, 0, len(targets))
	for _, target := range targets {
		res := f.Call(ctx, method, target, path, body)
		switch {
		case errors.Is(res.Err, ErrFanoutTimeout):
			registry.Evict(nodeType, target)
			metrics.CoordinatorFanoutTotal.WithLabelValues(string(nodeType), "timeout").Inc()
		case res.Err != nil:
			f.logger.Error("coordinator: fan-out call failed", "target", target, "path", path, "error", res.Err)
			metrics.CoordinatorFanoutTotal.WithLabelValues(string(nodeType), "error").Inc()
		default:
			metrics.CoordinatorFanoutTotal.WithLabelValues(string(nodeType), "ok").Inc()
		}
		results = append(results, res)
	}
	return results
}
