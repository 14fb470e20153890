// Package scheduler drives the periodic stale-session sweep from a separate process.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"llm-chat-be/internal/dto"
	"llm-chat-be/internal/pkg/logger"

	"github.com/robfig/cron/v3"
)

const (
	endStalePath = "/end-stale-sessions"
	tokenHeader  = "X-Reclaimer-Token"
)

// ReclaimTrigger asks the REST service to sweep stale sessions.
type ReclaimTrigger struct {
	url    string
	token  string
	client *http.Client
	logger logger.ILogger
}

func NewReclaimTrigger(serviceURL, token string, timeout time.Duration, log logger.ILogger) *ReclaimTrigger {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ReclaimTrigger{
		url:    strings.TrimRight(serviceURL, "/") + endStalePath,
		token:  token,
		client: &http.Client{Timeout: timeout},
		logger: log,
	}
}

// Fire runs one sweep and returns what the service reported.
func (t *ReclaimTrigger) Fire(ctx context.Context) (*dto.EndStaleSessionsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if t.token != "" {
		req.Header.Set(tokenHeader, t.token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", t.url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sweep failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var out dto.EndStaleSessionsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// Run fires once and logs the outcome; errors never stop the schedule.
func (t *ReclaimTrigger) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), t.client.Timeout)
	defer cancel()

	res, err := t.Fire(ctx)
	if err != nil {
		t.logger.Error("RECLAIMER", "Stale session sweep failed", map[string]interface{}{"error": err.Error()})
		return
	}
	t.logger.Info("RECLAIMER", "Stale session sweep done", map[string]interface{}{
		"scanned": res.Scanned,
		"ended":   len(res.Ended),
		"skipped": res.Skipped,
	})
}

// Schedule registers the trigger on a cron spec ("@every 1m", "*/5 * * * *").
// Overlapping runs are skipped rather than queued.
func Schedule(spec string, trigger *ReclaimTrigger) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddJob(spec, trigger); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return c, nil
}
