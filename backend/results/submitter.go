package results

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"practicetest/backend/engine"
)

const DefaultTimeout = 15 * time.Second

var ErrNoEndpoint = errors.New("result endpoint not configured")

// HTTPSubmitter posts finished attempts to the result service. It does not
// retry; the session reports a failure to the user instead.
type HTTPSubmitter struct {
	url     string
	token   string
	timeout time.Duration
	client  *fiber.Client
}

func NewHTTPSubmitter(url string, timeout time.Duration) *HTTPSubmitter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPSubmitter{
		url:     url,
		timeout: timeout,
		client:  &fiber.Client{JSONEncoder: sonic.Marshal, JSONDecoder: sonic.Unmarshal},
	}
}

// WithToken returns a copy that authenticates as the attempt's user.
func (s *HTTPSubmitter) WithToken(token string) *HTTPSubmitter {
	cp := *s
	cp.token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	return &cp
}

func (s *HTTPSubmitter) Submit(ctx context.Context, result engine.SessionResult) (engine.SubmitReceipt, error) {
	var receipt engine.SubmitReceipt
	if s.url == "" {
		return receipt, ErrNoEndpoint
	}
	if err := ctx.Err(); err != nil {
		return receipt, err
	}

	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	agent := s.client.Post(s.url)
	agent.Timeout(timeout)
	if s.token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+s.token)
	}
	agent.JSON(result)

	code, body, errs := agent.Struct(&receipt)
	if code != 0 && (code < fiber.StatusOK || code >= fiber.StatusMultipleChoices) {
		return engine.SubmitReceipt{}, fmt.Errorf("result service returned %d: %s", code, truncate(body, 200))
	}
	if len(errs) > 0 {
		return engine.SubmitReceipt{}, fmt.Errorf("submit result: %w", errs[0])
	}
	return receipt, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
