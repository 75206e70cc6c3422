package media

import (
	"context"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"
)

const DefaultFetchTimeout = 20 * time.Second

// HTTPLoader downloads media into the cache. Assets already cached are not
// fetched again.
type HTTPLoader struct {
	cache   *Cache
	timeout time.Duration
	now     func() time.Time
}

func NewHTTPLoader(cache *Cache, timeout time.Duration) *HTTPLoader {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &HTTPLoader{cache: cache, timeout: timeout, now: time.Now}
}

func (l *HTTPLoader) Load(ctx context.Context, url string) error {
	if url == "" {
		return fmt.Errorf("empty media url")
	}
	if l.cache.Has(url) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	timeout := l.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	agent := fiber.Get(url)
	agent.Timeout(timeout)
	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("fetch %s: %w", url, errs[0])
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return fmt.Errorf("fetch %s: status %d", url, code)
	}

	l.cache.Put(Entry{
		URL:         url,
		Body:        body,
		ContentType: mimetype.Detect(body).String(),
		FetchedAt:   l.now(),
	})
	return nil
}
