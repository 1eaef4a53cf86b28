// internal/pipeline/registry-source/source.go
package registrysource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "ksel-bot/internal/common/errors"
	"ksel-bot/internal/common/logger"
	"ksel-bot/internal/models"
)

const Component = "registry-source"

// Doer is satisfied by *http.Client and the shared pooled client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Source queries the certification registry. It holds no per-request state
// and is safe for concurrent use.
type Source struct {
	config *Config
	client Doer
	logger logger.Logger
}

func NewSource(config *Config, client Doer, log logger.Logger) *Source {
	return &Source{
		config: config,
		client: client,
		logger: logger.ForComponent(log, Component),
	}
}

// Search posts the model-name search form and parses the result table.
// A deadline on ctx yields an error matching apperrors.ErrRegistryTimeout;
// transport failures and non-2xx statuses match ErrRegistryUnavailable.
func (s *Source) Search(ctx context.Context, modelKey string) (models.RawTable, error) {
	form := url.Values{}
	form.Set("searchKey", s.config.SearchKey)
	form.Set("searchKeyword", modelKey)
	form.Set("currentPage", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return models.RawTable{}, apperrors.NewRegistryUnavailableError(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if s.config.UserAgent != "" {
		req.Header.Set("User-Agent", s.config.UserAgent)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return models.RawTable{}, s.classify(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return models.RawTable{}, apperrors.NewRegistryUnavailableError(fmt.Errorf("registry returned status %d", resp.StatusCode))
	}

	var body io.Reader = resp.Body
	if s.config.MaxBodyBytes > 0 {
		body = io.LimitReader(resp.Body, s.config.MaxBodyBytes)
	}
	table, err := ParseTable(body, s.config.NoMatchMarkers)
	if err != nil {
		return models.RawTable{}, s.classify(ctx, err)
	}

	s.logger.Debug("registry search completed", map[string]interface{}{
		"modelKey":   modelKey,
		"rows":       len(table.Rows),
		"noMatch":    table.NoMatch,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return table, nil
}

func (s *Source) classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", apperrors.ErrRegistryTimeout, err)
	}
	return apperrors.NewRegistryUnavailableError(err)
}
