package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cuscogo/huntd/pkg/logger"
)

// HTTPClient wraps http.Client with a timeout.
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// getJSON fetches url and decodes the JSON response into v.
func getJSON(ctx context.Context, client *HTTPClient, url string, v any) error {
	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", url, err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}

// submitCaptures submits captures concurrently using a worker pool.
func submitCaptures(ctx context.Context, config *Config, captures []Capture, stats *Stats) {
	logger.Get().Info(ctx, "submitting captures",
		logger.Int("count", len(captures)),
		logger.Int("workers", config.Workers),
	)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/captures"

	var (
		successful int64
		failed     int64
		awarded    int64
		bonus      int64
	)

	captureChan := make(chan Capture, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range captureChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				award, ok := submitSingleCapture(ctx, client, url, c)
				if ok {
					atomic.AddInt64(&successful, 1)
					if award.Awarded {
						atomic.AddInt64(&awarded, 1)
						atomic.AddInt64(&bonus, int64(award.BonusPoints))
					}
				} else {
					atomic.AddInt64(&failed, 1)
				}

				if config.Verbose {
					logger.Get().Debug(ctx, "capture submitted",
						logger.String("item", c.ItemID),
						logger.String("placement", describePlacement(c)),
						logger.Bool("awarded", award.Awarded),
					)
				}
			}
		}()
	}

	go func() {
		defer close(captureChan)
		for _, c := range captures {
			select {
			case <-ctx.Done():
				return
			case captureChan <- c:
			}
		}
	}()

	wg.Wait()

	stats.CapturesSubmitted = int(successful + failed)
	stats.CapturesSuccessful = int(successful)
	stats.CapturesFailed = int(failed)
	stats.BonusesAwarded = int(awarded)
	stats.BonusPoints = int(bonus)

	logger.Get().Info(ctx, "capture submission completed",
		logger.Int("successful", stats.CapturesSuccessful),
		logger.Int("failed", stats.CapturesFailed),
		logger.Int("bonusesAwarded", stats.BonusesAwarded),
		logger.Int("bonusPoints", stats.BonusPoints),
	)
}

type bonusAward struct {
	Awarded     bool   `json:"awarded"`
	BonusPoints int    `json:"bonus_points"`
	BiomeLabel  string `json:"biome_label"`
}

type captureResult struct {
	Bonus bonusAward `json:"bonus"`
}

// submitSingleCapture submits one capture and reports the evaluation outcome.
func submitSingleCapture(ctx context.Context, client *HTTPClient, url string, c Capture) (bonusAward, bool) {
	resp, err := client.Post(ctx, url, c)
	if err != nil {
		return bonusAward{}, false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != StatusCreated {
		return bonusAward{}, false
	}

	var result captureResult
	if err := json.Unmarshal(body, &result); err != nil {
		// The capture was stored even if the response failed to parse.
		return bonusAward{}, true
	}
	return result.Bonus, true
}
