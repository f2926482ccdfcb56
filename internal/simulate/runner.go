// Package simulate drives a running service with generated captures: it
// fetches the biome and item catalogs, submits captures placed inside,
// near and outside biomes, then cross-checks the aggregate score against
// the ledger.
package simulate

import (
	"context"
	"fmt"
	"time"

	"github.com/cuscogo/huntd/pkg/logger"
)

// Run executes a complete capture simulation.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting capture simulation",
		logger.String("baseURL", config.BaseURL),
		logger.Int("captures", config.NumCaptures),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
	)

	client := newHTTPClient(config.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Fetch catalogs
	var biomes []Biome
	if err := getJSON(ctx, client, config.BaseURL+"/biomes", &biomes); err != nil {
		return fmt.Errorf("biome catalog fetch failed: %w", err)
	}
	var items []Item
	if err := getJSON(ctx, client, config.BaseURL+"/items", &items); err != nil {
		return fmt.Errorf("item catalog fetch failed: %w", err)
	}
	if len(items) == 0 {
		return fmt.Errorf("service has no hunt items; nothing to capture")
	}

	// Step 3: Generate captures
	captures := generateCaptures(ctx, config, biomes, items, stats)

	// Step 4: Submit captures concurrently
	submitCaptures(ctx, config, captures, stats)

	// Step 5: Wait for deferred evaluations to drain
	logger.Get().Info(ctx, "waiting for deferred evaluations")
	time.Sleep(ProcessingDelay)

	// Step 6: Verify ledger and aggregate consistency
	if err := verifyResults(ctx, client, config, items, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	logger.Get().Info(ctx, "simulation completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// displayFinalStats prints the final simulation statistics.
func displayFinalStats(stats *Stats) {
	var successRate, capturesPerSecond float64

	if stats.CapturesSubmitted > 0 {
		successRate = float64(stats.CapturesSuccessful) / float64(stats.CapturesSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		capturesPerSecond = float64(stats.CapturesSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("capturesGenerated", stats.CapturesGenerated),
		logger.Int("capturesSubmitted", stats.CapturesSubmitted),
		logger.Int("capturesSuccessful", stats.CapturesSuccessful),
		logger.Int("capturesFailed", stats.CapturesFailed),
		logger.Int("bonusesAwarded", stats.BonusesAwarded),
		logger.Int("bonusPoints", stats.BonusPoints),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("capturesPerSecond", capturesPerSecond),
	)
}
