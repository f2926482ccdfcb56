package simulate

import (
	"context"
	"fmt"

	"github.com/cuscogo/huntd/pkg/logger"
)

// verifyResults cross-checks the aggregate score against the capture list
// and the bonus ledger as reported by the service itself.
func verifyResults(ctx context.Context, client *HTTPClient, config *Config, items []Item, stats *Stats) error {
	logger.Get().Info(ctx, "verifying results")

	var score ScoreSummary
	if err := getJSON(ctx, client, config.BaseURL+"/score", &score); err != nil {
		return err
	}

	var bonuses []BonusEvent
	if err := getJSON(ctx, client, config.BaseURL+"/bonuses", &bonuses); err != nil {
		return err
	}

	var captures []struct {
		ItemID string `json:"item_id"`
	}
	if err := getJSON(ctx, client, config.BaseURL+"/captures", &captures); err != nil {
		return err
	}

	// Recompute the aggregate from raw data: base points once per distinct
	// captured item, plus every ledger row.
	basePoints := make(map[string]int, len(items))
	for _, it := range items {
		basePoints[it.ID] = it.BasePoints
	}

	seen := make(map[string]bool)
	expectedBase := 0
	for _, c := range captures {
		if !seen[c.ItemID] {
			seen[c.ItemID] = true
			expectedBase += basePoints[c.ItemID]
		}
	}

	expectedBonus := 0
	for _, b := range bonuses {
		expectedBonus += b.BonusPoints
	}

	if score.BasePoints != expectedBase {
		return fmt.Errorf("base points mismatch: service reports %d, captures imply %d", score.BasePoints, expectedBase)
	}
	if score.BonusPoints != expectedBonus {
		return fmt.Errorf("bonus points mismatch: service reports %d, ledger sums to %d", score.BonusPoints, expectedBonus)
	}
	if score.Total != score.BasePoints+score.BonusPoints {
		return fmt.Errorf("total mismatch: %d != %d + %d", score.Total, score.BasePoints, score.BonusPoints)
	}

	logger.Get().Info(ctx, "aggregate score verified",
		logger.Int("basePoints", score.BasePoints),
		logger.Int("bonusPoints", score.BonusPoints),
		logger.Int("total", score.Total),
		logger.Int("uniqueItems", score.UniqueItems),
		logger.Int("ledgerRows", len(bonuses)),
	)
	return nil
}
