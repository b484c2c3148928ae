package deck

import (
	"fmt"

	"github.com/yungbote/paperdeck-backend/internal/platform/logger"
)

// ReconcilableDeck is a saved presentation whose leading template slides can
// be dropped.
type ReconcilableDeck interface {
	SlideCount() int
	RemoveSlideAt(index int) error
}

// Reconcile removes the template's pre-existing slides from the front of a
// generated deck so only the appended slides remain. baseCount must come
// from a fresh read of the template itself, never from a count remembered
// across the generation run.
func Reconcile(deck ReconcilableDeck, baseCount int, log *logger.Logger) ([]string, error) {
	if baseCount < 0 {
		return nil, fmt.Errorf("reconcile: negative base slide count %d", baseCount)
	}
	total := deck.SlideCount()
	var warnings []string
	if total <= baseCount {
		msg := fmt.Sprintf("deck has %d slides but template contributes %d, nothing would remain; leaving deck untouched", total, baseCount)
		warnings = append(warnings, msg)
		log.Warn("reconcile skipped", "total", total, "base", baseCount)
		return warnings, nil
	}
	// Removing index 0 repeatedly walks the template slides off the front
	// while generated slides shift down behind them.
	for i := 0; i < baseCount; i++ {
		if err := deck.RemoveSlideAt(0); err != nil {
			return warnings, fmt.Errorf("reconcile: removing template slide %d: %w", i, err)
		}
	}
	return warnings, nil
}
