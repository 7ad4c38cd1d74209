package cleaner

import (
	"github.com/hyperjump/reviewlens/internal/models"
	"github.com/hyperjump/reviewlens/internal/normalize"
)

// DedupMode selects how review text is compared for duplicates.
type DedupMode string

const (
	// DedupNormalized compares normalized text, so case and spacing variants collapse.
	DedupNormalized DedupMode = "normalized"
	// DedupExact compares text byte for byte.
	DedupExact DedupMode = "exact"
)

type dedupKey struct {
	bank string
	text string
	null bool
}

// Deduplicate keeps the first record for each (text, bank) key in input order
// and returns the survivors with the number removed. Null texts share one key per bank.
func Deduplicate(raw []models.RawReview, mode DedupMode) ([]models.RawReview, int) {
	seen := make(map[dedupKey]struct{}, len(raw))
	out := make([]models.RawReview, 0, len(raw))
	for _, r := range raw {
		k := dedupKey{bank: r.Bank, null: r.Text == nil}
		if r.Text != nil {
			if mode == DedupExact {
				k.text = *r.Text
			} else {
				k.text = normalize.Normalize(*r.Text)
			}
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out, len(raw) - len(out)
}
