// Package reviewkey derives stable document IDs for reviews.
package reviewkey

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/hyperjump/reviewlens/internal/models"
	"github.com/hyperjump/reviewlens/internal/normalize"
)

const prefix = "review:"

// ID returns the search index ID of r. Reviews that differ only in case or
// whitespace of their text map to the same ID, as do reviews the cleaner
// would collapse as duplicates.
func ID(r models.Review) string {
	date := ""
	if r.Date != nil {
		date = *r.Date
	}
	h := sha256.New()
	for _, part := range []string{r.Bank, normalize.Normalize(r.Text), date} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return prefix + hex.EncodeToString(h.Sum(nil))
}
