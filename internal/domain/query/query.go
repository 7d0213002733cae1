// Package query holds the query-side value types: input validation and
// the per-document result record the pipeline returns.
package query

import (
	"fmt"

	"github.com/kailas-cloud/imagedex/internal/domain"
)

// MaxTextLen is the query text length cap. Longer input is rejected
// before any provider call to bound cost and provider payload limits.
const MaxTextLen = 20000

// ValidateText rejects oversized query text.
func ValidateText(raw string) error {
	if len(raw) > MaxTextLen {
		return fmt.Errorf("%d bytes (max %d): %w", len(raw), MaxTextLen, domain.ErrQueryTooLarge)
	}
	return nil
}

// Record is one matched document, vector excluded. Records preserve the
// store's descending-similarity order.
type Record struct {
	SourceLocator string  `json:"source_locator"`
	Labels        string  `json:"labels,omitempty"`
	Entities      string  `json:"entities,omitempty"`
	Score         float64 `json:"score"`
}
