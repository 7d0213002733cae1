// Package signal models the upstream detection bundle the indexing
// pipeline consumes: visual labels, recognized entity matches, and a
// precomputed image embedding for one source asset.
package signal

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/imagedex/internal/domain"
)

// MinConfidence is the detection cutoff. Detections at or below this
// value are discarded before they influence indexing.
const MinConfidence = 80

// MinLabelWords is the word-count gate for label text: a filtered label
// set with this many words or fewer is dropped entirely as too
// under-specific to help lexical scoring.
const MinLabelWords = 4

// Detection is one upstream detection with its confidence (0-100).
type Detection struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Bundle carries the upstream signals for one asset.
type Bundle struct {
	SourceLocator string      `json:"source_locator"`
	Labels        []Detection `json:"labels"`
	Entities      []Detection `json:"entities"`
	Embedding     []float32   `json:"embedding"`
}

// Validate checks the bundle is indexable.
func (b *Bundle) Validate() error {
	if b.SourceLocator == "" {
		return fmt.Errorf("source locator is required: %w", domain.ErrInvalidSignal)
	}
	if len(b.Embedding) == 0 {
		return domain.ErrMissingVector
	}
	return nil
}

// LabelSentence returns the confidence-filtered labels as space-joined
// text, or "" when the surviving set has MinLabelWords words or fewer.
func (b *Bundle) LabelSentence() string {
	words := filterNames(b.Labels)
	if countWords(words) <= MinLabelWords {
		return ""
	}
	return strings.Join(words, " ")
}

// EntitySentence returns the confidence-filtered entity names as
// space-joined text. Unlike labels there is no word-count gate: even a
// single recognized name is a useful lexical anchor.
func (b *Bundle) EntitySentence() string {
	return strings.Join(filterNames(b.Entities), " ")
}

func filterNames(ds []Detection) []string {
	names := make([]string, 0, len(ds))
	for _, d := range ds {
		if d.Confidence > MinConfidence && d.Name != "" {
			names = append(names, d.Name)
		}
	}
	return names
}

// countWords counts whitespace-separated words across all names; a
// multi-word label counts each word.
func countWords(names []string) int {
	n := 0
	for _, name := range names {
		n += len(strings.Fields(name))
	}
	return n
}
