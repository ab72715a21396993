// Package language classifies an utterance's language from marker-word
// heuristics. Tags are checked in priority order; the first tag whose marker
// count reaches its threshold wins, otherwise the fallback tag applies.
package language

import (
	"strings"

	"github.com/clinichub/clinic-gateway/internal/knowledge"
)

type Detector struct {
	profiles []knowledge.LanguageProfile
	fallback string
}

// NewDetector builds a detector from an ordered profile list. The order of
// profiles is the tie-break priority.
func NewDetector(profiles []knowledge.LanguageProfile, fallback string) *Detector {
	return &Detector{profiles: profiles, fallback: fallback}
}

// FromPack builds a detector from a knowledge pack.
func FromPack(pack *knowledge.Pack) *Detector {
	return NewDetector(pack.Languages, pack.DefaultLanguage)
}

// Detect returns the language tag for text. Pure and deterministic.
func (d *Detector) Detect(text string) string {
	lowered := strings.ToLower(text)
	for _, p := range d.profiles {
		count := 0
		for _, marker := range p.Markers {
			count += strings.Count(lowered, marker)
		}
		if p.Threshold > 0 && count >= p.Threshold {
			return p.Tag
		}
	}
	return d.fallback
}
