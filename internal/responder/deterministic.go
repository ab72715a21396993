package responder

import (
	"strings"

	"github.com/clinichub/clinic-gateway/internal/knowledge"
)

// Categorize maps a lower-cased utterance to a reply category. Categories are
// not mutually exclusive, so after collecting every keyword hit two
// suppression rules apply: hours loses to the more specific doctor/dentist
// schedules, and greeting loses to any other matched category (a greeting
// bundled with a real question should answer the question).
func Categorize(text string, pack *knowledge.Pack) knowledge.Category {
	lowered := strings.ToLower(text)

	matched := map[knowledge.Category]bool{}
	for cat, keywords := range pack.CategoryKeywords {
		for _, kw := range keywords {
			if strings.Contains(lowered, kw) {
				matched[cat] = true
				break
			}
		}
	}

	if matched[knowledge.CategoryDoctor] || matched[knowledge.CategoryDentist] {
		delete(matched, knowledge.CategoryHours)
	}
	if len(matched) > 1 {
		delete(matched, knowledge.CategoryGreeting)
	}

	for _, cat := range knowledge.OrderedCategories {
		if matched[cat] {
			return cat
		}
	}
	return knowledge.CategoryDefault
}

// matchConcern returns the first health concern whose keywords appear in the
// utterance, or "".
func matchConcern(text string, pack *knowledge.Pack) string {
	lowered := strings.ToLower(text)
	for _, concern := range []string{"fever", "headache", "cold", "stomach", "injury"} {
		for _, kw := range pack.ConcernKeywords[concern] {
			if strings.Contains(lowered, kw) {
				return concern
			}
		}
	}
	return ""
}

// deterministic answers from the canned reply tables without any backend.
func deterministic(text, lang string, pack *knowledge.Pack) string {
	cat := Categorize(text, pack)
	if cat == knowledge.CategoryDefault {
		if concern := matchConcern(text, pack); concern != "" {
			return pack.AdviceFor(concern, lang) + "\n\n" + pack.Reply(knowledge.ReplyAdviceFooter, lang)
		}
	}
	return pack.Reply(cat, lang)
}
