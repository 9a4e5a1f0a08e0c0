package app

import (
	"strings"

	"github.com/Akharrat1991/AI-Property-Management/internal/domain"
)

// KeywordTableVersion identifies the fallback vocabulary in use. Bump it when
// the lists below change so logged analyses stay attributable.
const KeywordTableVersion = "v1"

// fallbackKeywords is the single keyword table consumed by the deterministic
// fallback classifier. Multi-word entries match as substrings; single words
// match whole words, with a prefix match allowed for longer stems so "clean"
// also catches "cleaning" and "cleaned".
var fallbackKeywords = map[domain.IssueCategory][]string{
	domain.CategoryCleaning: {
		"clean", "dirty", "dust", "hair", "stain", "smell", "odor", "hygiene",
		"bathroom", "toilet", "shower", "towel", "sheet", "linen",
		"kitchen", "dishes", "garbage", "trash", "mess", "filthy", "gross",
	},
	domain.CategoryMaintenance: {
		"ac", "air conditioning", "heating", "heater", "wifi", "internet",
		"tv", "television", "remote", "appliance", "fridge", "plumbing",
		"leak", "pressure", "electrical", "outlet", "lock", "noise", "noisy",
		"broken", "squeaky", "bed",
	},
}

// matchKeywords returns the table entries for cat found in text, in table
// order, or nil when none match.
func matchKeywords(text string, cat domain.IssueCategory) []string {
	lower := strings.ToLower(text)
	words := splitWords(lower)

	var found []string
	for _, kw := range fallbackKeywords[cat] {
		if strings.ContainsRune(kw, ' ') {
			if strings.Contains(lower, kw) {
				found = append(found, kw)
			}
			continue
		}
		if matchWord(words, kw) {
			found = append(found, kw)
		}
	}
	return found
}

// matchWord reports whether kw matches any word: exact for short keywords,
// prefix for stems of four letters or more.
func matchWord(words []string, kw string) bool {
	for _, w := range words {
		if w == kw {
			return true
		}
		if len(kw) >= 4 && strings.HasPrefix(w, kw) {
			return true
		}
	}
	return false
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
}
