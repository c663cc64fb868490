// Package classifier labels OCR text and pulls unsubscribe targets out of it.
package classifier

import (
	"regexp"
	"strings"
)

// Classification is the three-way label assigned to OCR text.
type Classification string

const (
	Official Classification = "official"
	Ad       Classification = "ad"
	Other    Classification = "other"
)

var (
	officialKeywords = []string{"invoice", "amount due", "contract", "legal", "bank", "payment", "statement", "due date"}
	promoKeywords    = []string{"sale", "unsubscribe", "offer", "limited time", "buy now", "subscribe", "promo", "discount"}
)

// Classify matches text case-insensitively against the keyword sets.
// Official keywords win over promotional ones.
func Classify(text string) Classification {
	t := strings.ToLower(text)
	if containsAny(t, officialKeywords) {
		return Official
	}
	if containsAny(t, promoKeywords) {
		return Ad
	}
	return Other
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// TargetType says how an unsubscribe target is reached.
type TargetType string

const (
	TargetEmail TargetType = "email"
	TargetURL   TargetType = "url"
)

// Unsubscribe is an extracted opt-out target.
type Unsubscribe struct {
	Type  TargetType
	Value string
}

var (
	mailtoPattern = regexp.MustCompile(`(?i)mailto:([\w.\-+@]+)`)
	emailPattern  = regexp.MustCompile(`([A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,})`)
	urlPattern    = regexp.MustCompile(`(?i)(https?://[^\s,]+)`)
)

// ExtractUnsubscribe returns the first target found, trying a mailto URI,
// then a bare address, then an http(s) URL. ok is false when none match.
func ExtractUnsubscribe(text string) (Unsubscribe, bool) {
	normalized := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(text)

	if m := mailtoPattern.FindStringSubmatch(normalized); m != nil {
		return Unsubscribe{Type: TargetEmail, Value: m[1]}, true
	}
	if m := emailPattern.FindStringSubmatch(normalized); m != nil {
		return Unsubscribe{Type: TargetEmail, Value: m[1]}, true
	}
	if m := urlPattern.FindStringSubmatch(normalized); m != nil {
		return Unsubscribe{Type: TargetURL, Value: m[1]}, true
	}
	return Unsubscribe{}, false
}
