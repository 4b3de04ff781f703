// Package bot – grounding.go decides whether a message should request web
// search grounding. Pure keyword matching, no state, no I/O.
package bot

import (
	"regexp"
	"strings"
	"sync"
)

// GroundingKeywords are the phrases that request a search-grounded
// completion, mixed Burmese and English.
var GroundingKeywords = []string{
	"ရှာဖွေ", "နောက်ဆုံးရ", "latest", "search for", "ဘယ်လောက်လဲ", "ဘယ်မှာလဲ", "ဘယ်သူလဲ", "ဘယ်အချိန်လဲ",
	"အတည်ပြု", "update", "ရာသီဥတု", "သတင်း", "ဆိုတာဘာလဲ", "အဓိပ္ပါယ်", "အချက်အလက်", "စာရင်း",
	"ဘယ်လိုသွားရ", "ရှင်းပြပါ", "ဖြစ်နိုင်လား", "ရှိလား", "ဖွင့်လား", "ပိတ်လား", "ဘယ်လို",
	"where is", "how much", "how many", "confirm", "verify", "news",
}

var (
	wordPatternsOnce sync.Once
	wordPatterns     []*regexp.Regexp
)

// RequestsGrounding reports whether text contains any grounding keyword,
// case-insensitively, as a whole word or as a plain substring. Either match
// counts; the substring check deliberately wins for scripts where word
// boundaries do not apply.
func RequestsGrounding(text string) bool {
	if text == "" {
		return false
	}
	wordPatternsOnce.Do(compileWordPatterns)

	lower := strings.ToLower(text)
	for i, kw := range GroundingKeywords {
		k := strings.ToLower(kw)
		if strings.Contains(lower, k) {
			return true
		}
		if wordPatterns[i].MatchString(lower) {
			return true
		}
	}
	return false
}

func compileWordPatterns() {
	wordPatterns = make([]*regexp.Regexp, len(GroundingKeywords))
	for i, kw := range GroundingKeywords {
		k := strings.ToLower(kw)
		wordPatterns[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(k) + `\b`)
	}
}
