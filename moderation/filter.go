package moderation

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/abadojack/whatlanggo"
)

// Result is the verdict for one piece of content. FilteredContent is
// always safe to forward: redacted and bounded even when invalid.
type Result struct {
	IsValid         bool
	Violations      []string
	FilteredContent string
	Language        string
}

var (
	urlPattern     = regexp.MustCompile(`https?://[^\s]+`)
	mentionPattern = regexp.MustCompile(`@\w+`)
	hashtagPattern = regexp.MustCompile(`#\w+`)
	cardPattern    = regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`)
	phonePattern   = regexp.MustCompile(`\b\d{3}[\s-]?\d{3}[\s-]?\d{4}\b`)
)

const (
	// Spam heuristics only fire on content long enough to be meaningful.
	spamMinRunes        = 10
	spamDiversityRatio  = 0.3
	spamTokenThreshold  = 5
	spamTokenDominance  = 0.5
	defaultMaxMsgLength = 2000
)

// Filter runs the whole moderation pipeline. Check is pure and
// deterministic, safe to call from many goroutines.
type Filter struct {
	moderator Moderator
	maxLength int
	log       *slog.Logger
}

func NewFilter(moderator Moderator, maxLength int, log *slog.Logger) *Filter {
	if maxLength <= 0 {
		maxLength = defaultMaxMsgLength
	}
	return &Filter{moderator: moderator, maxLength: maxLength, log: log}
}

// Check applies, in order: length bounds, banned word redaction,
// pattern detection, spam heuristics. Patterns add violations without
// redacting. The verdict is valid only when no check complained.
func (f *Filter) Check(content string) Result {
	var violations []string

	// 1. Length bounds
	runes := []rune(content)
	if len(runes) == 0 {
		return Result{
			IsValid:         false,
			Violations:      []string{"message is empty"},
			FilteredContent: "",
		}
	}
	if len(runes) > f.maxLength {
		runes = runes[:f.maxLength]
		content = string(runes)
		violations = append(violations, "message exceeds maximum length")
	}

	// 2. Banned words, redacted in place
	filtered, words := f.moderator.Censor(content)
	for _, word := range words {
		violations = append(violations, fmt.Sprintf("banned word: %s", word))
	}

	// 3. Patterns worth flagging but not worth redacting
	if urlPattern.MatchString(filtered) {
		violations = append(violations, "link detected")
	}
	if mentionPattern.MatchString(filtered) {
		violations = append(violations, "mention detected")
	}
	if hashtagPattern.MatchString(filtered) {
		violations = append(violations, "hashtag detected")
	}
	if cardPattern.MatchString(filtered) {
		violations = append(violations, "card number detected")
	}
	if phonePattern.MatchString(filtered) {
		violations = append(violations, "phone number detected")
	}

	// 4. Spam heuristics
	violations = append(violations, spamViolations(content)...)

	return Result{
		IsValid:         len(violations) == 0,
		Violations:      violations,
		FilteredContent: filtered,
		Language:        detectLanguage(content),
	}
}

func spamViolations(content string) []string {
	var violations []string

	runes := []rune(content)
	if len(runes) > spamMinRunes {
		unique := make(map[rune]struct{}, len(runes))
		for _, r := range runes {
			unique[r] = struct{}{}
		}
		if float64(len(unique))/float64(len(runes)) < spamDiversityRatio {
			violations = append(violations, "spam detected: low character diversity")
		}
	}

	tokens := strings.Fields(content)
	if len(tokens) > spamTokenThreshold {
		counts := make(map[string]int, len(tokens))
		for _, token := range tokens {
			counts[strings.ToLower(token)]++
		}
		for _, count := range counts {
			if float64(count)/float64(len(tokens)) > spamTokenDominance {
				violations = append(violations, "spam detected: repeated token")
				break
			}
		}
	}

	return violations
}

func detectLanguage(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	info := whatlanggo.Detect(content)
	return info.Lang.Iso6391()
}
