package pipeline

import (
	"regexp"
	"strings"
)

const DefaultMaxChars = 2000

// TextNormalizer strips email noise from raw request text before any
// downstream stage sees it. Normalization is idempotent for inputs under the
// length cap: running it twice yields the same output.
type TextNormalizer struct {
	maxChars int
}

func NewTextNormalizer(maxChars int) *TextNormalizer {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &TextNormalizer{maxChars: maxChars}
}

var (
	replyAttributionRe = regexp.MustCompile(`(?i)^on .+ wrote:\s*$`)
	headerLineRe       = regexp.MustCompile(`(?i)^(from|sent|to|cc|subject|date):\s`)
	originalMessageRe  = regexp.MustCompile(`(?i)^-+\s*original message\s*-+$`)
	forwardedMessageRe = regexp.MustCompile(`(?i)^-+\s*forwarded message\s*-+$`)
	ruleLineRe         = regexp.MustCompile(`^[-_=*]{10,}\s*$`)
	placeholderRe      = regexp.MustCompile(`(?i)\[(image|cid|attachment)[^\]]*\]`)
	blankRunRe         = regexp.MustCompile(`\n{3,}`)
)

// Normalize removes quoted history, header runs, signature blocks and inline
// placeholders, collapses blank runs, and caps the result at maxChars.
func (n *TextNormalizer) Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	text := strings.ReplaceAll(raw, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// Everything below a quoted-history or signature marker is noise.
		if originalMessageRe.MatchString(trimmed) ||
			forwardedMessageRe.MatchString(trimmed) ||
			trimmed == "--" {
			break
		}
		if replyAttributionRe.MatchString(trimmed) ||
			headerLineRe.MatchString(trimmed) ||
			ruleLineRe.MatchString(trimmed) ||
			strings.HasPrefix(trimmed, ">") {
			continue
		}

		kept = append(kept, placeholderRe.ReplaceAllString(line, ""))
	}

	out := strings.Join(kept, "\n")
	out = blankRunRe.ReplaceAllString(out, "\n\n")
	out = strings.TrimSpace(out)

	if len(out) > n.maxChars {
		out = strings.TrimSpace(out[:n.maxChars]) + "..."
	}
	return out
}
