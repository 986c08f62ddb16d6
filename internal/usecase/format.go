package usecase

import (
	"fmt"
	"strings"
	"time"
)

// humanDuration renders prompt windows the way the bot messages phrase them ("1 hour", "20 minutes").
func humanDuration(d time.Duration) string {
	plural := func(n int64, unit string) string {
		if n == 1 {
			return fmt.Sprintf("1 %s", unit)
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int64(d/time.Hour), "hour")
	case d >= time.Minute:
		return plural(int64(d/time.Minute), "minute")
	default:
		return plural(int64(d/time.Second), "second")
	}
}

var (
	markdownV2Code = strings.NewReplacer("\\", "\\\\", "`", "\\`")
	markdownV1Code = strings.NewReplacer("`", "'")
)

// escapeMarkdownV2Code escapes text placed inside a MarkdownV2 code span.
func escapeMarkdownV2Code(s string) string { return markdownV2Code.Replace(s) }

// escapeMarkdownCode keeps legacy Markdown code spans closed.
func escapeMarkdownCode(s string) string { return markdownV1Code.Replace(s) }
