package transcribe

import (
	"regexp"
	"strings"
)

var (
	captionLine   = regexp.MustCompile(`^\s*\[\d{2}:\d{2}:\d{2}[.,]\d{3}\s*-->\s*\d{2}:\d{2}:\d{2}[.,]\d{3}\]\s*(.*)$`)
	markerOnly    = regexp.MustCompile(`^(\[[^\]]*\]|\([^)]*\)|\*[^*]*\*)$`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// ParseCaptions extracts text from "[hh:mm:ss.mmm --> hh:mm:ss.mmm]  text"
// lines. Lines holding only a non-speech marker such as [BLANK_AUDIO] or
// (music) are dropped. Other output lines are ignored.
func ParseCaptions(stdout string) string {
	parts := make([]string, 0, 8)
	for _, line := range strings.Split(stdout, "\n") {
		m := captionLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		text := strings.TrimSpace(m[1])
		if text == "" || markerOnly.MatchString(text) {
			continue
		}
		parts = append(parts, text)
	}
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(strings.Join(parts, " "), " "))
}
