package editor

import (
	"regexp"
	"strings"
)

var (
	mathPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d+\s*[+\-*/^]\s*\d+)+`),
		regexp.MustCompile(`(\d+\s*\*\*\s*\d+)`),
		regexp.MustCompile(`sqrt\(\d+\)`),
		regexp.MustCompile(`(?i)(\d+)\s*days`),
		regexp.MustCompile(`(?i)(\d+)\s*weeks`),
	}
	reTimeUnit = regexp.MustCompile(`(?i)days|weeks`)
)

// extractMathExpression returns the first arithmetic-looking fragment of text.
func extractMathExpression(text string) (string, bool) {
	for _, re := range mathPatterns {
		if m := re.FindString(text); m != "" {
			return strings.TrimSpace(reTimeUnit.ReplaceAllString(m, "")), true
		}
	}
	return "", false
}
