package agents

import (
	"regexp"
	"strings"
	"unicode"
)

// answerPhrases mark a request for explanation. They are matched on whole
// words so "explains" inside a code request does not count.
var answerPhrases = []string{
	"explain",
	"what is",
	"what are",
	"how does",
	"why",
	"difference between",
	"when to use",
	"best practice",
	"should i",
	"help me understand",
}

var actionWords = map[string]struct{}{
	"create":    {},
	"write":     {},
	"generate":  {},
	"build":     {},
	"add":       {},
	"implement": {},
	"make":      {},
	"code":      {},
	"develop":   {},
	"update":    {},
	"append":    {},
}

// CodeExtensions are the file types a request may target.
var CodeExtensions = []string{".py", ".html", ".txt", ".js", ".css"}

var targetPathRe = regexp.MustCompile(`(?i)(?:^|[\s"'` + "`" + `(])([\w./\\-]*\w\.(?:py|html|txt|js|css))\b`)

// DetectMode classifies a request. An answer phrase opening the request wins;
// otherwise a code file target forces action mode, then answer phrases, then
// action verbs decide. Anything else is answered.
func DetectMode(input string) Mode {
	words := normalizeWords(input)
	if len(words) == 0 {
		return defaultMode
	}
	joined := " " + strings.Join(words, " ") + " "
	for _, phrase := range answerPhrases {
		if strings.HasPrefix(joined, " "+phrase+" ") {
			return ModeAnswer
		}
	}
	if ExtractTargetPath(input) != "" {
		return ModeAction
	}
	for _, phrase := range answerPhrases {
		if strings.Contains(joined, " "+phrase+" ") {
			return ModeAnswer
		}
	}
	for _, w := range words {
		if _, ok := actionWords[w]; ok {
			return ModeAction
		}
	}
	return ModeAnswer
}

// ExtractTargetPath returns the first path-like token ending in one of
// CodeExtensions, or "" when the request names no file.
func ExtractTargetPath(input string) string {
	m := targetPathRe.FindStringSubmatch(input)
	if len(m) < 2 {
		return ""
	}
	path := strings.Trim(m[1], "`\"'")
	path = strings.TrimRight(path, ".,;:!?)")
	return path
}

func normalizeWords(input string) []string {
	return strings.FieldsFunc(strings.ToLower(input), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}
