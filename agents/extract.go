package agents

import (
	"regexp"
	"strings"
)

// fenceState tracks code fence parsing state for ``` and ~~~ fences.
type fenceState struct {
	inFence   bool
	fenceChar byte
	fenceLen  int
}

// processLine updates fence state based on the current trimmed line and
// reports whether the line is a fence marker.
func (f *fenceState) processLine(trimmed string) bool {
	if len(trimmed) < 3 {
		return false
	}
	if !f.inFence {
		if trimmed[0] == '`' || trimmed[0] == '~' {
			fenceChar := trimmed[0]
			fenceLen := countLeadingChars(trimmed, fenceChar)
			if fenceLen >= 3 {
				f.inFence = true
				f.fenceChar = fenceChar
				f.fenceLen = fenceLen
				return true
			}
		}
		return false
	}
	if trimmed[0] == f.fenceChar {
		count := countLeadingChars(trimmed, f.fenceChar)
		if count >= f.fenceLen && count == len(trimmed) {
			f.inFence = false
			f.fenceChar = 0
			f.fenceLen = 0
			return true
		}
	}
	return false
}

func countLeadingChars(s string, char byte) int {
	count := 0
	for count < len(s) && s[count] == char {
		count++
	}
	return count
}

var (
	codePrefixes  = []string{"class ", "def ", "async def ", "import ", "from ", "@", "urlpatterns", "{%", "{{", "<"}
	assignmentRe  = regexp.MustCompile(`^[A-Za-z_][\w.]*(\s*:\s*[^=]+)?\s*=[^=]`)
	explanationRe = regexp.MustCompile(`(?i)^explanation\s*:\s*`)
	labelRe       = regexp.MustCompile(`(?im)^[ \t]*explanation[ \t]*:[ \t]*`)
	blankRunRe    = regexp.MustCompile(`\n{3,}`)
)

// ExtractCode separates the code in a model reply from its explanation.
// Fenced blocks win when present; otherwise the text before an
// "Explanation:" line is scanned for the first code-like line. code is empty
// when nothing looks like code.
func ExtractCode(response string) (code, explanation string) {
	response = strings.ReplaceAll(response, "\r\n", "\n")
	if code, explanation, ok := extractFenced(response); ok {
		return code, explanation
	}
	return extractUnfenced(response)
}

func extractFenced(response string) (string, string, bool) {
	var (
		fence     fenceState
		found     bool
		explained bool
		blocks    []string
		block     []string
		prose     []string
	)
	for _, line := range strings.Split(response, "\n") {
		wasIn := fence.inFence
		if fence.processLine(strings.TrimSpace(line)) {
			found = true
			if wasIn {
				blocks = appendBlock(blocks, block)
				block = nil
				explained = false
			}
			continue
		}
		// An explanation inside a fence ends that block's code.
		if fence.inFence && !explained && explanationRe.MatchString(strings.TrimSpace(line)) {
			explained = true
		}
		if fence.inFence && !explained {
			block = append(block, line)
		} else {
			prose = append(prose, line)
		}
	}
	if !found {
		return "", "", false
	}
	if fence.inFence {
		blocks = appendBlock(blocks, block)
	}
	return strings.Join(blocks, "\n\n"), cleanExplanation(strings.Join(prose, "\n")), true
}

func appendBlock(blocks, lines []string) []string {
	text := strings.TrimRight(strings.Join(lines, "\n"), " \t\n")
	text = strings.TrimLeft(text, "\n")
	if strings.TrimSpace(text) == "" {
		return blocks
	}
	return append(blocks, text)
}

func extractUnfenced(response string) (string, string) {
	lines := strings.Split(response, "\n")
	cut := len(lines)
	for i, line := range lines {
		if explanationRe.MatchString(strings.TrimSpace(line)) {
			cut = i
			break
		}
	}
	explanation := cleanExplanation(strings.Join(lines[cut:], "\n"))

	start := -1
	for i, line := range lines[:cut] {
		if looksLikeCode(strings.TrimSpace(line)) {
			start = i
			break
		}
	}
	if start < 0 {
		if cut == len(lines) {
			return "", strings.TrimSpace(response)
		}
		return "", explanation
	}
	code := strings.TrimRight(strings.Join(lines[start:cut], "\n"), " \t\n")
	return code, explanation
}

func looksLikeCode(trimmed string) bool {
	if trimmed == "" {
		return false
	}
	for _, p := range codePrefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return assignmentRe.MatchString(trimmed)
}

// cleanExplanation drops "Explanation:" labels and collapses blank runs.
func cleanExplanation(text string) string {
	text = labelRe.ReplaceAllString(text, "")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
