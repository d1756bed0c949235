package service

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var codeFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// unwrapCodeFence strips a surrounding markdown code fence, if any. Models
// routinely wrap structured answers in ```json blocks even when told not to.
func unwrapCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.Contains(trimmed, "```") {
		return trimmed
	}
	if m := codeFenceRe.FindStringSubmatch(trimmed); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}

// extractJSONBlock pulls the first well-formed top-level JSON object out of
// model output that may carry surrounding prose or fence markers. Returns
// the empty string when no valid object can be found.
func extractJSONBlock(text string) string {
	return extractDelimited(unwrapCodeFence(text), '{', '}')
}

// extractJSONArray does the same for a top-level JSON array.
func extractJSONArray(text string) string {
	return extractDelimited(unwrapCodeFence(text), '[', ']')
}

// extractDelimited scans for balanced open/close delimiter pairs outside of
// string literals and returns the first span that parses as valid JSON.
func extractDelimited(text string, openDelim, closeDelim byte) string {
	for start := 0; start < len(text); start++ {
		if text[start] != openDelim {
			continue
		}
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(text); i++ {
			c := text[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '"':
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case openDelim:
				depth++
			case closeDelim:
				depth--
				if depth == 0 {
					candidate := text[start : i+1]
					if gjson.Valid(candidate) {
						return candidate
					}
					i = len(text) // abandon this start position
				}
			}
		}
	}
	return ""
}

// parseQuestionArray decodes a generated question list, tolerating fence
// wrapping and surrounding prose.
func parseQuestionArray(text string) ([]string, error) {
	block := extractJSONArray(text)
	if block == "" {
		return nil, ErrQuestionsParse
	}
	parsed := gjson.Parse(block)
	if !parsed.IsArray() {
		return nil, ErrQuestionsParse
	}
	var questions []string
	for _, item := range parsed.Array() {
		q := strings.TrimSpace(item.String())
		if q != "" {
			questions = append(questions, q)
		}
	}
	if len(questions) == 0 {
		return nil, ErrQuestionsParse
	}
	return questions, nil
}
