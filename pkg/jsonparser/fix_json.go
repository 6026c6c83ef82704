package jsonparser

import (
	"strings"
)

// validTailChars are JSON characters that can legitimately end a truncated
// document outside a string: punctuation, whitespace, digits, and the
// letters that make up number exponents and the true/false/null literals.
const validTailChars = ",: \t\n\r0123456789-.eE+trufalsn"

// FixJSON closes out a truncated or malformed JSON document so it parses:
// it walks the text tracking open braces/brackets and open string state,
// discards any trailing fragment that isn't a recognizable JSON character,
// completes a partial true/false/null literal, closes an unterminated
// string, and finally closes every brace/bracket still open, innermost
// first.
func FixJSON(jsonText string) string {
	if jsonText == "" {
		return ""
	}

	var openStack []rune
	inString, escaped := false, false
	lastValidIndex := -1

	for i := 0; i < len(jsonText); i++ {
		char := rune(jsonText[i])

		switch {
		case escaped:
			escaped = false
			lastValidIndex = i
		case char == '\\' && inString:
			escaped = true
			lastValidIndex = i
		case char == '"':
			inString = !inString
			lastValidIndex = i
		case inString:
			lastValidIndex = i
		case char == '{', char == '[':
			openStack = append(openStack, char)
			lastValidIndex = i
		case char == '}':
			if top(openStack) == '{' {
				openStack = openStack[:len(openStack)-1]
				lastValidIndex = i
			}
		case char == ']':
			if top(openStack) == '[' {
				openStack = openStack[:len(openStack)-1]
				lastValidIndex = i
			}
		case strings.ContainsRune(validTailChars, char):
			lastValidIndex = i
		}
	}

	if lastValidIndex < 0 {
		return ""
	}

	result := jsonText[:lastValidIndex+1]
	if inString {
		result += "\""
	}
	result = completeLiterals(result)

	for i := len(openStack) - 1; i >= 0; i-- {
		if openStack[i] == '{' {
			result += "}"
		} else {
			result += "]"
		}
	}

	return result
}

// top returns the stack's innermost open bracket, or 0 for an empty stack.
func top(stack []rune) rune {
	if len(stack) == 0 {
		return 0
	}
	return stack[len(stack)-1]
}

// completeLiterals finds a trailing run of lowercase letters in s (after
// trimming trailing whitespace) and, if it's a strict prefix of "true",
// "false", or "null", extends it to the full literal. A run that is already
// the full literal, or matches none of the three, is left untouched.
func completeLiterals(s string) string {
	i := len(s) - 1
	for i >= 0 && isJSONSpace(s[i]) {
		i--
	}
	if i < 0 {
		return s
	}

	start := i
	for start > 0 && s[start-1] >= 'a' && s[start-1] <= 'z' {
		start--
	}
	if start == i+1 {
		return s
	}

	partial := s[start : i+1]
	for _, literal := range []string{"true", "false", "null"} {
		if strings.HasPrefix(literal, partial) && partial != literal {
			return s[:start] + literal
		}
	}
	return s
}

func isJSONSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
