package slack

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	// <@U123> or <@U123|alice>
	userMentionPattern = regexp.MustCompile(`<@([A-Z0-9]+)(?:\|([^>]*))?>`)
	// <#C123> or <#C123|general>
	channelMentionPattern = regexp.MustCompile(`<#([A-Z0-9]+)(?:\|([^>]*))?>`)
	// <!here>, <!channel>, <!subteam^S123|@eng>, <!date^...|fallback>
	specialMentionPattern = regexp.MustCompile(`<!([a-z]+)(?:\^[^|>]*)?(?:\|([^>]*))?>`)
	// <https://example.com> or <https://example.com|label>
	linkPattern = regexp.MustCompile(`<((?:https?|mailto|tel):[^|>\s]+)(?:\|([^>]*))?>`)

	codeBlockPattern  = regexp.MustCompile("```")
	inlineCodePattern = regexp.MustCompile("`([^`]*)`")
	boldPattern       = delimitedPattern("*")
	strikePattern     = delimitedPattern("~")
	italicPattern     = delimitedPattern("_")

	spaceRunPattern = regexp.MustCompile(` {2,}`)
)

// Sanitize turns raw Slack message text into plain text: inline markup is
// replaced by its readable form, formatting delimiters are dropped, the text
// is NFC-normalized, whitespace is flattened to single spaces and control
// runes are removed. The result is a fixed point, so Sanitize is idempotent.
func Sanitize(text string) string {
	// Each pass unwraps one level of nested markup. A pass that changes the
	// text never lengthens it, so the loop ends.
	for {
		next := sanitizePass(text)
		if next == text {
			return next
		}
		text = next
	}
}

func sanitizePass(s string) string {
	s = cleanRunes(s)
	s = replaceMarkup(s)
	s = stripFormatting(s)
	s = norm.NFC.String(s)
	s = spaceRunPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func cleanRunes(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return ' '
		case r == '\u200d':
			// zero width joiner, part of emoji sequences
			return r
		case !unicode.IsPrint(r):
			return -1
		}
		return r
	}, s)
}

func replaceMarkup(s string) string {
	s = replaceSubmatch(userMentionPattern, s, func(m []string) string {
		if label := strings.TrimPrefix(m[2], "@"); label != "" {
			return "@" + label
		}
		return "@" + m[1]
	})
	s = replaceSubmatch(channelMentionPattern, s, func(m []string) string {
		if label := strings.TrimPrefix(m[2], "#"); label != "" {
			return "#" + label
		}
		return "#" + m[1]
	})
	s = replaceSubmatch(specialMentionPattern, s, func(m []string) string {
		if m[2] != "" {
			return m[2]
		}
		return "@" + m[1]
	})
	s = replaceSubmatch(linkPattern, s, func(m []string) string {
		if m[2] != "" {
			return m[2]
		}
		return m[1]
	})
	return s
}

func stripFormatting(s string) string {
	s = codeBlockPattern.ReplaceAllString(s, "")
	s = inlineCodePattern.ReplaceAllString(s, "$1")
	s = boldPattern.ReplaceAllString(s, "${1}${2}${3}")
	s = strikePattern.ReplaceAllString(s, "${1}${2}${3}")
	s = italicPattern.ReplaceAllString(s, "${1}${2}${3}")
	return s
}

func replaceSubmatch(re *regexp.Regexp, s string, render func(m []string) string) string {
	return re.ReplaceAllStringFunc(s, func(match string) string {
		return render(re.FindStringSubmatch(match))
	})
}

// delimitedPattern matches text wrapped in d that is not part of a word,
// so snake_case and 2*3*4 are left alone.
func delimitedPattern(d string) *regexp.Regexp {
	q := regexp.QuoteMeta(d)
	edge := `[^\p{L}\p{N}` + q + `]`
	return regexp.MustCompile(`(^|` + edge + `)` + q + `([^` + q + `]+)` + q + `($|` + edge + `)`)
}
