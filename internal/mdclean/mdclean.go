// Package mdclean normalizes model output into plain markdown. The upstream
// service is not contractually constrained to avoid HTML markup or code
// fences, so every transcription and translation passes through Clean before
// it is persisted.
package mdclean

import (
	"regexp"
	"strings"
)

var htmlEntities = []struct {
	entity      string
	replacement string
}{
	{"&nbsp;", " "},
	{"&amp;", "&"},
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&quot;", `"`},
}

var (
	brTag        = regexp.MustCompile(`<br\s*/?>`)
	pOpenTag     = regexp.MustCompile(`<p\s*/?>`)
	divOpenTag   = regexp.MustCompile(`<div[^>]*>`)
	anyTag       = regexp.MustCompile(`<[^>]+>`)
	excessBlank  = regexp.MustCompile(`\n{4,}`)
	trailingWS   = regexp.MustCompile(`[ \t]+\n`)
	fenceOpening = regexp.MustCompile("^```[a-zA-Z]*$")
)

// Clean strips HTML artifacts and code-fence wrapping from model output.
// It is a pure function: identical input always yields identical output, so
// recompiling from persisted artifacts stays deterministic.
func Clean(text string) string {
	for _, e := range htmlEntities {
		text = strings.ReplaceAll(text, e.entity, e.replacement)
	}

	text = brTag.ReplaceAllString(text, "\n")
	text = pOpenTag.ReplaceAllString(text, "\n\n")
	text = strings.ReplaceAll(text, "</p>", "")
	text = divOpenTag.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "</div>", "")
	text = anyTag.ReplaceAllString(text, "")

	text = unwrapFence(strings.TrimSpace(text))

	// Cap runs of newlines so the compiled document keeps at most two blank
	// lines between blocks.
	text = excessBlank.ReplaceAllString(text, "\n\n\n")
	text = trailingWS.ReplaceAllString(text, "\n")

	return strings.TrimSpace(text)
}

// unwrapFence removes a single enclosing code fence, which some responses add
// around the whole transcript.
func unwrapFence(text string) string {
	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return text
	}
	if fenceOpening.MatchString(strings.TrimSpace(lines[0])) {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
