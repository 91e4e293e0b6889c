package gemini

import "fmt"

// Instruction templates are versioned: any wording change bumps the suffix so
// differing transcription runs can be told apart in the artifact history.

const transcribePromptV1 = `TASK: Extract text as clean markdown with perfect layout preservation

This is a page from a scanned book. Convert ALL text to markdown format while preserving:

FORMATTING RULES:
- Every single line break and spacing exactly as shown
- All indentation and alignment using proper markdown
- Convert formatting to markdown (*italics*, **bold**, headers with #)
- Preserve table-of-contents formatting with dot leaders
- Maintain footnote positioning and numbering
- Keep page numbers and headers in correct positions
- Use markdown hard line breaks (two spaces + newline) for single line breaks
- Use double newlines only for true paragraph separations

CRITICAL: NO HTML TAGS ALLOWED
- Never use <br>, <p>, <div>, or any HTML tags
- Use only markdown syntax for formatting

OUTPUT: Clean markdown with perfect layout preservation and NO HTML markup.`

const translatePromptV1 = `TASK: Translate the text to %s

Translate this markdown text to %s while:

FORMATTING RULES:
- Keeping ALL markdown formatting exactly as is
- Maintaining identical structure and layout
- Preserving all markdown syntax (*italics*, **bold**, headers, etc.)
- Keeping line breaks and spacing unchanged
- Maintaining footnotes, page numbers, and structural elements

TRANSLATION RULES:
- Translate only the main language content to %s
- Keep proper nouns, place names, and technical terms appropriately
- Maintain academic tone and terminology
- Preserve citations and references exactly

CRITICAL: Output clean markdown only - NO HTML tags or code blocks

---

%s`

func translatePrompt(targetLang, text string) string {
	return fmt.Sprintf(translatePromptV1, targetLang, targetLang, targetLang, text)
}
