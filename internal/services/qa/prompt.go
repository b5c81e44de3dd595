package qa

import (
	"fmt"
	"strings"
)

const promptTemplate = `You are DocQA Assistant. Answer concisely using only the PDF provided. If not found, say "Not found in the document."

Document: %s
Context (excerpts by page):
%s

Question: %s

Respond with:
- Short answer (1–2 sentences)
- 1–2 quoted excerpts with page numbers
- Confidence (High/Medium/Low with reason)`

// BuildPrompt renders the instruction prompt. Each page is cut to
// excerptChars characters and labelled with its 1-based page number.
func BuildPrompt(question, fileName string, pages []string, excerptChars int) string {
	excerpts := make([]string, 0, len(pages))
	for i, page := range pages {
		excerpts = append(excerpts, fmt.Sprintf("Page %d: %s", i+1, Truncate(page, excerptChars)))
	}
	return fmt.Sprintf(promptTemplate, fileName, strings.Join(excerpts, "\n\n"), question)
}

// Truncate keeps at most n characters (runes, not bytes) of s.
func Truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
