package ollama

import "strings"

func buildClassificationPrompt(filename, content string, candidates []string) string {
	const maxSnippet = 4000
	snippet := content
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet]
	}

	var b strings.Builder
	b.WriteString(`You are a document classifier.
Return a strict JSON object with keys:
category (string, one of the candidates), confidence (number from 0 to 1), reason (string).
No markdown, no extra keys.

Candidates: `)
	b.WriteString(strings.Join(candidates, ", "))
	b.WriteString("\n\nFilename: ")
	b.WriteString(filename)
	if snippet != "" {
		b.WriteString("\n\nDocument:\n")
		b.WriteString(snippet)
	}
	return b.String()
}
