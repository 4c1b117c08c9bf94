package search

import (
	"fmt"
	"strings"
)

const systemPrompt = "You extract literal answers from a document. " +
	"Reply with a JSON array of strings and nothing else. " +
	"Repeat a string once per occurrence when the query asks for every occurrence."

// buildUserPrompt renders the extraction request sent to a model provider.
func buildUserPrompt(req *Request) string {
	var sb strings.Builder
	sb.WriteString("Document:\n")
	sb.WriteString(req.Content)
	sb.WriteString("\n\nQuery: ")
	sb.WriteString(req.Query)
	if req.K > 0 {
		fmt.Fprintf(&sb, "\n\nReturn at most %d answers, most relevant first, as a JSON array of strings.", req.K)
	} else {
		sb.WriteString("\n\nReturn the answers as a JSON array of strings.")
	}
	return sb.String()
}
