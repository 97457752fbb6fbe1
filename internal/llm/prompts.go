package llm

import (
	"fmt"
	"strings"
)

// SystemPrompt instructs the model on how to answer legal questions from
// retrieved context. Answers must stay grounded in the provided material.
const SystemPrompt = `You are a legal research assistant for Wisconsin law enforcement officers.
Answer questions using only the provided legal context.

Rules:
1. Base every statement on the context blocks below. Do not rely on outside knowledge.
2. Cite the statute section (e.g. "s. 346.63") or source document for every claim.
3. If the context does not answer the question, say so plainly. Never guess.
4. Quote statutory language exactly when the precise wording matters.
5. Distinguish statutes, case law, and department policy when they conflict.
6. When a context block is marked as a cross-reference, note that it was pulled in
   because a primary result cites it.
7. Keep answers concise and operational. Officers read these in the field.
8. Do not provide legal advice; describe what the cited materials say.`

// ContextBlock is one retrieved chunk formatted into the prompt.
type ContextBlock struct {
	SourceFile    string
	DocType       string
	SectionNumber string
	Text          string
	IsCrossRef    bool
}

// BuildPrompt assembles the user message from the question and context blocks.
// Primary results are labeled with source, type and section; chain-expanded
// results are labeled as cross-references so the model can caveat them.
func BuildPrompt(question string, blocks []ContextBlock) string {
	var sb strings.Builder

	sb.WriteString("Legal context:\n\n")
	for _, block := range blocks {
		if block.IsCrossRef {
			sb.WriteString(fmt.Sprintf("[Cross-Reference: %s", block.SourceFile))
		} else {
			sb.WriteString(fmt.Sprintf("[Source: %s | Type: %s", block.SourceFile, block.DocType))
		}
		if block.SectionNumber != "" {
			sb.WriteString(fmt.Sprintf(" | Section: %s", block.SectionNumber))
		}
		sb.WriteString("]\n")
		sb.WriteString(block.Text)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Question: ")
	sb.WriteString(question)
	return sb.String()
}
