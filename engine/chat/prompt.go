package chat

import (
	"strings"

	"github.com/pharens/pharens-ai/engine/knowledge"
)

const promptHeader = `You are Pharens AI Assistant, an expert in beauty industry marketing and business growth. You help beauty businesses with marketing strategies, service optimization, and business development.

IMPORTANT GUIDELINES:
- Always be helpful, professional, and knowledgeable about the beauty industry
- Focus on actionable marketing advice and business growth strategies
- When discussing services, emphasize how Pharens AI can help with digital marketing, social media, SEO, and brand development
- Keep responses conversational but informative (2-3 sentences max)
- ALWAYS use information from the knowledge base when available - it contains the most accurate and up-to-date information
- For contact information, ALWAYS provide: Phone numbers +27 67 037 4461 or +27 60 278 5621, and email cbd.pharen25@gmail.com`

const promptClosing = "Respond to the user's message professionally and helpfully, prioritizing the knowledge base " +
	"context above all other information."

const (
	knowledgeHeading    = "KNOWLEDGE BASE CONTEXT (USE THIS INFORMATION FIRST):"
	conversationHeading = "RECENT CONVERSATION:"
)

// FormatContext quotes retrieved snippets in the order they were returned.
func FormatContext(results []knowledge.RetrievalResult) string {
	lines := make([]string, len(results))
	for i, r := range results {
		lines[i] = r.ContextLine()
	}
	return strings.Join(lines, "\n\n")
}

func historyLine(m Message) string {
	if m.IsBot {
		return "Assistant: " + m.Text
	}
	return "User: " + m.Text
}

// FormatHistory renders turns oldest first, one per line.
func FormatHistory(history []Message) string {
	lines := make([]string, len(history))
	for i, m := range history {
		lines[i] = historyLine(m)
	}
	return strings.Join(lines, "\n")
}

// BuildSystemPrompt assembles the instructions sent ahead of the user message.
// The knowledge and conversation blocks are omitted entirely when empty.
func BuildSystemPrompt(context, history string) string {
	var ctxBlock, histBlock string
	if context != "" {
		ctxBlock = knowledgeHeading + "\n" + context + "\n"
	}
	if history != "" {
		histBlock = conversationHeading + "\n" + history + "\n"
	}
	return promptHeader + "\n\n" + ctxBlock + "\n\n" + histBlock + "\n\n" + promptClosing
}
