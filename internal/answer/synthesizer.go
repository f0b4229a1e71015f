package answer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/aurorahq/aurora/internal/search"
)

// systemPrompt steers the model toward concrete, dated answers. Each
// context message carries a Date field; the model is told to resolve
// relative phrases ("next month", "tomorrow") against it.
const systemPrompt = "You are a concierge assistant analyzing member messages. " +
	"Provide direct, specific answers without referencing message numbers. " +
	"CRITICAL INSTRUCTIONS FOR DATES/TIMES:\n" +
	"- Each message has a 'Date:' field showing when it was sent\n" +
	"- When someone says 'next month', calculate: message date + 1 month\n" +
	"- When someone says 'tomorrow', 'next week', 'starting Monday', calculate the actual date from the message timestamp\n" +
	"- ALWAYS extract and state specific dates/times when available\n" +
	"- Example: If message dated '2025-10-23' says 'next month', answer should say 'November 2025'\n" +
	"OTHER INSTRUCTIONS:\n" +
	"- For preferences: List specific items mentioned positively\n" +
	"- For counting: Count carefully and state the number\n" +
	"- Be confident and specific when the information is in the messages\n" +
	"- Synthesize information naturally from multiple messages\n" +
	"- Write in a natural, conversational tone\n" +
	"- Never say 'not explicitly stated' if you can infer it from context + timestamps"

// Answer is a synthesized response with its provenance.
type Answer struct {
	Text       string            `json:"answer"`
	Confidence search.Confidence `json:"confidence"`
	Sources    []string          `json:"sources"`
}

// Synthesizer builds prompts from fused contexts and calls the
// completion client.
type Synthesizer struct {
	client *Client
}

// NewSynthesizer wires a synthesizer over the given client.
func NewSynthesizer(client *Client) *Synthesizer {
	return &Synthesizer{client: client}
}

// Synthesize produces an answer to the question from the fused
// contexts. Sources are the unique author names among the contexts,
// sorted for stable output. The confidence label is computed upstream
// from the retrieval scores and passed through untouched.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, resp *search.Response) (*Answer, error) {
	prompt := buildPrompt(question, resp.Results)

	slog.Info("generating answer",
		slog.String("question", question),
		slog.Int("context_count", len(resp.Results)))

	text, err := s.client.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	answer := &Answer{
		Text:       strings.TrimSpace(text),
		Confidence: resp.Confidence,
		Sources:    uniqueSources(resp.Results),
	}

	slog.Info("answer generated",
		slog.Int("answer_length", len(answer.Text)),
		slog.Int("sources_count", len(answer.Sources)),
		slog.String("confidence", string(answer.Confidence)))

	return answer, nil
}

// buildPrompt renders the question and numbered contexts. The original
// unenriched message text goes into the prompt; the enriched document
// exists only to improve embedding quality.
func buildPrompt(question string, results []search.Result) string {
	var b strings.Builder
	b.WriteString("Answer this question based on the member messages below.\n\n")
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\nMember Messages:\n")

	for i, r := range results {
		fmt.Fprintf(&b, "Message %d:\nFrom: %s\nDate: %s\nContent: %s\n\n",
			i+1, r.UserName, formatTimestamp(r.Timestamp), r.OriginalMessage)
	}

	b.WriteString("Provide a direct, natural answer. Don't reference message numbers. Synthesize the information naturally.\n\nAnswer:")
	return b.String()
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "unknown"
	}
	return ts.Format(time.RFC3339)
}

// uniqueSources returns the distinct author names, sorted.
func uniqueSources(results []search.Result) []string {
	seen := make(map[string]struct{}, len(results))
	sources := make([]string, 0, len(results))
	for _, r := range results {
		if r.UserName == "" {
			continue
		}
		if _, dup := seen[r.UserName]; dup {
			continue
		}
		seen[r.UserName] = struct{}{}
		sources = append(sources, r.UserName)
	}
	sort.Strings(sources)
	return sources
}
