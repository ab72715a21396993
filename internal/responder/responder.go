// Package responder routes a generation request to either a generative
// backend or the deterministic keyword responder, depending on the active
// model descriptor.
package responder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/clinichub/clinic-gateway/internal/knowledge"
	"github.com/clinichub/clinic-gateway/internal/registry"
	"github.com/clinichub/clinic-gateway/internal/session"
)

// Generator is the narrow interface to an external generative-language
// collaborator. Errors propagate untouched so the queue can classify them.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Facade dispatches by descriptor kind.
type Facade struct {
	pack       *knowledge.Pack
	generators map[string]Generator
	logger     *slog.Logger
}

// NewFacade creates a facade with no generative providers registered yet;
// the deterministic path always works.
func NewFacade(pack *knowledge.Pack, logger *slog.Logger) *Facade {
	return &Facade{
		pack:       pack,
		generators: make(map[string]Generator),
		logger:     logger,
	}
}

// Register wires a provider name (descriptor.Provider) to its client.
func (f *Facade) Register(provider string, g Generator) {
	f.generators[provider] = g
}

// Generate produces the reply text for one request against one descriptor.
func (f *Facade) Generate(ctx context.Context, utterance string, sess *session.Session, lang string, d *registry.Descriptor) (string, error) {
	if d.Kind == registry.KindDeterministic {
		return deterministic(utterance, lang, f.pack), nil
	}

	g, ok := f.generators[d.Provider]
	if !ok {
		return "", fmt.Errorf("no generator registered for provider %s", d.Provider)
	}
	prompt := f.buildPrompt(utterance, sess, lang)
	text, err := g.Generate(ctx, d.Model, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Deterministic exposes the keyword responder directly, for callers that
// bypass the queue (canned postback answers use the reply tables instead).
func (f *Facade) Deterministic(utterance, lang string) string {
	return deterministic(utterance, lang, f.pack)
}

const historyTurnsInPrompt = 3

// buildPrompt assembles the bounded prompt: fact sheet, the last few turns,
// a language directive, then the utterance.
func (f *Facade) buildPrompt(utterance string, sess *session.Session, lang string) string {
	var b strings.Builder
	b.WriteString("You are the assistant of a school clinic. Answer briefly and only from these facts. ")
	b.WriteString("If the question is outside clinic matters, say so and point to the clinic staff.\n\n")
	b.WriteString(f.pack.FactSheet())
	b.WriteString("\n\n")

	if turns := sess.RecentTurns(historyTurnsInPrompt); len(turns) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, t := range turns {
			fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", t.User, t.Bot)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Reply in %s.\n\nUser: %s", languageName(lang), utterance)
	return b.String()
}

func languageName(tag string) string {
	switch tag {
	case "tl":
		return "Tagalog"
	case "ceb":
		return "Cebuano"
	default:
		return "English"
	}
}
