package ai

import "context"

// Generator is a language-model backend able to follow a system instruction
// and answer a single user message with free-form text.
type Generator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}
