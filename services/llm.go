package services

import "context"

const (
	// systemInstruction is sent with every completion request.
	systemInstruction = "Return strictly valid JSON only."
	llmTemperature    = 0.2
)

// Completer sends one prompt to a language model and returns its raw text.
// Implementations must not retry.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
