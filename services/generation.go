package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coursegen/db"
	"coursegen/internal/llmjson"
	"coursegen/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// complete runs one bounded LLM round trip and normalizes its output.
func complete(ctx context.Context, llm Completer, timeout time.Duration, prompt string, log *logger.Logger) (map[string]any, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	raw, err := llm.Complete(ctx, prompt)
	if err != nil {
		if !errors.Is(err, ErrUpstreamUnavailable) {
			err = fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
		return nil, err
	}

	parsed, strategy, ok := llmjson.NormalizeWithStrategy(raw)
	if !ok {
		log.Error("model output could not be normalized", "raw", clip(raw, 2000))
		return nil, &UnparseableResponseError{Raw: raw}
	}
	log.Debug("model output normalized", "strategy", strategy)
	return parsed, nil
}

// ParseObjectID converts a hex id from a request into an ObjectID.
func ParseObjectID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, hex)
	}
	return id, nil
}

func storeErr(err error, what string) error {
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}
