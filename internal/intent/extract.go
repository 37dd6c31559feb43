package intent

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/p2c2e/gnucash-cli/internal/model"
)

// Inferrer is the external inference collaborator. It receives the
// raw text and the closed command schema and returns a candidate JSON
// command. Its output is untrusted and always re-validated.
type Inferrer interface {
	Infer(ctx context.Context, text, schema string) ([]byte, error)
}

// Extractor turns freeform text into a typed Command: deterministic
// pattern rules first, constrained inference second. No partial
// command is ever emitted.
type Extractor struct {
	rules    []rule
	inferrer Inferrer // nil disables the fallback tier
	timeout  time.Duration
	log      zerolog.Logger
}

// NewExtractor creates an Extractor with the default rule table.
func NewExtractor(inferrer Inferrer, timeout time.Duration, log zerolog.Logger) *Extractor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Extractor{rules: defaultRules(), inferrer: inferrer, timeout: timeout, log: log}
}

// Extract maps text to a Command or a ParseError. The deterministic
// tier is tried in rule order; only when no rule matches does the
// inference fallback run, and its result passes the exact same schema
// validation.
func (e *Extractor) Extract(ctx context.Context, text string) (model.Command, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ParseError{Fragment: text, Reason: "empty input"}
	}

	c := newCapture(trimmed)
	for _, r := range e.rules {
		if !r.triggered(c) {
			continue
		}
		cmd, ok, err := r.build(c)
		if err != nil {
			return nil, err
		}
		if ok {
			e.log.Debug().Str("rule", r.name).Str("kind", string(cmd.Kind())).Msg("deterministic rule matched")
			return cmd, nil
		}
	}

	if e.inferrer == nil {
		return nil, ParseError{Fragment: trimmed, Reason: "no pattern rule matched"}
	}

	ictx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.inferrer.Infer(ictx, trimmed, CommandSchema)
	if err != nil {
		// An inference failure or timeout is a plain parse failure;
		// callers cannot tell which tier gave up.
		e.log.Debug().Err(err).Msg("inference fallback failed")
		return nil, ParseError{Fragment: trimmed, Reason: "no pattern rule matched"}
	}

	cmd, err := DecodeCommand(raw, trimmed)
	if err != nil {
		var perr ParseError
		if errors.As(err, &perr) {
			// Any defect in the inference output is a schema rejection.
			return nil, ParseError{Fragment: trimmed, Reason: "inference result failed schema validation"}
		}
		return nil, err
	}
	e.log.Debug().Str("kind", string(cmd.Kind())).Msg("inference fallback produced command")
	return cmd, nil
}
