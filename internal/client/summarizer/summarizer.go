// Package summarizer shortens post bodies through a remote text service.
// It is best effort: callers show the error and carry on, and nothing here
// touches session state.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/blogkeeper/internal/common"
	"github.com/dmitrijs2005/blogkeeper/internal/netx"
)

// DefaultSentences is used when the caller asks for zero sentences.
const DefaultSentences = 3

var ErrEmptyText = errors.New("nothing to summarize")

type Summarizer interface {
	Summarize(ctx context.Context, text string, sentences int) (string, error)
}

func normalize(text string, sentences int) (string, int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", 0, ErrEmptyText
	}
	if sentences <= 0 {
		sentences = DefaultSentences
	}
	return text, sentences, nil
}

// wrapErr maps timeouts to common.ErrNetworkTimeout and keeps the cause.
func wrapErr(op string, err error) error {
	if netx.IsTimeout(err) {
		return fmt.Errorf("%w: %s: %w", common.ErrNetworkTimeout, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
