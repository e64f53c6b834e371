// Package langdetect wraps trigram-based language detection behind a small
// interface so the ingestion service can be tested without the real model.
package langdetect

import (
	"errors"
	"strings"

	"github.com/abadojack/whatlanggo"
)

// ErrEmptyText is returned when there is no text to detect a language from.
var ErrEmptyText = errors.New("langdetect: empty text")

// ErrUndetermined is returned when no language could be determined for the
// given text (e.g. digits or symbols only).
var ErrUndetermined = errors.New("langdetect: language could not be determined")

// Detector detects the language of a piece of text, returning its ISO 639-1
// code. Detection is deterministic: the same text always yields the same code.
type Detector interface {
	Detect(text string) (string, error)
}

type whatlangDetector struct{}

// New returns the whatlanggo-backed detector. The underlying trigram model
// carries no randomness, so repeated runs on the same text are stable.
func New() Detector {
	return whatlangDetector{}
}

func (whatlangDetector) Detect(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	info := whatlanggo.Detect(text)
	code := whatlanggo.LangToStringShort(info.Lang)
	if code == "" {
		return "", ErrUndetermined
	}

	return code, nil
}
