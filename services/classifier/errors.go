package classifier

import (
	"errors"
	"fmt"
)

var errInvalidLabel = errors.New("complexity label outside the closed set")

// Stage names where classification failed
const (
	StageCall     = "call"
	StageExtract  = "extract"
	StageValidate = "validate"
)

// maxFragmentRunes bounds the raw text carried by an error
const maxFragmentRunes = 500

// ClassificationError is a terminal classification failure.
// Fragment holds the raw model output (extract) or the parsed object (validate).
type ClassificationError struct {
	Stage    string
	Fragment string
	Err      error
}

func (e *ClassificationError) Error() string {
	if e.Stage == StageValidate {
		return "Invalid complexity level: " + e.Fragment
	}
	return fmt.Sprintf("Failed to analyze prompt: %v", e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

func fragment(s string) string {
	r := []rune(s)
	if len(r) <= maxFragmentRunes {
		return s
	}
	return string(r[:maxFragmentRunes]) + "..."
}
