package model

import "errors"

// Error taxonomy shared by the engine. Wrap with fmt.Errorf("...: %w", Err*)
// and test with errors.Is.
var (
	// ErrInsufficientData: fewer samples than an analysis requires.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrModelUnavailable: the participant's role has no loaded model.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrFeature: a required source field is missing or the match is degenerate.
	ErrFeature = errors.New("feature error")
)
