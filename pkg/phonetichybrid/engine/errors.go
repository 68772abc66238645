package engine

import (
	"errors"
	"fmt"
)

// ErrEmptyWord is returned when the target word is blank.
var ErrEmptyWord = errors.New("target word is empty")

// Stage names the pipeline step an analysis reached.
type Stage string

const (
	StageReceived          Stage = "received"
	StageTranscribed       Stage = "transcribed"
	StageRecognized        Stage = "recognized"
	StageFeaturesExtracted Stage = "features_extracted"
	StageSegmented         Stage = "segmented"
	StageScored            Stage = "scored"
	StageAggregated        Stage = "aggregated"
	StageDone              Stage = "done"
)

// Kind classifies a failure for the caller.
type Kind int

const (
	KindInternal Kind = iota
	// KindInput is a caller error: malformed audio or an empty word.
	KindInput
	// KindDependency is a required collaborator being unavailable.
	KindDependency
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindDependency:
		return "dependency"
	default:
		return "internal"
	}
}

// AnalysisError reports the stage and kind of a failed analysis.
type AnalysisError struct {
	Stage Stage
	Kind  Kind
	Err   error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis failed at %s (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or KindInternal if err is not an
// AnalysisError.
func KindOf(err error) Kind {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

func fail(stage Stage, kind Kind, err error) error {
	return &AnalysisError{Stage: stage, Kind: kind, Err: err}
}
