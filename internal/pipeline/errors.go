package pipeline

import "fmt"

// Stage names a step of the pipeline.
type Stage string

const (
	StageInput   Stage = "input"
	StageSubmit  Stage = "submit"
	StagePoll    Stage = "poll"
	StageFetch   Stage = "fetch"
	StageParse   Stage = "parse"
	StagePersist Stage = "persist"
)

// StageError records which stage a run stopped at.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}
