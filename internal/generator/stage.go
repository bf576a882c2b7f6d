package generator

import "fmt"

// Stage names the pipeline step a failure came from. Operational tooling
// groups alerts by stage, so the set is closed and stable.
type Stage string

const (
	StageProjection Stage = "projection"
	StagePhoto      Stage = "photo"
	StageEncode     Stage = "encode"
	StageLayout     Stage = "layout"
	StageRender     Stage = "render"
	StageExport     Stage = "export"
	StageStore      Stage = "store"
	StagePersist    Stage = "persist"
)

// StageError attributes a pipeline failure to the stage that raised it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}
