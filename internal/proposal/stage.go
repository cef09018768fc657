package proposal

import "fmt"

// Stage is a step of the submission pipeline. A submission walks
// Idle → Validating → Rendering → Encoding → Uploading → Persisting → Done and
// can drop into Failed from any step after Idle.
type Stage int

const (
	StageIdle Stage = iota
	StageValidating
	StageRendering
	StageEncoding
	StageUploading
	StagePersisting
	StageDone
	StageFailed
)

var stageNames = map[Stage]string{
	StageIdle:       "idle",
	StageValidating: "validating",
	StageRendering:  "rendering",
	StageEncoding:   "encoding",
	StageUploading:  "uploading",
	StagePersisting: "persisting",
	StageDone:       "done",
	StageFailed:     "failed",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// StageError carries the stage a submission failed in along with the
// originating component's error.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("proposal submission failed while %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
