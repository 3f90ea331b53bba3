package model

type Stage int

const (
	StageSync Stage = iota
	StageLocateContext
	StageBuildVersioned
	StagePushVersioned
	StageBuildLatest
	StagePushLatest
)

func (s Stage) String() string {
	switch s {
	case StageSync:
		return "sync"
	case StageLocateContext:
		return "locate-context"
	case StageBuildVersioned:
		return "build-versioned"
	case StagePushVersioned:
		return "push-versioned"
	case StageBuildLatest:
		return "build-latest"
	case StagePushLatest:
		return "push-latest"
	default:
		return "unknown"
	}
}

// Kind is the failure kind reported when the stage fails.
func (s Stage) Kind() ErrorKind {
	switch s {
	case StageSync:
		return KindSyncFailed
	case StageLocateContext:
		return KindBuildContextMissing
	case StageBuildVersioned, StageBuildLatest:
		return KindBuildFailed
	default:
		return KindPushFailed
	}
}

// PipelineResult is the outcome of one entry. Stage is the last stage reached:
// the failing one when Err is set, StagePushLatest on success.
type PipelineResult struct {
	EntryName EntryName
	Tag       string
	Stage     Stage
	Err       error
}

func (r PipelineResult) Success() bool {
	return r.Err == nil
}

type BatchOutcome struct {
	Results      []PipelineResult
	SkippedLines []int
}

func (o BatchOutcome) Succeeded() bool {
	for _, result := range o.Results {
		if !result.Success() {
			return false
		}
	}
	return true
}

func (o BatchOutcome) Failed() []PipelineResult {
	var failed []PipelineResult
	for _, result := range o.Results {
		if !result.Success() {
			failed = append(failed, result)
		}
	}
	return failed
}

func (o BatchOutcome) ExitCode() int {
	if o.Succeeded() {
		return 0
	}
	return 1
}
