package domain

import "sync/atomic"

// Stage is a step of the bounded similarity pipeline.
type Stage int32

const (
	StageIdle Stage = iota
	StageCheckingPreconditions
	StageFetchingHistory
	StageVectorizing
	StageRanking
	StageFormatting
	StageDone
	StageTimedOut
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageCheckingPreconditions:
		return "checking-preconditions"
	case StageFetchingHistory:
		return "fetching-history"
	case StageVectorizing:
		return "vectorizing"
	case StageRanking:
		return "ranking"
	case StageFormatting:
		return "formatting"
	case StageDone:
		return "done"
	case StageTimedOut:
		return "timed-out"
	default:
		return "unknown"
	}
}

// stageTracker is shared between the caller and the pipeline goroutine of one request.
type stageTracker struct {
	current atomic.Int32
}

func (t *stageTracker) set(stage Stage) {
	t.current.Store(int32(stage))
}

func (t *stageTracker) get() Stage {
	return Stage(t.current.Load())
}
