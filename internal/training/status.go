package training

// Status is the lifecycle state of a mesocycle or a plan instance.
//
// A mesocycle always carries a status, starting at not_started. A plan
// instance stores NULL until it is activated, mapped to a nil *Status in Go;
// only iteration 1 starts as in_progress.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusComplete   Status = "complete"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusComplete:
		return true
	default:
		return false
	}
}

// SwapDirection moves an exercise one position up or down within a workout.
type SwapDirection string

const (
	SwapDirectionUp   SwapDirection = "up"
	SwapDirectionDown SwapDirection = "down"
)

func (d SwapDirection) IsValid() bool {
	switch d {
	case SwapDirectionUp, SwapDirectionDown:
		return true
	default:
		return false
	}
}

// SetType classifies a performed exercise set. Unknown values are rejected
// at the boundary instead of being persisted.
type SetType string

const (
	SetTypeWarmup  SetType = "warmup"
	SetTypeWorking SetType = "working"
	SetTypeDropset SetType = "dropset"
	SetTypeFailure SetType = "failure"
)

func (st SetType) String() string {
	return string(st)
}

func (st SetType) IsValid() bool {
	switch st {
	case SetTypeWarmup, SetTypeWorking, SetTypeDropset, SetTypeFailure:
		return true
	default:
		return false
	}
}
