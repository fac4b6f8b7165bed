package mesocycles

import (
	"time"

	"github.com/mladenovic/liftplan/internal/training"
	"github.com/mladenovic/liftplan/internal/training/instances"
)

// Mesocycle is a bounded repetition of a plan template: `Iterations` full
// run-throughs, each one a PlanInstance with its own day state.
type Mesocycle struct {
	ID             int             `json:"id"`
	Owner          string          `json:"-"`
	Name           string          `json:"name"`
	PlanTemplateID int             `json:"planTemplateId"`
	Iterations     int             `json:"iterations"`
	Status         training.Status `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`

	Instances []instances.PlanInstance `json:"instances,omitempty"`
}

// RIRForIteration computes the reps-in-reserve target for one iteration:
// min(3, iterations - iterationNumber). The first iteration of a long block
// trains furthest from failure, the final iteration at RIR 0.
func RIRForIteration(iterations, iterationNumber int) int {
	rir := iterations - iterationNumber
	if rir > 3 {
		rir = 3
	}
	return rir
}

// EffectiveStatus is the read-time view of the stored status. A mesocycle
// whose iterations are all complete is reported COMPLETE even if the cascade
// write has not landed yet; the derivation agrees with what the cascade would
// persist. Anything short of that reports the stored status unchanged.
func (m *Mesocycle) EffectiveStatus() training.Status {
	if m.Status == training.StatusComplete {
		return m.Status
	}
	if len(m.Instances) > 0 && instances.AllComplete(m.Instances) {
		return training.StatusComplete
	}
	return m.Status
}
