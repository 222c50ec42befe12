package measure

import (
	"time"

	"github.com/chiselgen/chisel/pkg/engine/model"
)

type engineMeasure struct {
	m Measure
}

func (em *engineMeasure) New() error { return nil }

func (em *engineMeasure) PreparePhase(phase *model.PhaseInfo, _ []*model.PhaseInfo) error {
	em.m.AddMetric(phase.Name())

	return nil
}

func (em *engineMeasure) OnPhaseDone(phase *model.PhaseInfo, status model.PhaseStatus, elapsed time.Duration, documents int) error {
	mt := em.m.GetMetric(phase.Name())
	if mt == nil {
		return nil
	}

	if status == model.Succeeded {
		mt.AddDuration(elapsed)
	}
	mt.SetLastStatus(status.String())
	if documents >= 0 {
		mt.SetDocumentCount(int64(documents))
	}

	return nil
}

func (em *engineMeasure) Finish() error { return nil }

// EngineMeasure records phase durations, statuses and document counts into m.
func EngineMeasure(m Measure) model.EngineOption {
	return &engineMeasure{m: m}
}

var _ model.EngineOption = (*engineMeasure)(nil)
