package drawer

import (
	"time"

	"github.com/pkg/errors"

	"github.com/chiselgen/chisel/pkg/engine/measure"
	"github.com/chiselgen/chisel/pkg/engine/model"
)

type engineDrawer struct {
	Drawer
	m measure.Measure
}

func (ed *engineDrawer) New() error { return nil }

func (ed *engineDrawer) PreparePhase(phase *model.PhaseInfo, upstream []*model.PhaseInfo) error {
	err := ed.AddPhase(phase.Name())
	if err != nil {
		return errors.Wrap(err, "unable to add phase to drawer")
	}

	for _, up := range upstream {
		err := ed.AddLink(up.Name(), phase.Name())
		if err != nil {
			return errors.Wrap(err, "unable to add link to drawer")
		}
	}

	return nil
}

func (ed *engineDrawer) OnPhaseDone(*model.PhaseInfo, model.PhaseStatus, time.Duration, int) error {
	return nil
}

func (ed *engineDrawer) Finish() error {
	if ed.m != nil {
		err := ed.AddMeasure(ed.m)
		if err != nil {
			return errors.Wrap(err, "unable to add measure")
		}
	}

	err := ed.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw phase graph")
	}

	return nil
}

// EngineDrawer renders the phase graph after every execution. The measure may
// be nil; when given, vertices carry duration and status annotations.
func EngineDrawer(drawer Drawer, m measure.Measure) model.EngineOption {
	return &engineDrawer{drawer, m}
}

var _ model.EngineOption = (*engineDrawer)(nil)
