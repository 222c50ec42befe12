// Package measure collects per-phase execution metrics: durations across
// runs, the last terminal status and the size of the produced document array.
package measure

import "sync"

type DefaultMeasure struct {
	lock   sync.Mutex
	phases map[string]Metric
}

func NewDefaultMeasure() *DefaultMeasure {
	return &DefaultMeasure{
		phases: make(map[string]Metric),
	}
}

func (m *DefaultMeasure) AddMetric(name string) Metric {
	m.lock.Lock()
	defer m.lock.Unlock()

	mt := &DefaultMetric{mu: &sync.Mutex{}}
	m.phases[name] = mt

	return mt
}

func (m *DefaultMeasure) GetMetric(name string) Metric {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.phases[name]
}

func (m *DefaultMeasure) AllMetrics() map[string]Metric {
	m.lock.Lock()
	defer m.lock.Unlock()

	all := make(map[string]Metric, len(m.phases))
	for name, mt := range m.phases {
		all[name] = mt
	}

	return all
}

var _ Measure = (*DefaultMeasure)(nil)
