package fatfs

import (
	"github.com/aligator/fatfs/checkpoint"
	"github.com/sirupsen/logrus"
)

type step struct {
	name string
	run  func() error
}

// operation is a multi step mutation. The steps run in the order they were
// added and the first failing step aborts the operation. Steps already done
// are not undone, the volume is left as the last successful step wrote it.
type operation struct {
	log   logrus.FieldLogger
	steps []step
}

func (m *Mount) newOperation(name, target string) *operation {
	return &operation{
		log: m.log.WithFields(logrus.Fields{"op": name, "target": target}),
	}
}

func (op *operation) then(name string, run func() error) *operation {
	op.steps = append(op.steps, step{name: name, run: run})
	return op
}

func (op *operation) run() error {
	for i, s := range op.steps {
		log := op.log.WithField("step", s.name)
		log.Debugf("step %d of %d", i+1, len(op.steps))
		if err := s.run(); err != nil {
			log.WithError(err).Warnf("aborted after %d of %d steps", i, len(op.steps))
			return checkpoint.From(err)
		}
	}
	return nil
}
