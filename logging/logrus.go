package logging

import (
	"github.com/sirupsen/logrus"

	"github.com/tunnelvisionlabs/nasmjit-sub000/asm"
)

// LogrusLogger adapts a *logrus.Logger (or a *logrus.Entry, via
// NewLogrusEntryLogger) to the Logger interface, grounded on the structured
// field/level conventions the corpus's heaviest logrus consumer uses
// (grafana-k6's logging setup).
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger wraps l at DebugLevel-scoped logging, tagged with
// component=asm so callers can filter the assembler's entries from the
// rest of an application's logs.
func NewLogrusLogger(l *logrus.Logger) *LogrusLogger {
	return &LogrusLogger{entry: l.WithField("component", "asm")}
}

// NewLogrusEntryLogger wraps a pre-configured *logrus.Entry directly, e.g.
// one already carrying request- or build-scoped fields.
func NewLogrusEntryLogger(e *logrus.Entry) *LogrusLogger {
	return &LogrusLogger{entry: e}
}

func (l *LogrusLogger) Log(text string) {
	l.entry.Debug(text)
}

func (l *LogrusLogger) LogInstruction(text string) {
	l.entry.WithField("kind", "instruction").Debug(text)
}

func (l *LogrusLogger) LogLabel(label *asm.Label) {
	fields := logrus.Fields{"kind": "label"}
	if label.IsBound() {
		fields["offset"] = label.BoundOffset()
	}
	l.entry.WithFields(fields).Debug("label bound")
}

func (l *LogrusLogger) LogAlign(n int) {
	l.entry.WithField("kind", "align").Debugf("align %d", n)
}

func (l *LogrusLogger) LogComment(text string) {
	l.entry.WithField("kind", "comment").Debug(text)
}
