package hid

import "github.com/sirupsen/logrus"

// LogSink logs every op at debug level.
type LogSink struct {
	log *logrus.Entry
}

// NewLogSink creates a sink logging to log.
func NewLogSink(log *logrus.Entry) *LogSink {
	return &LogSink{log: log}
}

// Send logs op.
func (s *LogSink) Send(op Op) {
	fields := logrus.Fields{"op": op.Kind.String()}
	switch op.Kind {
	case ModDown, ModUp:
		fields["mods"] = op.Mods.String()
	default:
		fields["usage"] = op.Usage.String()
	}
	s.log.WithFields(fields).Debug("hid")
}
