package cmd

import (
	"github.com/sirupsen/logrus"
)

// logSink writes exported trace rows to the debug log, one entry per step.
type logSink struct {
	columns []string
	rows    int
}

func (s *logSink) WriteHeader(columns []string) error {
	s.columns = columns
	return nil
}

func (s *logSink) WriteRows(rows [][]any) error {
	for _, row := range rows {
		fields := make(logrus.Fields, len(row))
		for i, v := range row {
			fields[s.columns[i]] = v
		}
		logrus.WithFields(fields).Debug("trace step")
		s.rows++
	}
	return nil
}

func (s *logSink) Close() error {
	logrus.Debugf("trace export: %d steps", s.rows)
	return nil
}
