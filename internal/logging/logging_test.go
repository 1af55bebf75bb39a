package logging

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestLogger(buf *bytes.Buffer) *Logger {
	return &Logger{mu: &sync.Mutex{}, out: buf, colorize: false, level: LevelInfo}
}

func TestLoggerWritesMessageAndKeyValues(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)
	l.Info("peer connected", "peer", "p1", "outbound", true)

	out := buf.String()
	assert.Contains(t, out, "peer connected")
	assert.Contains(t, out, "peer=p1")
	assert.Contains(t, out, "outbound=true")
	assert.Contains(t, out, "[INFO ]")
}

func TestLoggerSuppressesBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)
	l.Debug("should not appear")
	assert.Empty(t, buf.String())
}

func TestChildLoggerInheritsContext(t *testing.T) {
	var buf bytes.Buffer
	root := newTestLogger(&buf)
	child := root.New("component", "sync")
	child.Info("started")

	out := buf.String()
	assert.True(t, strings.Contains(out, "component=sync"))
}
