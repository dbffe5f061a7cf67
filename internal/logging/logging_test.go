package logging_test

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"tasksync/internal/logging"
)

func TestInitWriterLevels(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	var buf bytes.Buffer
	l := logging.InitWriter(&buf, false, "")
	l.Info().Msg("hidden")
	l.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	l = logging.InitWriter(&buf, true, "error")
	l.Debug().Str("task_id", "7").Msg("issuing request")
	assert.Contains(t, buf.String(), "issuing request")
	assert.Contains(t, buf.String(), "task_id=7")
}
