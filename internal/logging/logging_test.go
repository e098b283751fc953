package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	type testCase struct {
		name      string
		cfg       Config
		expectErr bool
		contains  string
	}
	tests := []testCase{
		{name: "default text", cfg: Config{}, contains: "msg=hello"},
		{name: "json", cfg: Config{Format: "json", Level: "debug"}, contains: `"msg":"hello"`},
		{name: "bad format", cfg: Config{Format: "xml"}, expectErr: true},
		{name: "bad level", cfg: Config{Level: "loud"}, expectErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger, err := New(tc.cfg, buf)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			logger.Info("hello")
			assert.Contains(t, buf.String(), tc.contains)
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("WARNING")
	assert.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}
