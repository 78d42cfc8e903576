package pumper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
syslog:
  sources:
    - plugin: exec
      command: journalctl
      args: ["-f"]
      split: lines
  destinations:
    - plugin: stdout
      newline: true
  processors:
    - stage: 1
      steps:
        - step: 1
          workflow:
            driver: json
            method: extract
            path: MESSAGE
`

func TestConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), `config.yaml`)
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))

	cfgs, err := ConfigFromFile(path)
	require.NoError(t, err)
	require.Contains(t, cfgs, `syslog`)
	c := cfgs[`syslog`]
	assert.Equal(t, `exec`, c.Sources[0][`plugin`])
	assert.Equal(t, []interface{}{`-f`}, c.Sources[0][`args`])
	assert.Equal(t, true, c.Destinations[0][`newline`])
	require.Len(t, c.Processors, 1)
	assert.Equal(t, `MESSAGE`, c.Processors[0].Steps[0].Workflow[`path`])

	_, err = ConfigFromFile(filepath.Join(t.TempDir(), `missing.yaml`))
	assert.Error(t, err)
}

func TestParseConfigRejects(t *testing.T) {
	tests := map[string]string{
		`unknown field`:   "p:\n  sources: [{plugin: stdin}]\n  destinations: [{plugin: stdout}]\n  outputs: []\n",
		`no sources`:      "p:\n  destinations: [{plugin: stdout}]\n",
		`no destinations`: "p:\n  sources: [{plugin: stdin}]\n",
		`not yaml`:        "p: [",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(in))
			assert.Error(t, err)
		})
	}
	cfgs, err := ParseConfig(nil)
	assert.NoError(t, err)
	assert.Empty(t, cfgs)
}
