package json

import (
	"testing"

	"github.com/jbvmio/pumper/driver"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDriver(t *testing.T, details map[string]interface{}) *Driver {
	t.Helper()
	var c Config
	require.NoError(t, c.Configure(details))
	d, err := NewDriver(&c)
	require.NoError(t, err)
	return d
}

func TestConfigure(t *testing.T) {
	tests := []struct {
		name    string
		details map[string]interface{}
		wantErr bool
	}{
		{`filter`, map[string]interface{}{`method`: `filter`, `paths`: []string{`a`}}, false},
		{`filter without paths`, map[string]interface{}{`method`: `filter`}, true},
		{`extract`, map[string]interface{}{`method`: `extract`, `path`: `a.b`}, false},
		{`extract without path`, map[string]interface{}{`method`: `extract`}, true},
		{`unknown method`, map[string]interface{}{`method`: `mutate`}, true},
		{`missing method`, map[string]interface{}{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			err := c.Configure(tt.details)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFilter(t *testing.T) {
	d := newDriver(t, map[string]interface{}{`method`: `filter`, `paths`: []string{`level`, `msg`}})

	r := d.Process(driver.NewPayload([]byte(`{"level":"info","msg":"up"}`)))
	assert.NoError(t, r.Error())
	assert.Equal(t, `{"level":"info","msg":"up"}`, string(r.Bytes()))

	r = d.Process(driver.NewPayload([]byte(`{"level":"info"}`)))
	assert.NoError(t, r.Error())
	assert.Empty(t, r.Bytes())
}

func TestExtract(t *testing.T) {
	d := newDriver(t, map[string]interface{}{`method`: `extract`, `path`: `beat.name`})

	r := d.Process(driver.NewPayload([]byte(`{"beat":{"name":"host-1"}}`)))
	assert.NoError(t, r.Error())
	assert.Equal(t, `"host-1"`, string(r.Bytes()))

	r = d.Process(driver.NewPayload([]byte(`{"beat":{}}`)))
	assert.Empty(t, r.Bytes())
}

func TestInvalidJSON(t *testing.T) {
	d := newDriver(t, map[string]interface{}{`method`: `extract`, `path`: `a`})
	r := d.Process(driver.NewPayload([]byte(`not json`)))
	assert.NoError(t, r.Error())
	assert.Empty(t, r.Bytes())

	d = newDriver(t, map[string]interface{}{`method`: `extract`, `path`: `a`, `strict`: true})
	r = d.Process(driver.NewPayload([]byte(`not json`)))
	require.Error(t, r.Error())
	assert.Contains(t, errors.Cause(r.Error()).Error(), `invalid json received`)
}
