package drivers

import (
	"testing"

	"github.com/jbvmio/pumper"
	"github.com/jbvmio/pumper/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func workflow(method string, kv ...string) map[string]interface{} {
	m := map[string]interface{}{`driver`: `json`, `method`: method}
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return m
}

func TestLoadProcessorsOrder(t *testing.T) {
	cfg := pumper.Configs{
		`logs`: {
			Processors: []pumper.Stage{
				{Stage: 2, Steps: []pumper.Step{{Step: 1, Workflow: workflow(`extract`, `path`, `name`)}}},
				{Stage: 1, Steps: []pumper.Step{
					{Step: 2, Workflow: workflow(`extract`, `path`, `beat`)},
					{Step: 1, Workflow: map[string]interface{}{`driver`: `json`, `method`: `filter`, `paths`: []string{`beat`}}},
				}},
			},
		},
	}
	p, err := LoadProcessors(cfg)
	require.NoError(t, err)
	require.Len(t, p[`logs`], 2)
	require.Len(t, p[`logs`][0], 2)

	d := pipeline.NewData([]byte(`{"beat":{"name":"host-1"}}`))
	for _, steps := range p[`logs`] {
		pass, err := MakeDriversFunc(steps)(d)
		require.NoError(t, err)
		require.True(t, pass)
	}
	assert.Equal(t, `"host-1"`, string(d.Bytes()))
}

func TestLoadProcessorsDupes(t *testing.T) {
	cfg := pumper.Configs{
		`logs`: {
			Processors: []pumper.Stage{
				{Stage: 1, Steps: []pumper.Step{{Step: 1, Workflow: workflow(`extract`, `path`, `a`)}}},
				{Stage: 1, Steps: []pumper.Step{{Step: 1, Workflow: workflow(`extract`, `path`, `b`)}}},
			},
		},
	}
	_, err := LoadProcessors(cfg)
	assert.EqualError(t, err, `logs has duplicate stage number defined`)

	cfg[`logs`] = pumper.Config{
		Processors: []pumper.Stage{
			{Stage: 1, Steps: []pumper.Step{
				{Step: 1, Workflow: workflow(`extract`, `path`, `a`)},
				{Step: 1, Workflow: workflow(`extract`, `path`, `b`)},
			}},
		},
	}
	_, err = LoadProcessors(cfg)
	assert.EqualError(t, err, `logs stage 1 has duplicate step numbers`)
}

func TestMakeDriversFuncDiscards(t *testing.T) {
	cfg := pumper.Configs{
		`logs`: {Processors: []pumper.Stage{{Stage: 1, Steps: []pumper.Step{{Step: 1, Workflow: workflow(`extract`, `path`, `missing`)}}}}},
	}
	p, err := LoadProcessors(cfg)
	require.NoError(t, err)
	pass, err := MakeDriversFunc(p[`logs`][0])(pipeline.NewData([]byte(`{"a":1}`)))
	assert.NoError(t, err)
	assert.False(t, pass)

	pass, err = MakeDriversFunc(nil)(pipeline.NewData([]byte(`raw`)))
	assert.NoError(t, err)
	assert.True(t, pass)
}
