package pipeline

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func appendTag(tag string) DataFunc {
	return func(d Data) (bool, error) {
		d.Write([]byte(tag))
		return true, nil
	}
}

func TestPipelineOrderAndClose(t *testing.T) {
	ctx := context.Background()
	p := NewPipeline(ctx, nil)
	s1 := NewStage(ctx, nil)
	s1.Processors = []DataFunc{appendTag(`;a`)}
	s2 := NewStage(ctx, nil)
	s2.Processors = []DataFunc{
		func(d Data) (bool, error) {
			if string(d.Bytes()) == `3;a` {
				return false, nil
			}
			if string(d.Bytes()) == `5;a` {
				return false, errors.New(`five`)
			}
			return true, nil
		},
		appendTag(`;b`),
	}
	p.AddStages(s1, s2)
	p.Run()

	go func() {
		for i := 0; i < 8; i++ {
			p.In() <- NewData([]byte(strconv.Itoa(i)))
		}
		close(p.In())
	}()

	var got []string
	for d := range p.Out() {
		got = append(got, string(d.Bytes()))
	}
	p.Stop()

	assert.Equal(t, []string{`0;a;b`, `1;a;b`, `2;a;b`, `4;a;b`, `6;a;b`, `7;a;b`}, got)
	require.Len(t, p.Error(), 1)
	assert.EqualError(t, <-p.Error(), `five`)
}

func TestPipelineWithoutStages(t *testing.T) {
	p := NewPipeline(context.Background(), nil)
	p.Run()
	go func() {
		p.In() <- NewData([]byte(`x`))
		close(p.In())
	}()
	d, ok := <-p.Out()
	require.True(t, ok)
	assert.Equal(t, `x`, string(d.Bytes()))
	_, ok = <-p.Out()
	assert.False(t, ok)
	p.Stop()
}

func TestStageStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewStage(ctx, nil)
	s.Processors = []DataFunc{NoopData}
	s.Run()
	cancel()
	_, ok := <-s.Out()
	assert.False(t, ok)
	s.Stop()
}
