package pumper

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jbvmio/pumper/pipeline"
	"github.com/jbvmio/pumper/plugin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeInput struct {
	records  []string
	failWith error
	data     chan []byte
	errs     chan error
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func newFakeInput(records ...string) *fakeInput {
	return &fakeInput{
		records:  records,
		data:     make(chan []byte),
		errs:     make(chan error, 1),
		stopChan: make(chan struct{}),
	}
}

func (in *fakeInput) Start() error {
	in.wg.Add(1)
	go func() {
		defer in.wg.Done()
		defer close(in.data)
		for _, r := range in.records {
			select {
			case in.data <- []byte(r):
			case <-in.stopChan:
				return
			}
		}
		if in.failWith != nil {
			in.errs <- in.failWith
		}
	}()
	return nil
}

func (in *fakeInput) Stop() error {
	close(in.stopChan)
	in.wg.Wait()
	return nil
}

func (in *fakeInput) Errors() <-chan error { return in.errs }
func (in *fakeInput) Source() <-chan []byte { return in.data }

type fakeOutput struct {
	data     chan []byte
	errs     chan error
	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	got      []string
}

func newFakeOutput() *fakeOutput {
	return &fakeOutput{
		data:     make(chan []byte),
		errs:     make(chan error),
		stopChan: make(chan struct{}),
	}
}

func (out *fakeOutput) Start() error {
	out.wg.Add(1)
	go func() {
		defer out.wg.Done()
		for {
			select {
			case <-out.stopChan:
				return
			case b := <-out.data:
				out.mu.Lock()
				out.got = append(out.got, string(b))
				out.mu.Unlock()
			}
		}
	}()
	return nil
}

func (out *fakeOutput) Stop() error {
	close(out.stopChan)
	out.wg.Wait()
	return nil
}

func (out *fakeOutput) Errors() <-chan error { return out.errs }
func (out *fakeOutput) Destination() chan<- []byte { return out.data }

func (out *fakeOutput) records() []string {
	out.mu.Lock()
	defer out.mu.Unlock()
	return append([]string(nil), out.got...)
}

func upper(d pipeline.Data) (bool, error) {
	b := bytes.ToUpper(d.Bytes())
	d.(*bytes.Buffer).Reset()
	d.Write(b)
	return true, nil
}

func dropOdd(d pipeline.Data) (bool, error) {
	if strings.HasSuffix(string(d.Bytes()), `1`) || strings.HasSuffix(string(d.Bytes()), `3`) {
		return false, nil
	}
	return true, nil
}

func failOn(word string) pipeline.DataFunc {
	return func(d pipeline.Data) (bool, error) {
		if string(d.Bytes()) == word {
			return false, errors.Errorf("bad record %s", word)
		}
		return true, nil
	}
}

func TestPipelineKeepsOrder(t *testing.T) {
	var records []string
	for i := 0; i < 200; i++ {
		records = append(records, `rec`+strings.Repeat(`x`, i%7))
	}
	in := newFakeInput(records...)
	out := newFakeOutput()
	p := &Pipeline{
		Name:    `ordered`,
		Inputs:  []plugin.Input{in},
		Outputs: []plugin.Output{out},
		Stages:  [][]pipeline.DataFunc{{upper}, {pipeline.NoopData}},
	}
	require.NoError(t, p.Run(make(chan error, 10)))

	require.Eventually(t, func() bool { return len(out.records()) == len(records) }, 5*time.Second, 10*time.Millisecond)
	p.Stop()

	for i, r := range out.records() {
		assert.Equal(t, strings.ToUpper(records[i]), r)
	}
}

func TestPipelineDiscardsAndForwardsErrors(t *testing.T) {
	in := newFakeInput(`a0`, `a1`, `bad`, `a2`, `a3`, `a4`)
	in.failWith = errors.New(`source failed`)
	out := newFakeOutput()
	errs := make(chan error, 10)
	p := &Pipeline{
		Name:    `filtered`,
		Inputs:  []plugin.Input{in},
		Outputs: []plugin.Output{out},
		Stages:  [][]pipeline.DataFunc{{failOn(`bad`), dropOdd}},
	}
	require.NoError(t, p.Run(errs))

	require.Eventually(t, func() bool { return len(out.records()) == 3 }, 5*time.Second, 10*time.Millisecond)
	var got []string
	require.Eventually(t, func() bool {
		select {
		case err := <-errs:
			got = append(got, err.Error())
		default:
		}
		return len(got) == 2
	}, 5*time.Second, 10*time.Millisecond)
	p.Stop()

	assert.Equal(t, []string{`a0`, `a2`, `a4`}, out.records())
	assert.ElementsMatch(t, []string{`bad record bad`, `source failed`}, got)
}

func TestPipelinesStopWhileIdle(t *testing.T) {
	blocking := &blockingInput{fakeInput: newFakeInput()}
	out := newFakeOutput()
	var pls Pipelines
	pls.AddPipeline(&Pipeline{
		Name:    `idle`,
		Inputs:  []plugin.Input{blocking},
		Outputs: []plugin.Output{out},
	})
	require.NoError(t, pls.Run())

	done := make(chan struct{})
	go func() {
		pls.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(DrainTimeout):
		t.Fatal("pipelines did not stop")
	}
	assert.Empty(t, out.records())
}

// blockingInput produces nothing until stopped.
type blockingInput struct {
	*fakeInput
}

func (in *blockingInput) Start() error {
	in.wg.Add(1)
	go func() {
		defer in.wg.Done()
		defer close(in.data)
		<-in.stopChan
	}()
	return nil
}
