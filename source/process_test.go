//go:build linux || darwin

package source_test

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/jbvmio/pumper/pump"
	"github.com/jbvmio/pumper/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestProcessOutputIsPumped(t *testing.T) {
	defer goleak.VerifyNone(t)

	proc := source.NewProcess("/bin/sh", "-c", "printf 'hello\\n'; printf 'oops\\n' >&2; printf 'world\\n'")
	proc.MergeStderr = true
	require.NoError(t, proc.Start())
	defer proc.Close()
	assert.NotZero(t, proc.Pid())

	var mu sync.Mutex
	var out bytes.Buffer
	p := pump.NewNonBlocking(proc.Source(), pump.CallbackFunc(func(chunk []byte) {
		mu.Lock()
		out.Write(chunk)
		mu.Unlock()
	}), nil)
	require.NoError(t, p.Start())

	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		p.Stop()
		t.Fatal("pump did not observe process exit")
	}
	assert.Equal(t, pump.ErrSourceClosed, p.Err())
	require.NoError(t, proc.Wait())
	mu.Lock()
	assert.Equal(t, "hello\noops\nworld\n", out.String())
	mu.Unlock()
}

func TestProcessCloseKills(t *testing.T) {
	defer goleak.VerifyNone(t)

	proc := source.NewProcess("/bin/sh", "-c", "sleep 30")
	require.NoError(t, proc.Start())

	p := pump.NewNonBlocking(proc.Source(), pump.CallbackFunc(func([]byte) {}), nil)
	require.NoError(t, p.Start())
	time.Sleep(2 * pump.PollInterval)
	p.Stop()
	<-p.Done()
	assert.NoError(t, p.Err())

	require.NoError(t, proc.Close())
	select {
	case <-proc.Exited():
	default:
		t.Fatal("process still running after Close")
	}
	assert.Error(t, proc.Wait())
}
