package source_test

import (
	"io"
	"testing"

	"github.com/jbvmio/pumper/source"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer(t *testing.T) {
	b := source.NewBuffer()
	n, err := b.Available()
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = b.Write([]byte("hello"))
	require.NoError(t, err)
	n, err = b.Available()
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	p := make([]byte, 3)
	n, err = b.Read(p)
	require.NoError(t, err)
	assert.Equal(t, "hel", string(p[:n]))

	require.NoError(t, b.Close())
	_, err = b.Write([]byte("late"))
	assert.Equal(t, source.ErrClosed, err)

	n, err = b.Available()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = b.Read(p)
	require.NoError(t, err)
	assert.Equal(t, "lo", string(p[:n]))

	n, err = b.Available()
	assert.Zero(t, n)
	assert.Equal(t, io.EOF, err)
	_, err = b.Read(p)
	assert.Equal(t, io.EOF, err)
}

func TestBufferCloseWithError(t *testing.T) {
	boom := errors.New("boom")
	b := source.NewBuffer()
	require.NoError(t, b.CloseWithError(boom))
	require.NoError(t, b.Close())
	_, err := b.Available()
	assert.Equal(t, boom, err)
}
