package pool

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewByteBuffer(t *testing.T) {
	bb := NewByteBuffer(64)

	require.NotNil(t, bb.B)
	require.Equal(t, 0, bb.Len())
	require.Equal(t, 64, bb.Cap())
}

func TestByteBuffer_Reset(t *testing.T) {
	bb := NewByteBuffer(RecordBufferDefaultSize)
	_, _ = bb.Write([]byte("some data"))
	originalCap := bb.Cap()

	bb.Reset()

	require.Equal(t, 0, bb.Len())
	require.Equal(t, originalCap, bb.Cap(), "Reset should preserve capacity")
}

func TestByteBuffer_ExtendOrGrow(t *testing.T) {
	t.Run("Within capacity", func(t *testing.T) {
		bb := NewByteBuffer(16)
		window := bb.ExtendOrGrow(8)
		require.Len(t, window, 8)
		require.Equal(t, 8, bb.Len())
		require.Equal(t, 16, bb.Cap())
	})

	t.Run("Grows and keeps content", func(t *testing.T) {
		bb := NewByteBuffer(4)
		_, _ = bb.Write([]byte{1, 2, 3})
		window := bb.ExtendOrGrow(10)
		copy(window, bytes.Repeat([]byte{9}, 10))

		require.Equal(t, 13, bb.Len())
		require.Equal(t, []byte{1, 2, 3}, bb.Bytes()[:3])
		require.Equal(t, byte(9), bb.Bytes()[12])
	})
}

func TestByteBuffer_Grow(t *testing.T) {
	t.Run("No-op with enough room", func(t *testing.T) {
		bb := NewByteBuffer(32)
		bb.Grow(32)
		require.Equal(t, 32, bb.Cap())
	})

	t.Run("Small buffers grow by the default size", func(t *testing.T) {
		bb := NewByteBuffer(8)
		bb.Grow(9)
		require.Equal(t, RecordBufferDefaultSize, bb.Cap())
	})

	t.Run("Large request wins", func(t *testing.T) {
		bb := NewByteBuffer(8)
		bb.Grow(RecordBufferDefaultSize * 3)
		require.Equal(t, RecordBufferDefaultSize*3, bb.Cap())
	})

	t.Run("Large buffers grow by a quarter", func(t *testing.T) {
		bb := NewByteBuffer(RecordBufferDefaultSize * 8)
		bb.B = bb.B[:bb.Cap()]
		bb.Grow(1)
		require.Equal(t, RecordBufferDefaultSize*10, bb.Cap())
	})
}

func TestByteBuffer_WriteTo(t *testing.T) {
	bb := NewByteBuffer(8)
	_, _ = bb.Write([]byte("record"))

	var out bytes.Buffer
	n, err := bb.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, int64(6), n)
	require.Equal(t, "record", out.String())
}

func TestByteBufferPool(t *testing.T) {
	t.Run("Returned buffers are reset", func(t *testing.T) {
		p := NewByteBufferPool(16, 64)
		bb := p.Get()
		_, _ = bb.Write([]byte("abc"))
		p.Put(bb)

		again := p.Get()
		require.Equal(t, 0, again.Len())
	})

	t.Run("Oversized buffers are dropped", func(t *testing.T) {
		p := NewByteBufferPool(16, 64)
		bb := NewByteBuffer(128)
		p.Put(bb)
		require.NotSame(t, bb, p.Get())
	})

	t.Run("Nil put", func(t *testing.T) {
		p := NewByteBufferPool(16, 64)
		require.NotPanics(t, func() { p.Put(nil) })
	})

	t.Run("Default pools", func(t *testing.T) {
		rb := GetRecordBuffer()
		require.GreaterOrEqual(t, rb.Cap(), 0)
		PutRecordBuffer(rb)

		ab := GetArchiveBuffer()
		require.GreaterOrEqual(t, ab.Cap(), 0)
		PutArchiveBuffer(ab)
	})

	t.Run("Concurrent use", func(t *testing.T) {
		p := NewByteBufferPool(16, 1024)
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					bb := p.Get()
					_, _ = bb.Write([]byte("x"))
					p.Put(bb)
				}
			}()
		}
		wg.Wait()
	})
}
