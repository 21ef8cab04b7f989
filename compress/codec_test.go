package compress

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/phdpack/format"
)

var allTypes = []format.CompressionType{
	format.CompressionNone,
	format.CompressionZstd,
	format.CompressionS2,
	format.CompressionLZ4,
}

// recordLikePayload repeats a 30-byte record with a moving timestamp and value, the
// way an archive of one shape looks.
func recordLikePayload(records int) []byte {
	var buf bytes.Buffer
	rec := []byte{
		0x01, 0x00, 0x1E, 0x00, 0x34, 0x12, 0x01, 0x00, // header
		0, 0, 0, 0, 0, 0, 0, 0, // timestamp
		0xB8, 0x4B, 0x00, 0x00, 0x20, 0xA0, 0x02, 0x10, 0x00, // measurement
		0, 0, // value
		0, 0, 0,
	}
	for i := 0; i < records; i++ {
		binary.LittleEndian.PutUint64(rec[8:], uint64(1_700_000_000_000+i*1000)) //nolint: gosec
		binary.LittleEndian.PutUint16(rec[25:], uint16(0xF000|i%360))            //nolint: gosec
		buf.Write(rec)
	}

	return buf.Bytes()
}

func TestCreateCodec(t *testing.T) {
	for _, ct := range allTypes {
		codec, err := CreateCodec(ct, "archive")
		require.NoError(t, err)
		require.NotNil(t, codec)
	}

	_, err := CreateCodec(format.CompressionType(0x7F), "archive")
	require.ErrorContains(t, err, "invalid archive compression")
}

func TestGetCodec(t *testing.T) {
	for _, ct := range allTypes {
		codec, err := GetCodec(ct)
		require.NoError(t, err)
		require.NotNil(t, codec)
	}

	_, err := GetCodec(0)
	require.Error(t, err)
}

func TestAllCodecs_EmptyData(t *testing.T) {
	for _, ct := range allTypes {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			compressed, err := codec.Compress(nil)
			require.NoError(t, err)
			require.Empty(t, compressed)

			out, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Empty(t, out)
		})
	}
}

func TestAllCodecs_RoundTrip(t *testing.T) {
	for _, ct := range allTypes {
		for _, records := range []int{1, 10, 1000} {
			t.Run(fmt.Sprintf("%s/%d records", ct, records), func(t *testing.T) {
				codec, err := GetCodec(ct)
				require.NoError(t, err)

				payload := recordLikePayload(records)
				compressed, err := codec.Compress(payload)
				require.NoError(t, err)

				if records == 1000 && ct != format.CompressionNone {
					require.Less(t, len(compressed), len(payload)/2, "repeated records compress well")
				}

				out, err := codec.Decompress(compressed)
				require.NoError(t, err)
				require.Equal(t, payload, out)
			})
		}
	}
}

func TestAllCodecs_InvalidData(t *testing.T) {
	garbage := []byte{0xFF, 0xFE, 0xFD, 0xFC, 0x00, 0x01, 0x02}
	for _, ct := range []format.CompressionType{format.CompressionZstd, format.CompressionS2, format.CompressionLZ4} {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			_, err = codec.Decompress(garbage)
			require.Error(t, err)
		})
	}
}

func TestAllCodecs_ConcurrentUsage(t *testing.T) {
	payload := recordLikePayload(200)

	for _, ct := range allTypes {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			var wg sync.WaitGroup
			errCh := make(chan error, 16)
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					compressed, err := codec.Compress(payload)
					if err != nil {
						errCh <- err
						return
					}
					out, err := codec.Decompress(compressed)
					if err != nil {
						errCh <- err
						return
					}
					if !bytes.Equal(payload, out) {
						errCh <- fmt.Errorf("round trip mismatch")
					}
				}()
			}
			wg.Wait()
			close(errCh)

			for err := range errCh {
				require.NoError(t, err)
			}
		})
	}
}

func TestCompressionStats(t *testing.T) {
	s := CompressionStats{Algorithm: format.CompressionZstd, OriginalSize: 1000, CompressedSize: 250}
	require.InDelta(t, 0.25, s.CompressionRatio(), 1e-9)
	require.InDelta(t, 75.0, s.SpaceSavings(), 1e-9)

	require.Zero(t, CompressionStats{}.CompressionRatio())
}

func BenchmarkAllCodecs_Compress(b *testing.B) {
	payload := recordLikePayload(2000)
	for _, ct := range allTypes {
		codec, err := GetCodec(ct)
		require.NoError(b, err)

		b.Run(ct.String(), func(b *testing.B) {
			b.SetBytes(int64(len(payload)))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = codec.Compress(payload)
			}
		})
	}
}

func BenchmarkAllCodecs_Decompress(b *testing.B) {
	payload := recordLikePayload(2000)
	for _, ct := range allTypes {
		codec, err := GetCodec(ct)
		require.NoError(b, err)
		compressed, err := codec.Compress(payload)
		require.NoError(b, err)

		b.Run(ct.String(), func(b *testing.B) {
			b.SetBytes(int64(len(payload)))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = codec.Decompress(compressed)
			}
		})
	}
}
