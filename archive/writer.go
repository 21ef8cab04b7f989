package archive

import (
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/arloliu/phdpack/compress"
	"github.com/arloliu/phdpack/errs"
	"github.com/arloliu/phdpack/format"
	"github.com/arloliu/phdpack/internal/hash"
	"github.com/arloliu/phdpack/internal/options"
	"github.com/arloliu/phdpack/internal/pool"
	"github.com/arloliu/phdpack/section"
)

// RecordCounter counts stored records. *measure.Context implements it.
type RecordCounter interface {
	RecordStored() uint64
}

// Writer collects records into one archive.
//
// A Writer is safe for concurrent use.
type Writer struct {
	mu          sync.Mutex
	compression format.CompressionType
	codec       compress.Codec
	raw         *pool.ByteBuffer
	count       uint32
	counter     RecordCounter
	stats       compress.CompressionStats
}

// Option configures a Writer.
type Option = options.Option[*Writer]

// WithCounter reports every appended record to c.
func WithCounter(c RecordCounter) Option {
	return options.NoError(func(w *Writer) {
		w.counter = c
	})
}

// NewWriter creates a Writer compressing with the given codec.
//
// Returns:
//   - *Writer: The writer
//   - error: Invalid compression type error
func NewWriter(compression format.CompressionType, opts ...Option) (*Writer, error) {
	codec, err := compress.CreateCodec(compression, "archive")
	if err != nil {
		return nil, err
	}

	w := &Writer{
		compression: compression,
		codec:       codec,
		raw:         pool.GetArchiveBuffer(),
	}
	if err := options.Apply(w, opts...); err != nil {
		return nil, err
	}

	return w, nil
}

// Append adds a copy of one assembled record.
//
// Returns:
//   - error: errs.ErrInvalidLength if the record's length field does not match its size,
//     errs.ErrCapacityExceeded if the archive is full, or header parse errors
func (w *Writer) Append(record []byte) error {
	hdr, err := section.ParseRecordHeader(record)
	if err != nil {
		return err
	}
	if int(hdr.Length) != len(record) {
		return fmt.Errorf("%w: header says %d, record has %d bytes", errs.ErrInvalidLength, hdr.Length, len(record))
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.count == math.MaxUint32 || uint64(w.raw.Len())+uint64(recordPrefixSize+len(record)) > math.MaxUint32 {
		return fmt.Errorf("%w: archive holds %d records", errs.ErrCapacityExceeded, w.count)
	}

	prefix := w.raw.ExtendOrGrow(recordPrefixSize)
	engine.PutUint16(prefix, hdr.Length)
	_, _ = w.raw.Write(record)
	w.count++

	if w.counter != nil {
		w.counter.RecordStored()
	}

	return nil
}

// Count returns the number of records appended since the last Finish.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return int(w.count)
}

// Finish returns the archive of every appended record and empties the writer.
func (w *Writer) Finish() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	raw := w.raw.Bytes()
	start := time.Now()
	payload, err := w.codec.Compress(raw)
	if err != nil {
		return nil, fmt.Errorf("compress archive: %w", err)
	}
	elapsed := time.Since(start)

	out := make([]byte, HeaderSize, HeaderSize+len(payload))
	engine.PutUint16(out[0:2], Magic)
	out[2] = Version
	out[3] = uint8(w.compression)
	engine.PutUint32(out[4:8], w.count)
	engine.PutUint32(out[8:12], uint32(len(raw))) //nolint: gosec
	engine.PutUint64(out[checksumOffset:HeaderSize], hash.Sum(out[:checksumOffset], raw))
	out = append(out, payload...)

	w.stats = compress.CompressionStats{
		Algorithm:         w.compression,
		OriginalSize:      int64(len(raw)),
		CompressedSize:    int64(len(payload)),
		CompressionTimeNs: elapsed.Nanoseconds(),
	}

	Logger().Debug("archive finished",
		zap.Stringer("compression", w.compression),
		zap.Uint32("records", w.count),
		zap.Int("raw_bytes", len(raw)),
		zap.Int("archive_bytes", len(out)),
	)

	w.raw.Reset()
	w.count = 0

	return out, nil
}

// Stats returns the compression statistics of the last Finish.
func (w *Writer) Stats() compress.CompressionStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.stats
}

// Close returns the writer's buffer to the pool. The writer must not be used after.
func (w *Writer) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.raw != nil {
		pool.PutArchiveBuffer(w.raw)
		w.raw = nil
	}
}
