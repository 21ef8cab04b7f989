package group

import (
	"bytes"
	"fmt"

	"go.uber.org/zap"

	"github.com/arloliu/phdpack/errs"
	"github.com/arloliu/phdpack/format"
	"github.com/arloliu/phdpack/internal/pool"
	"github.com/arloliu/phdpack/measure"
	"github.com/arloliu/phdpack/section"
)

// Header is the per-record part of the fixed header.
type Header struct {
	// State is the continuation state of the record.
	State format.ContinuationState
	// GroupID overrides the group id. Zero uses the first template's group id.
	GroupID uint16
}

var zeroHeader [section.RecordHeaderSize]byte

// Assemble builds one record from templates under hdr.
//
// OPTIMIZED_FIRST and OPTIMIZED_FOLLOWS clear the change marks of every template.
//
// Parameters:
//   - hdr: Continuation state and optional group id
//   - templates: Templates in record order, all with the same header layout
//
// Returns:
//   - []byte: The record; its length field equals its size
//   - error: errs.ErrNoTemplates, errs.ErrHeaderMismatch, errs.ErrInvalidHeaderFlags or
//     errs.ErrCapacityExceeded
func Assemble(hdr Header, templates ...*measure.Template) ([]byte, error) {
	bb := pool.GetRecordBuffer()
	defer pool.PutRecordBuffer(bb)

	b, err := AppendRecord(bb.B, hdr, templates...)
	bb.B = b
	if err != nil {
		return nil, err
	}

	return bytes.Clone(b), nil
}

// AppendRecord is like Assemble but appends the record to dst.
func AppendRecord(dst []byte, hdr Header, templates ...*measure.Template) ([]byte, error) {
	if len(templates) == 0 || templates[0] == nil {
		return dst, errs.ErrNoTemplates
	}

	first := templates[0]
	count := 0
	full := section.RecordHeaderSize + first.CommonSize()
	for i, t := range templates {
		if t == nil {
			return dst, fmt.Errorf("%w: template %d is nil", errs.ErrNoTemplates, i)
		}
		if !first.SameHeaderLayout(t) {
			return dst, fmt.Errorf("%w: template %d", errs.ErrHeaderMismatch, i)
		}
		count += t.MeasurementCount()
		full += t.MeasurementsSize()
	}

	if hdr.State > format.StateRecordDone {
		return dst, fmt.Errorf("%w: continuation state %d", errs.ErrInvalidHeaderFlags, hdr.State)
	}
	if count > section.MaxMeasurementCount {
		return dst, fmt.Errorf("%w: %d measurements in one record", errs.ErrCapacityExceeded, count)
	}
	if full > section.MaxRecordLength && hdr.State != format.StateRecordDone {
		return dst, fmt.Errorf("%w: record length %d", errs.ErrCapacityExceeded, full)
	}

	groupID := hdr.GroupID
	if groupID == 0 {
		groupID = first.GroupID()
	}

	if hdr.State == format.StateRecordDone {
		return appendDone(dst, first.Flag().IsBigEndian(), groupID), nil
	}

	flag := first.Flag()
	flag.SetContinuation(hdr.State)

	start := len(dst)
	dst = append(dst, zeroHeader[:]...)

	switch hdr.State {
	case format.StateNormal:
		dst = first.AppendCommon(dst)
		for _, t := range templates {
			dst = t.AppendMeasurements(dst)
		}
	case format.StateOptimizedFirst:
		for i, t := range templates {
			dst = t.AppendBaseline(dst, i == 0)
		}
	case format.StateOptimizedFollows:
		for i, t := range templates {
			dst = t.AppendChanges(dst, i == 0)
		}
		if len(dst)-start > section.MaxRecordLength {
			// The change marks are gone; the next record must carry everything.
			for _, t := range templates {
				t.MarkAllChanged()
			}

			return dst[:start], fmt.Errorf("%w: change set length %d", errs.ErrCapacityExceeded, len(dst)-start)
		}
	}

	rh := section.RecordHeader{
		Flag:    flag,
		Length:  uint16(len(dst) - start), //nolint: gosec
		GroupID: groupID,
		Count:   uint8(count), //nolint: gosec
	}
	rh.WriteToSlice(dst, start)

	Logger().Debug("record assembled",
		zap.Stringer("state", hdr.State),
		zap.Uint16("group_id", groupID),
		zap.Int("templates", len(templates)),
		zap.Int("length", len(dst)-start),
	)

	return dst, nil
}

// appendDone appends a RECORD_DONE record: header only, no common fields, count 0.
func appendDone(dst []byte, bigEndian bool, groupID uint16) []byte {
	var flag section.HeaderFlag
	flag.SetBigEndian(bigEndian)
	flag.SetContinuation(format.StateRecordDone)

	start := len(dst)
	dst = append(dst, zeroHeader[:]...)
	rh := section.RecordHeader{Flag: flag, Length: section.RecordHeaderSize, GroupID: groupID}
	rh.WriteToSlice(dst, start)

	return dst
}
