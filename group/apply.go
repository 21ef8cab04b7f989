package group

import (
	"fmt"

	"github.com/arloliu/phdpack/errs"
	"github.com/arloliu/phdpack/format"
	"github.com/arloliu/phdpack/measure"
	"github.com/arloliu/phdpack/section"
)

// Apply brings receiver-side templates up to date with a record assembled from
// templates of the same shapes, in the same order.
//
// NORMAL and OPTIMIZED_FIRST records overwrite every template's regions; the common
// region of the record is loaded into each template. OPTIMIZED_FOLLOWS records apply
// each template's change set. RECORD_DONE records change nothing.
//
// Templates are updated one after another; when a later template fails, earlier ones
// keep the applied values.
//
// Returns:
//   - error: errs.ErrHeaderMismatch if the record does not match the templates,
//     errs.ErrInvalidLength, errs.ErrInvalidChangeSet or header parse errors
func Apply(record []byte, templates ...*measure.Template) error {
	if len(templates) == 0 || templates[0] == nil {
		return errs.ErrNoTemplates
	}

	hdr, err := section.ParseRecordHeader(record)
	if err != nil {
		return err
	}
	if int(hdr.Length) != len(record) {
		return fmt.Errorf("%w: header says %d, record has %d bytes", errs.ErrInvalidLength, hdr.Length, len(record))
	}

	state := hdr.Flag.Continuation()
	if state == format.StateRecordDone {
		return nil
	}

	first := templates[0]
	count := 0
	for i, t := range templates {
		if t == nil || !first.SameHeaderLayout(t) {
			return fmt.Errorf("%w: template %d", errs.ErrHeaderMismatch, i)
		}
		count += t.MeasurementCount()
	}

	if hdr.Flag.Layout() != first.Flag().Layout() || int(hdr.Count) != count {
		return fmt.Errorf("%w: record layout 0x%04X with %d measurements", errs.ErrHeaderMismatch, uint16(hdr.Flag.Layout()), hdr.Count)
	}

	body := record[section.RecordHeaderSize:]
	if state == format.StateOptimizedFollows {
		for i, t := range templates {
			n, err := t.ApplyChanges(body, i == 0)
			if err != nil {
				return fmt.Errorf("template %d: %w", i, err)
			}
			body = body[n:]
		}
		if len(body) != 0 {
			return fmt.Errorf("%w: %d trailing bytes", errs.ErrInvalidChangeSet, len(body))
		}

		return nil
	}

	commonSize := first.CommonSize()
	need := commonSize
	for _, t := range templates {
		need += t.MeasurementsSize()
	}
	if len(body) != need {
		return fmt.Errorf("%w: body of %d bytes, templates need %d", errs.ErrInvalidLength, len(body), need)
	}

	common, body := body[:commonSize], body[commonSize:]
	for i, t := range templates {
		size := t.MeasurementsSize()
		if err := t.Load(common, body[:size]); err != nil {
			return fmt.Errorf("template %d: %w", i, err)
		}
		body = body[size:]
	}

	return nil
}
