package config

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/arloliu/phdpack/errs"
	"github.com/arloliu/phdpack/format"
	"github.com/arloliu/phdpack/mder"
	"github.com/arloliu/phdpack/measure"
)

// Measurement kinds as written in shape files.
const (
	KindNumeric         = "numeric"
	KindCompound        = "compound"
	KindComplexCompound = "complex_compound"
	KindCodedEnum       = "coded_enum"
	KindBitEnum         = "bit_enum"
	KindStringEnum      = "string_enum"
	KindRTSA            = "rtsa"
)

// Validate reports every problem of the shape at once. Each problem wraps
// errs.ErrInvalidDescriptor.
func (s *Shape) Validate() error {
	var err error
	if len(s.Measurements) == 0 {
		err = multierr.Append(err, fmt.Errorf("%w: shape has no measurements", errs.ErrInvalidDescriptor))
	}

	seen := make(map[string]int, len(s.Measurements))
	for i := range s.Measurements {
		m := &s.Measurements[i]
		if m.Name != "" {
			if prev, ok := seen[m.Name]; ok {
				err = multierr.Append(err, fmt.Errorf("%w: measurement %d: name %q already used by measurement %d", errs.ErrInvalidDescriptor, i, m.Name, prev))
			}
			seen[m.Name] = i
		}

		if _, derr := m.Descriptor(); derr != nil {
			for _, e := range multierr.Errors(derr) {
				err = multierr.Append(err, fmt.Errorf("measurement %d (%s): %w", i, m.label(), e))
			}
		}
	}

	if _, oerr := s.Options(); oerr != nil {
		err = multierr.Append(err, oerr)
	}

	return err
}

// Descriptors converts the measurements of the shape.
func (s *Shape) Descriptors() ([]measure.Descriptor, error) {
	descs := make([]measure.Descriptor, 0, len(s.Measurements))
	for i := range s.Measurements {
		d, err := s.Measurements[i].Descriptor()
		if err != nil {
			return nil, fmt.Errorf("measurement %d (%s): %w", i, s.Measurements[i].label(), err)
		}
		descs = append(descs, d)
	}

	return descs, nil
}

// Options converts the header of the shape into compile options.
func (s *Shape) Options() ([]measure.Option, error) {
	h := &s.Header

	var err error
	for _, c := range []struct {
		name string
		n    int
	}{
		{"supplemental_types", h.SupplementalTypes},
		{"references", h.References},
		{"avas.max", h.AVAs.Max},
		{"avas.value_cap", h.AVAs.ValueCap},
	} {
		if c.n < 0 || c.n > 255 {
			err = multierr.Append(err, fmt.Errorf("%w: header %s %d outside 0..255", errs.ErrInvalidDescriptor, c.name, c.n))
		}
	}
	if err != nil {
		return nil, err
	}

	var opts []measure.Option
	if h.Timestamp {
		opts = append(opts, measure.WithTimestamp())
	}
	if h.PersonID != nil {
		opts = append(opts, measure.WithPersonID(*h.PersonID))
	}
	if h.Duration {
		opts = append(opts, measure.WithCommonDuration())
	}
	if h.SupplementalTypes > 0 {
		opts = append(opts, measure.WithCommonSupplementalTypes(h.SupplementalTypes))
	}
	if h.References > 0 {
		opts = append(opts, measure.WithCommonReferences(h.References))
	}
	if h.AVAs.Max > 0 {
		opts = append(opts, measure.WithCommonAVAs(h.AVAs.Max, h.AVAs.ValueCap))
	}
	if h.BigEndian {
		opts = append(opts, measure.WithBigEndian())
	}
	if h.GroupID != 0 {
		opts = append(opts, measure.WithGroupID(h.GroupID))
	}

	return opts, nil
}

// Compile compiles the shape into a template.
func (s *Shape) Compile(ctx *measure.Context) (*measure.Template, error) {
	descs, err := s.Descriptors()
	if err != nil {
		return nil, err
	}
	opts, err := s.Options()
	if err != nil {
		return nil, err
	}

	return measure.Compile(ctx, descs, opts...)
}

func (m *Measurement) label() string {
	if m.Name != "" {
		return m.Name
	}

	return m.Kind
}

// Descriptor converts one measurement. Structural limits beyond the shape file syntax
// are checked when the descriptor is compiled.
func (m *Measurement) Descriptor() (measure.Descriptor, error) {
	width, err := parseWidth(m.Width)
	if err != nil {
		return nil, err
	}

	common := measure.Common{
		Type: m.Type,
		Unit: m.Unit,
		Extras: measure.Extras{
			MaxSupplementalTypes: m.Extras.SupplementalTypes,
			MaxReferences:        m.Extras.References,
			Duration:             m.Extras.Duration,
			MaxAVAs:              m.Extras.AVAs.Max,
			AVAValueCap:          m.Extras.AVAs.ValueCap,
		},
	}

	switch strings.ToLower(m.Kind) {
	case KindNumeric:
		return measure.Numeric{Common: common, Width: width}, nil
	case KindCompound:
		if len(m.SubTypes) == 0 {
			return nil, fmt.Errorf("%w: compound without sub_types", errs.ErrInvalidDescriptor)
		}
		return measure.Compound{Common: common, Width: width, SubTypes: m.SubTypes}, nil
	case KindComplexCompound:
		if len(m.Elements) == 0 {
			return nil, fmt.Errorf("%w: complex compound without elements", errs.ErrInvalidDescriptor)
		}
		elems := make([]measure.SubValue, len(m.Elements))
		for i, e := range m.Elements {
			elems[i] = measure.SubValue{Type: e.Type, Unit: e.Unit}
		}
		return measure.ComplexCompound{Common: common, Width: width, Elements: elems}, nil
	case KindCodedEnum:
		return measure.CodedEnum{Common: common}, nil
	case KindBitEnum:
		if m.ByteCount < 1 || m.ByteCount > 4 {
			return nil, fmt.Errorf("%w: byte_count %d outside 1..4", errs.ErrInvalidDescriptor, m.ByteCount)
		}
		return measure.BitEnum{Common: common, ByteCount: m.ByteCount, Supported: m.Supported}, nil
	case KindStringEnum:
		if m.MaxLength < 1 {
			return nil, fmt.Errorf("%w: string without max_length", errs.ErrInvalidDescriptor)
		}
		return measure.StringEnum{Common: common, MaxLength: m.MaxLength}, nil
	case KindRTSA:
		return m.rtsa(common, width)
	case "":
		return nil, fmt.Errorf("%w: missing kind", errs.ErrInvalidDescriptor)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", errs.ErrInvalidDescriptor, m.Kind)
	}
}

func (m *Measurement) rtsa(common measure.Common, width format.FloatWidth) (measure.Descriptor, error) {
	if m.SampleBits < 1 || m.SampleBits > 32 || m.MaxSamples < 1 {
		return nil, fmt.Errorf("%w: rtsa needs sample_bits 1..32 and max_samples", errs.ErrInvalidDescriptor)
	}

	wordWidth := width
	if wordWidth == 0 {
		wordWidth = format.SFloat16
	}

	d := measure.RTSA{Common: common, Width: width, SampleBits: m.SampleBits, MaxSamples: m.MaxSamples}

	var err error
	for _, attr := range []struct {
		name string
		text string
		dst  *mder.Value
	}{
		{"scale", m.Scale, &d.Scale},
		{"offset", m.Offset, &d.Offset},
		{"period", m.Period, &d.Period},
	} {
		if attr.text == "" {
			continue
		}
		v, perr := mder.Parse(attr.text, wordWidth)
		if perr != nil {
			err = multierr.Append(err, fmt.Errorf("%w: rtsa %s %q: %w", errs.ErrInvalidDescriptor, attr.name, attr.text, perr))
			continue
		}
		*attr.dst = v
	}
	if err != nil {
		return nil, err
	}

	return d, nil
}

func parseWidth(s string) (format.FloatWidth, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case "sfloat16", "sfloat":
		return format.SFloat16, nil
	case "float32", "float":
		return format.Float32, nil
	default:
		return 0, fmt.Errorf("%w: unknown width %q", errs.ErrInvalidDescriptor, s)
	}
}
