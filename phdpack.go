// Package phdpack builds personal health device measurement records.
//
// A record is compiled once from a list of measurement descriptors into a template
// whose static bytes (types, units, flags, reserved capacities) never change. Later
// updates patch only the value windows in place, and the group assembler prefixes one
// or more templates with a shared header. Numeric values travel as Mder SFLOAT16 or
// FLOAT32 words.
//
// # Basic Usage
//
//	ctx, _ := phdpack.NewContext()
//	tpl, _ := phdpack.Compile(ctx, []measure.Descriptor{
//	    measure.Numeric{Common: measure.Common{Type: 0x4BB8, Unit: 0x0220}},
//	}, measure.WithTimestamp())
//
//	spo2 := tpl.Measurement(0).Value
//	_ = tpl.SetFloat(spo2, 97, 0)
//
//	record, _ := phdpack.Assemble(tpl)
//
// Decoding a record:
//
//	rec, _ := phdpack.Parse(record)
//	fmt.Println(rec.Measurements[0].Values[0]) // 97
//
// # Package Structure
//
// This package provides top-level wrappers for the common cases. The mder package
// holds the float codec, measure the compiler and patch engine, group the assembler
// and record decoder, archive the stored-record container and config the YAML shape
// files.
package phdpack

import (
	"github.com/arloliu/phdpack/config"
	"github.com/arloliu/phdpack/format"
	"github.com/arloliu/phdpack/group"
	"github.com/arloliu/phdpack/mder"
	"github.com/arloliu/phdpack/measure"
)

// NewContext creates a context for measurement ids, time and group ids.
func NewContext(opts ...measure.ContextOption) (*measure.Context, error) {
	return measure.NewContext(opts...)
}

// Compile compiles descriptors into a template. A nil ctx uses a fresh context.
func Compile(ctx *measure.Context, descs []measure.Descriptor, opts ...measure.Option) (*measure.Template, error) {
	return measure.Compile(ctx, descs, opts...)
}

// CompileShape loads a YAML shape file and compiles it.
func CompileShape(ctx *measure.Context, path string) (*measure.Template, error) {
	shape, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	return shape.Compile(ctx)
}

// Assemble builds a NORMAL record from templates sharing one header layout.
func Assemble(templates ...*measure.Template) ([]byte, error) {
	return group.Assemble(group.Header{State: format.StateNormal}, templates...)
}

// NewOptimizedAssembler creates an assembler that sends OPTIMIZED_FIRST followed by
// OPTIMIZED_FOLLOWS records until Done.
func NewOptimizedAssembler() (*group.Assembler, error) {
	return group.NewAssembler(group.WithOptimized())
}

// Parse decodes a record.
func Parse(record []byte) (*group.Record, error) {
	return group.Parse(record)
}

// FormatMder renders a raw Mder word of the given width as a decimal string.
func FormatMder(raw uint32, width format.FloatWidth) (string, error) {
	v, err := mder.Decode(raw, width)
	if err != nil {
		return "", err
	}

	return v.String(), nil
}

// ParseMder encodes a decimal string as a raw Mder word of the given width.
func ParseMder(text string, width format.FloatWidth) (uint32, error) {
	v, err := mder.Parse(text, width)
	if err != nil {
		return 0, err
	}

	return v.Encode()
}
