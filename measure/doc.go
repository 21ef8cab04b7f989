// Package measure compiles measurement descriptors into fixed-length record
// templates and patches sensor values into them in place.
//
// Compile walks the descriptors once, writes every static byte (type codes, flags,
// units, sub-type codes, capacities, RTSA attributes) and records an IndexEntry for
// each field that changes later. After that, a patch re-encodes one value and
// overwrites only that field's window: no re-serialization, no allocation, and the
// record length never changes.
//
// # Record Layout
//
//	fixed header (8)  flags | length | group id | count | reserved
//	common region     timestamp, person id, duration, supplemental types,
//	                  references, AVAs (each only when enabled)
//	measurement × N   type u32 | flags u8 | unit u16 | id u16 | value region |
//	                  supplemental types | references | duration | AVAs
//
// # Basic Usage
//
//	ctx, _ := measure.NewContext()
//	tpl, err := measure.Compile(ctx, []measure.Descriptor{
//		measure.Numeric{Common: measure.Common{Type: 0x4BB8, Unit: 0x17A0}},
//	}, measure.WithTimestamp())
//
//	temp := tpl.Measurement(0).Value
//	err = tpl.SetFloat(temp, 36.6, 1)
//	_ = tpl.View(func(record []byte) error { return transport.Send(record) })
//
// # Thread Safety
//
// Template methods are safe for concurrent use. Patches hold the template's write
// lock; View, WriteTo and Bytes hold its read lock, so a transport never reads a
// half-written field. Context is safe for concurrent use.
package measure
