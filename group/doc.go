// Package group assembles compiled measurement templates into transmittable records
// and decodes them on the receiving side.
//
// A record is the fixed 8-byte header, the common region of the first template and
// the measurement regions of every template, in order. All templates of a record must
// share the same header layout.
//
// # Continuation States
//
//	NORMAL             full, self-contained record
//	OPTIMIZED_FIRST    full record opening an optimized sequence
//	OPTIMIZED_FOLLOWS  header plus, per template, a change bitmap and the changed fields
//	RECORD_DONE        header only, closes the sequence
//
// The Assembler drives the state machine; Assemble builds a single record in a given
// state.
//
// # Basic Usage
//
//	asm, _ := group.NewAssembler(group.WithOptimized())
//	record, err := asm.Next(bp, pulse) // OPTIMIZED_FIRST
//	record, err = asm.Next(bp, pulse)  // OPTIMIZED_FOLLOWS with changed values only
//	record, err = asm.Done()           // RECORD_DONE
package group
