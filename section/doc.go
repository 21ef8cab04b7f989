// Package section defines the low-level binary structures and constants of a
// personal health device record.
//
// # Record Structure
//
//	┌─────────────────────────────────────────────────────────┐
//	│ Record Header (8 bytes, fixed)                          │
//	│  - Flags (2 bytes, little-endian): common fields,       │
//	│    continuation state, byte order                       │
//	│  - Length (2 bytes): whole record, header included      │
//	│  - GroupID (2 bytes)                                    │
//	│  - Count (1 byte) + reserved (1 byte)                   │
//	├─────────────────────────────────────────────────────────┤
//	│ Common Region (variable, each field only when flagged)  │
//	│  - Timestamp (8), PersonID (2), Duration (4)            │
//	│  - Supplemental types, references, AVAs (reserved)      │
//	├─────────────────────────────────────────────────────────┤
//	│ Measurement × Count                                     │
//	│  - Type (4), Flags (1), Unit (2), ID (2)                │
//	│  - Value region (depends on the kind in Flags)          │
//	│  - Optional regions: supplemental types, references,    │
//	│    duration, AVAs                                       │
//	└─────────────────────────────────────────────────────────┘
//
// # Header Flags
//
//	Bit 0:     Timestamp present
//	Bit 1:     Person id present
//	Bit 2:     Common duration present
//	Bit 3:     Common supplemental types present
//	Bit 4:     Common references present
//	Bit 5:     Common AVAs present
//	Bits 8-9:  Continuation (0=Normal, 1=OptimizedFirst, 2=OptimizedFollows, 3=RecordDone)
//	Bit 15:    Byte order (0=little-endian, 1=big-endian)
//
// All other bits are reserved and must be zero.
//
// # Measurement Flags
//
//	Bit 0:     Supplemental types region present
//	Bit 1:     References region present
//	Bit 2:     Duration present
//	Bit 3:     AVA region present
//	Bit 4:     Value width (0=SFLOAT16, 1=FLOAT32)
//	Bits 5-7:  Kind (1=Numeric, 2=Compound, 3=ComplexCompound, 4=CodedEnum,
//	           5=BitEnum, 6=StringEnum, 7=RTSA)
//
// # Reserved Capacity Regions
//
// Lists are laid out at their maximum capacity so a record never changes length
// after it has been compiled. The count says how many slots are populated:
//
//	Supplemental types: max u8, count u8, max × u32
//	References:         max u8, count u8, max × u16
//	AVAs:               max u8, valueCap u8, count u8, max × (id u16, len u8, valueCap bytes)
//
// # Thread Safety
//
// All types in this package are value types and are safe for concurrent use.
package section
