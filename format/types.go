package format

type (
	// FloatWidth selects the Mder float wire width.
	FloatWidth uint8
	// Special tags the reserved Mder values.
	Special uint8
	// MeasurementKind is the value shape of a measurement, stored in bits 5-7 of
	// the measurement flags byte.
	MeasurementKind uint8
	// FieldKind identifies a mutable region of a compiled template.
	FieldKind uint8
	// ContinuationState is the record continuation state, stored in bits 8-9 of
	// the header flags.
	ContinuationState uint8
	// CompressionType selects the archive payload codec.
	CompressionType uint8
)

const (
	SFloat16 FloatWidth = 0x1 // SFloat16 is the 16-bit SFLOAT (4-bit exponent, 12-bit mantissa).
	Float32  FloatWidth = 0x2 // Float32 is the 32-bit FLOAT (8-bit exponent, 24-bit mantissa).
)

const (
	Number   Special = iota // Number is a finite value, mantissa × 10^exponent.
	NaN                     // NaN is not a number.
	PosInf                  // PosInf is positive infinity.
	NegInf                  // NegInf is negative infinity.
	NRes                    // NRes is "not at this resolution".
	Reserved                // Reserved is the reserved-for-future-use pattern.
)

const (
	KindNumeric         MeasurementKind = 0x1
	KindCompound        MeasurementKind = 0x2
	KindComplexCompound MeasurementKind = 0x3
	KindCodedEnum       MeasurementKind = 0x4
	KindBitEnum         MeasurementKind = 0x5
	KindStringEnum      MeasurementKind = 0x6
	KindRTSA            MeasurementKind = 0x7
)

const (
	FieldInvalid FieldKind = iota
	FieldMeasurementID
	FieldNumeric
	FieldCompound
	FieldComplexCompound
	FieldCodedEnum
	FieldBitEnum
	FieldStringEnum
	FieldRTSA
	FieldSupplementalTypes
	FieldReferences
	FieldDuration
	FieldAVAs
	FieldTimestamp
	FieldPersonID
)

const (
	StateNormal           ContinuationState = 0x0 // StateNormal is a self-contained record.
	StateOptimizedFirst   ContinuationState = 0x1 // StateOptimizedFirst opens an optimized sequence with a full record.
	StateOptimizedFollows ContinuationState = 0x2 // StateOptimizedFollows carries only changed values.
	StateRecordDone       ContinuationState = 0x3 // StateRecordDone closes an optimized sequence.
)

const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

// Size returns the wire size in bytes, or 0 for an unknown width.
func (w FloatWidth) Size() int {
	switch w {
	case SFloat16:
		return 2
	case Float32:
		return 4
	default:
		return 0
	}
}

// IsValid reports whether w is a supported width.
func (w FloatWidth) IsValid() bool {
	return w == SFloat16 || w == Float32
}

func (w FloatWidth) String() string {
	switch w {
	case SFloat16:
		return "SFLOAT16"
	case Float32:
		return "FLOAT32"
	default:
		return "Unknown"
	}
}

func (s Special) String() string {
	switch s {
	case Number:
		return "Number"
	case NaN:
		return "NaN"
	case PosInf:
		return "+Inf"
	case NegInf:
		return "-Inf"
	case NRes:
		return "NRes"
	case Reserved:
		return "Reserved"
	default:
		return "Unknown"
	}
}

// IsValid reports whether k is one of the defined measurement kinds.
func (k MeasurementKind) IsValid() bool {
	return k >= KindNumeric && k <= KindRTSA
}

func (k MeasurementKind) String() string {
	switch k {
	case KindNumeric:
		return "Numeric"
	case KindCompound:
		return "Compound"
	case KindComplexCompound:
		return "ComplexCompound"
	case KindCodedEnum:
		return "CodedEnum"
	case KindBitEnum:
		return "BitEnum"
	case KindStringEnum:
		return "StringEnum"
	case KindRTSA:
		return "RTSA"
	default:
		return "Unknown"
	}
}

func (k FieldKind) String() string {
	switch k {
	case FieldMeasurementID:
		return "MeasurementID"
	case FieldNumeric:
		return "Numeric"
	case FieldCompound:
		return "Compound"
	case FieldComplexCompound:
		return "ComplexCompound"
	case FieldCodedEnum:
		return "CodedEnum"
	case FieldBitEnum:
		return "BitEnum"
	case FieldStringEnum:
		return "StringEnum"
	case FieldRTSA:
		return "RTSA"
	case FieldSupplementalTypes:
		return "SupplementalTypes"
	case FieldReferences:
		return "References"
	case FieldDuration:
		return "Duration"
	case FieldAVAs:
		return "AVAs"
	case FieldTimestamp:
		return "Timestamp"
	case FieldPersonID:
		return "PersonID"
	default:
		return "Invalid"
	}
}

func (s ContinuationState) String() string {
	switch s {
	case StateNormal:
		return "Normal"
	case StateOptimizedFirst:
		return "OptimizedFirst"
	case StateOptimizedFollows:
		return "OptimizedFollows"
	case StateRecordDone:
		return "RecordDone"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
