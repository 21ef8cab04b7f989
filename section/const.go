package section

import "math"

// Record header flag bits (HeaderFlag).
const (
	FlagTimestamp               = 0x0001 // Bit 0: timestamp in the common region
	FlagPersonID                = 0x0002 // Bit 1: person id in the common region
	FlagCommonDuration          = 0x0004 // Bit 2: duration shared by every measurement
	FlagCommonSupplementalTypes = 0x0008 // Bit 3: supplemental types shared by every measurement
	FlagCommonReferences        = 0x0010 // Bit 4: references shared by every measurement
	FlagCommonAVAs              = 0x0020 // Bit 5: AVAs shared by every measurement
	ContinuationMask            = 0x0300 // Bits 8-9: continuation state
	FlagBigEndian               = 0x8000 // Bit 15: 0=little-endian, 1=big-endian
	ReservedFlagsMask           = 0x7CC0 // Bits 6-7 and 10-14 must be zero

	// CommonFlagsMask selects the bits that decide the common region layout.
	CommonFlagsMask = FlagTimestamp | FlagPersonID | FlagCommonDuration |
		FlagCommonSupplementalTypes | FlagCommonReferences | FlagCommonAVAs | FlagBigEndian

	continuationShift = 8
)

// Measurement flag bits (MeasurementFlag).
const (
	MsmtFlagSupplementalTypes = 0x01 // Bit 0: supplemental types region present
	MsmtFlagReferences        = 0x02 // Bit 1: references region present
	MsmtFlagDuration          = 0x04 // Bit 2: duration present
	MsmtFlagAVAs              = 0x08 // Bit 3: AVA region present
	MsmtFlagFloat32           = 0x10 // Bit 4: 0=SFLOAT16 values, 1=FLOAT32 values
	MsmtKindMask              = 0xE0 // Bits 5-7: measurement kind

	msmtKindShift = 5
)

// Fixed sizes in bytes.
const (
	RecordHeaderSize     = 8  // flags, length, group id, count, reserved
	MeasurementFixedSize = 9  // type u32, flags u8, unit u16, id u16
	TimestampSize        = 8  // signed milliseconds since the Unix epoch
	PersonIDSize         = 2  // person id u16
	DurationSize         = 4  // FLOAT32 seconds
	SubTypeSize          = 4  // compound sub-type code u32
	ComplexSubHeaderSize = 6  // complex compound sub-type u32 + unit u16
	CodedEnumSize        = 4  // code u32
	RTSAFixedSize        = 5  // sample bits u8, max samples u16, count u16 (plus three mder words)
	SupplementalTypeSize = 4  // one supplemental type code u32
	ReferenceSize        = 2  // one referenced measurement id u16
	AVAEntryHeaderSize   = 3  // AVA id u16 + length u8
	ListHeaderSize       = 2  // max u8 + count u8
	AVAListHeaderSize    = 3  // max u8 + value capacity u8 + count u8
	MaxBitEnumBytes      = 4  // bit enums carry at most 32 bits
	MaxSampleBits        = 32 // RTSA samples are at most 32 bits wide
)

// Limits.
const (
	MaxRecordLength     = math.MaxUint16 // total length is a u16
	MaxMeasurementCount = math.MaxUint8  // measurement count is a u8
	MaxCapacity         = math.MaxUint8  // list capacities and string capacity are u8
	MaxRTSASamples      = math.MaxUint16 // RTSA sample capacity is a u16
)

// SupplementalTypesSize returns the size of a supplemental type list region.
func SupplementalTypesSize(capacity int) int {
	return ListHeaderSize + capacity*SupplementalTypeSize
}

// ReferencesSize returns the size of a reference list region.
func ReferencesSize(capacity int) int {
	return ListHeaderSize + capacity*ReferenceSize
}

// AVAEntrySize returns the size of one reserved AVA slot.
func AVAEntrySize(valueCap int) int {
	return AVAEntryHeaderSize + valueCap
}

// AVAsSize returns the size of an AVA list region.
func AVAsSize(capacity, valueCap int) int {
	return AVAListHeaderSize + capacity*AVAEntrySize(valueCap)
}

// RTSABlockSize returns the number of bytes holding maxSamples packed samples.
func RTSABlockSize(sampleBits, maxSamples int) int {
	return (sampleBits*maxSamples + 7) / 8
}
