package archive

import (
	"github.com/arloliu/phdpack/endian"
)

const (
	// Magic identifies a record archive.
	Magic uint16 = 0x4850
	// Version is the archive layout version written by Writer.
	Version uint8 = 1
	// HeaderSize is the size of the fixed archive header.
	HeaderSize = 20

	recordPrefixSize = 2
	checksumOffset   = 12
)

var engine = endian.GetLittleEndianEngine()
