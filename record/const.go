package record

const (
	HeaderSize = 40 // HeaderSize is the fixed header size in bytes.

	MagicByte0    = 'S' // MagicByte0 is the first byte of every record.
	MagicByte1    = 'T' // MagicByte1 is the second byte of every record.
	FormatVersion = 1   // FormatVersion is the only header layout this package reads.

	FlagBigEndian = 0x01 // FlagBigEndian selects big-endian header and payload fields.
	flagKnownMask = FlagBigEndian

	MaxIdentifierLength = 255 // MaxIdentifierLength is bounded by the uint8 length field.

	MinRecordLength     = 128     // MinRecordLength is the smallest maximum record length accepted by the packer.
	MaxRecordLength     = 1 << 20 // MaxRecordLength is the largest maximum record length accepted by the packer.
	DefaultRecordLength = 1024    // DefaultRecordLength is used when no maximum record length is requested.
)
