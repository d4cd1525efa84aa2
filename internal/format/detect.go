// internal/format/detect.go
package format

import "strings"

// FileType represents the detected container format of a log buffer
type FileType int

const (
	TypeUnknown FileType = iota
	TypeEncrypted
	TypeGzip
	TypeZip
	TypeXz
	TypePlain
)

// String returns the string representation of the file type
func (t FileType) String() string {
	switch t {
	case TypeEncrypted:
		return "encrypted"
	case TypeGzip:
		return "gzip"
	case TypeZip:
		return "zip"
	case TypeXz:
		return "xz"
	case TypePlain:
		return "plain"
	default:
		return "unknown"
	}
}

// Parse maps a file-type name (as sent by clients) to a FileType
func Parse(s string) FileType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "encrypted", "enc":
		return TypeEncrypted
	case "gzip", "gz":
		return TypeGzip
	case "zip":
		return TypeZip
	case "xz":
		return TypeXz
	case "plain", "text", "log":
		return TypePlain
	default:
		return TypeUnknown
	}
}

// Detect maps a filename's suffix chain to a FileType.
// Compound suffixes are checked before single suffixes so that
// "app.log.gz.enc" resolves to encrypted, not gzip.
func Detect(filename string) FileType {
	name := strings.ToLower(filename)

	switch {
	case strings.HasSuffix(name, ".log.gz.enc"), strings.HasSuffix(name, ".gz.enc"):
		return TypeEncrypted
	case strings.HasSuffix(name, ".enc"):
		return TypeEncrypted
	case strings.HasSuffix(name, ".zip"):
		return TypeZip
	case strings.HasSuffix(name, ".gz"):
		return TypeGzip
	case strings.HasSuffix(name, ".xz"):
		return TypeXz
	case strings.HasSuffix(name, ".log"), strings.HasSuffix(name, ".json"):
		return TypePlain
	default:
		return TypeUnknown
	}
}

// EnvelopeMagic is the leading magic of the encrypted log envelope
const EnvelopeMagic = "ELG1"

// Sniff detects the file type from magic bytes.
// Requires at least 6 bytes to detect all formats.
func Sniff(magic []byte) FileType {
	if len(magic) >= 4 && string(magic[:4]) == EnvelopeMagic {
		return TypeEncrypted
	}

	// Gzip (0x1F 0x8B)
	if len(magic) >= 2 && magic[0] == 0x1F && magic[1] == 0x8B {
		return TypeGzip
	}

	// ZIP (PK signature)
	if len(magic) >= 2 && magic[0] == 'P' && magic[1] == 'K' {
		return TypeZip
	}

	// XZ (magic: 0xFD377A585A00)
	if len(magic) >= 6 &&
		magic[0] == 0xFD && magic[1] == '7' && magic[2] == 'z' &&
		magic[3] == 'X' && magic[4] == 'Z' && magic[5] == 0x00 {
		return TypeXz
	}

	return TypeUnknown
}
