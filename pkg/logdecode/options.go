// pkg/logdecode/options.go
package logdecode

import (
	"github.com/yasupon0729/log-analysis-sub002/internal/format"
)

// Request describes one decode call: a raw buffer plus format and options.
// The buffer is owned by the caller for the duration of the call and is
// never mutated.
type Request struct {
	// Buffer is the raw input bytes (uploaded file or fetched object)
	Buffer []byte

	// FileType is the declared or detected container format
	FileType format.FileType

	// Encoding is the text encoding used to materialize decoded bytes
	// into a string. Empty means UTF-8.
	Encoding string

	// Key is an optional decryption key override. When nil the key is
	// resolved from configuration by the caller before Decode.
	Key *Key

	// Decompress controls whether envelope plaintext is additionally
	// decompressed after decryption. Only meaningful for encrypted input.
	// Default: true.
	Decompress bool

	// Filename labels entries in aggregated output (optional)
	Filename string
}

// NewRequest returns a Request with defaults applied
func NewRequest(buffer []byte, fileType format.FileType) *Request {
	return &Request{
		Buffer:     buffer,
		FileType:   fileType,
		Encoding:   "utf-8",
		Decompress: true,
	}
}

// Validate checks if the request is decodable as declared
func (r *Request) Validate() error {
	if len(r.Buffer) == 0 {
		return ErrEmptyBuffer
	}
	switch r.FileType {
	case format.TypeEncrypted, format.TypeGzip, format.TypeZip, format.TypeXz, format.TypePlain:
	default:
		return ErrUnsupportedFileType
	}
	if r.FileType == format.TypeEncrypted && r.Key == nil {
		return ErrNoKey
	}
	if _, err := lookupEncoding(r.Encoding); err != nil {
		return err
	}
	return nil
}

// label returns the name used for this request's entries
func (r *Request) label() string {
	if r.Filename != "" {
		return r.Filename
	}
	return r.FileType.String()
}
