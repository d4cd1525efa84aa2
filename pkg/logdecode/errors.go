// pkg/logdecode/errors.go
package logdecode

import "errors"

var (
	// ErrNoKey is returned when no decryption key is available from any source
	ErrNoKey = errors.New("no decryption key configured")

	// ErrInvalidKeySize is returned when the key does not decode to 32 bytes
	ErrInvalidKeySize = errors.New("decryption key must be 32 bytes")

	// ErrMalformedEnvelope is returned when an encrypted buffer is too short
	// or its header does not match the envelope contract
	ErrMalformedEnvelope = errors.New("invalid encrypted file")

	// ErrDecryptionFailed is returned on authentication or decryption failure.
	// The message is intentionally generic: wrong key, tampered data and a
	// bad nonce are indistinguishable to the caller.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrDecompressionFailed is returned on a corrupt compressed stream
	ErrDecompressionFailed = errors.New("decompression failed")

	// ErrEmptyArchive is returned when a zip archive has zero file members
	ErrEmptyArchive = errors.New("archive contains no files")

	// ErrUnsupportedFileType is returned when no decoder matches the request
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrNoDataFound is returned when a multi-object batch produced zero
	// successfully decoded entries
	ErrNoDataFound = errors.New("no decodable log data found")

	// ErrEmptyBuffer is returned when the input buffer has zero length
	ErrEmptyBuffer = errors.New("input buffer is empty")

	// ErrUnknownEncoding is returned when the requested text encoding name
	// is not a known charset
	ErrUnknownEncoding = errors.New("unknown text encoding")
)
