// pkg/logdecode/envelope.go
//
// Envelope layout (format version 1, shared with the log-shipping side):
//
//	[magic "ELG1":4][version:1][flags:1][nonce:24][secretbox(payload)]
//
// secretbox output is ciphertext plus a 16-byte Poly1305 tag, so the
// minimum well-formed envelope is 46 bytes. The flags byte records the
// compression the producer applied to the payload before encryption:
//
//	0x00 = no compression
//	0x01 = gzip (shipping convention)
//	0x02 = zstd
package logdecode

import (
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/yasupon0729/log-analysis-sub002/internal/format"
)

const (
	envelopeVersion byte = 0x01

	// FlagNone marks an uncompressed payload
	FlagNone byte = 0x00
	// FlagGzip marks a gzip-compressed payload
	FlagGzip byte = 0x01
	// FlagZstd marks a zstd-compressed payload
	FlagZstd byte = 0x02

	nonceSize          = 24
	envelopeHeaderSize = 4 + 1 + 1 + nonceSize

	// MinEnvelopeSize is the smallest well-formed envelope (empty payload)
	MinEnvelopeSize = envelopeHeaderSize + secretbox.Overhead

	// maxDecompressedSize caps payload expansion (256 MiB) so a small
	// corrupted or hostile envelope cannot exhaust memory
	maxDecompressedSize = 256 * 1024 * 1024
)

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdOnce    sync.Once
	zstdErr     error
)

// initZstd initializes the shared zstd encoder and decoder once.
// Both are thread-safe and reusable.
func initZstd() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil)
		if zstdErr != nil {
			zstdEncoder.Close()
			zstdEncoder = nil
		}
	})
	return zstdEncoder, zstdDecoder, zstdErr
}

// Seal builds an envelope around plaintext: compress per flag, encrypt
// with a random nonce, frame with the version-1 header. This is the
// producer side of the contract; the repository uses it for fixtures,
// round-trip tests and the seal command.
func Seal(plaintext []byte, key *Key, flag byte) ([]byte, error) {
	if key == nil {
		return nil, ErrNoKey
	}

	payload := plaintext
	switch flag {
	case FlagNone:
	case FlagGzip:
		compressed, err := gzipCompress(plaintext)
		if err != nil {
			return nil, fmt.Errorf("compress payload: %w", err)
		}
		payload = compressed
	case FlagZstd:
		encoder, _, err := initZstd()
		if err != nil {
			return nil, fmt.Errorf("compress payload: %w", err)
		}
		payload = encoder.EncodeAll(plaintext, nil)
	default:
		return nil, fmt.Errorf("unknown compression flag 0x%02x", flag)
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, envelopeHeaderSize+len(payload)+secretbox.Overhead)
	out = append(out, format.EnvelopeMagic...)
	out = append(out, envelopeVersion, flag)
	out = append(out, nonce[:]...)
	out = secretbox.Seal(out, payload, &nonce, (*[KeySize]byte)(key))

	return out, nil
}

// parseEnvelope splits an envelope into its flags, nonce and sealed box.
// Anything that fails structurally is ErrMalformedEnvelope; decryption
// and authentication failures are reported later by openEnvelope.
func parseEnvelope(data []byte) (flag byte, nonce [nonceSize]byte, box []byte, err error) {
	if len(data) < MinEnvelopeSize {
		err = fmt.Errorf("%w: %d bytes, need at least %d", ErrMalformedEnvelope, len(data), MinEnvelopeSize)
		return
	}
	if string(data[:4]) != format.EnvelopeMagic {
		err = fmt.Errorf("%w: bad magic", ErrMalformedEnvelope)
		return
	}
	if data[4] != envelopeVersion {
		err = fmt.Errorf("%w: unsupported version %d", ErrMalformedEnvelope, data[4])
		return
	}

	flag = data[5]
	copy(nonce[:], data[6:6+nonceSize])
	box = data[envelopeHeaderSize:]
	return
}

// envelopeResult carries the intermediate buffers of one envelope decode
type envelopeResult struct {
	decrypted     []byte // payload after decryption, before decompression
	logBytes      []byte // final log bytes
	didDecompress bool
}

// openEnvelope decrypts an envelope and, when requested and flagged,
// decompresses the recovered payload
func openEnvelope(data []byte, key *Key, decompress bool) (*envelopeResult, error) {
	if key == nil {
		return nil, ErrNoKey
	}

	flag, nonce, box, err := parseEnvelope(data)
	if err != nil {
		return nil, err
	}

	payload, ok := secretbox.Open(nil, box, &nonce, (*[KeySize]byte)(key))
	if !ok {
		return nil, ErrDecryptionFailed
	}

	res := &envelopeResult{decrypted: payload, logBytes: payload}
	if !decompress || flag == FlagNone {
		return res, nil
	}

	switch flag {
	case FlagGzip:
		inflated, err := gzipDecompress(payload, maxDecompressedSize)
		if err != nil {
			return nil, fmt.Errorf("payload after decryption: %w", err)
		}
		res.logBytes = inflated
	case FlagZstd:
		_, decoder, err := initZstd()
		if err != nil {
			return nil, fmt.Errorf("payload after decryption: %w", err)
		}
		inflated, err := decoder.DecodeAll(payload, nil)
		if err != nil || len(inflated) > maxDecompressedSize {
			return nil, fmt.Errorf("payload after decryption: %w", ErrDecompressionFailed)
		}
		res.logBytes = inflated
	default:
		return nil, fmt.Errorf("%w: unknown compression flag 0x%02x", ErrMalformedEnvelope, flag)
	}

	res.didDecompress = true
	return res, nil
}
