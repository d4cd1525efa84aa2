// pkg/logdecode/decode.go
package logdecode

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/yasupon0729/log-analysis-sub002/internal/format"
)

// Decode runs one buffer through the pipeline matching its declared file
// type and returns the normalized result. The call is stateless: decoding
// the same request twice yields identical results.
func Decode(ctx context.Context, req *Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch req.FileType {
	case format.TypeEncrypted:
		return decodeEncrypted(req)
	case format.TypeGzip:
		return decodeGzip(req)
	case format.TypeXz:
		return decodeXz(req)
	case format.TypeZip:
		return decodeZip(ctx, req)
	case format.TypePlain:
		return decodePlain(req)
	default:
		return nil, ErrUnsupportedFileType
	}
}

// newEntry builds one entry with its text checksum
func newEntry(name string, fileType format.FileType, originalSize int, processed []byte, logText string, didDecompress bool) Entry {
	sum := blake3.Sum256([]byte(logText))
	return Entry{
		Name:          name,
		FileType:      fileType.String(),
		OriginalSize:  int64(originalSize),
		ProcessedSize: int64(len(processed)),
		LogSize:       int64(len(logText)),
		DidDecompress: didDecompress,
		Checksum:      hex.EncodeToString(sum[:]),
		LogText:       logText,
	}
}

// singleEntryResult wraps one entry into a result with bare log text
func singleEntryResult(e Entry) *Result {
	result := &Result{}
	result.add(e)
	result.LogText = e.LogText
	return result
}

func decodeEncrypted(req *Request) (*Result, error) {
	env, err := openEnvelope(req.Buffer, req.Key, req.Decompress)
	if err != nil {
		return nil, err
	}

	logText, err := decodeText(env.logBytes, req.Encoding)
	if err != nil {
		return nil, err
	}

	entry := newEntry(req.label(), format.TypeEncrypted, len(req.Buffer), env.logBytes, logText, env.didDecompress)
	return singleEntryResult(entry), nil
}

func decodeGzip(req *Request) (*Result, error) {
	inflated, err := gzipDecompress(req.Buffer, maxDecompressedSize)
	if err != nil {
		return nil, err
	}

	logText, err := decodeText(inflated, req.Encoding)
	if err != nil {
		return nil, err
	}

	entry := newEntry(req.label(), format.TypeGzip, len(req.Buffer), inflated, logText, true)
	return singleEntryResult(entry), nil
}

func decodeXz(req *Request) (*Result, error) {
	inflated, err := xzDecompress(req.Buffer, maxDecompressedSize)
	if err != nil {
		return nil, err
	}

	logText, err := decodeText(inflated, req.Encoding)
	if err != nil {
		return nil, err
	}

	entry := newEntry(req.label(), format.TypeXz, len(req.Buffer), inflated, logText, true)
	return singleEntryResult(entry), nil
}

func decodePlain(req *Request) (*Result, error) {
	logText, err := decodeText(req.Buffer, req.Encoding)
	if err != nil {
		return nil, err
	}

	entry := newEntry(req.label(), format.TypePlain, len(req.Buffer), req.Buffer, logText, false)
	return singleEntryResult(entry), nil
}

// decodeZip extracts every non-directory archive member into its own entry
// and joins them with delimiter headers in archive iteration order
func decodeZip(ctx context.Context, req *Request) (*Result, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(req.Buffer), int64(len(req.Buffer)))
	if err != nil {
		return nil, fmt.Errorf("open zip archive: %w", ErrDecompressionFailed)
	}

	result := &Result{}
	for _, member := range zipReader.File {
		if member.FileInfo().IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rc, err := member.Open()
		if err != nil {
			return nil, fmt.Errorf("open zip member %s: %w", member.Name, err)
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read zip member %s: %w", member.Name, err)
		}

		logText, err := decodeText(raw, req.Encoding)
		if err != nil {
			return nil, err
		}

		// Archive compression is intrinsic to extraction, so members do
		// not count as decompressed.
		result.add(newEntry(member.Name, format.TypePlain, len(raw), raw, logText, false))
	}

	if len(result.Entries) == 0 {
		return nil, ErrEmptyArchive
	}

	result.joinEntries()
	return result, nil
}

// gzipCompress deflates data into a gzip stream
func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// gzipDecompress inflates a whole gzip stream. Reading one byte past the
// limit distinguishes an over-limit payload from one that is exactly at
// it; an in-limit stream is drained to EOF so the CRC trailer is checked.
func gzipDecompress(data []byte, limit int64) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip decompression failed: %w", ErrDecompressionFailed)
	}
	defer r.Close()

	inflated, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("gzip decompression failed: %w", ErrDecompressionFailed)
	}
	if int64(len(inflated)) > limit {
		return nil, fmt.Errorf("gzip payload exceeds %s: %w", FormatSize(uint64(limit)), ErrDecompressionFailed)
	}
	return inflated, nil
}

// xzDecompress inflates a whole xz stream with the same limit handling
// as gzipDecompress
func xzDecompress(data []byte, limit int64) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("xz decompression failed: %w", ErrDecompressionFailed)
	}

	inflated, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("xz decompression failed: %w", ErrDecompressionFailed)
	}
	if int64(len(inflated)) > limit {
		return nil, fmt.Errorf("xz payload exceeds %s: %w", FormatSize(uint64(limit)), ErrDecompressionFailed)
	}
	return inflated, nil
}
