// pkg/logdecode/result.go
package logdecode

import (
	"fmt"
	"strings"
)

// Entry is one decoded unit of output: a whole file, or one archive member
type Entry struct {
	// Name labels this entry (filename or archive member path)
	Name string `json:"name"`

	// FileType names the decoder that produced this entry
	FileType string `json:"fileType"`

	// OriginalSize is the byte count before any transform
	OriginalSize int64 `json:"originalSize"`

	// ProcessedSize is the byte count after decryption/decompression
	ProcessedSize int64 `json:"processedSize"`

	// LogSize is the byte count of the final decoded text
	LogSize int64 `json:"logSize"`

	// DidDecompress reports whether a decompression step actually ran
	DidDecompress bool `json:"didDecompress"`

	// Checksum is the BLAKE3 hex digest of the decoded text bytes
	Checksum string `json:"checksum"`

	// LogText is the decoded text content
	LogText string `json:"logText"`
}

// Result aggregates one or more decoded entries
type Result struct {
	// LogText is the merged text of all entries. Single-entry results hold
	// the bare entry text; multi-entry results prefix each entry with a
	// "----- name -----" header line, blank-line separated.
	LogText string `json:"logText"`

	// EncryptedSize is the sum of entry OriginalSize values
	EncryptedSize int64 `json:"encryptedSize"`

	// DecryptedSize is the sum of entry ProcessedSize values
	DecryptedSize int64 `json:"decryptedSize"`

	// LogSize is the sum of entry LogSize values
	LogSize int64 `json:"logSize"`

	// DidDecompress is true if any entry decompressed
	DidDecompress bool `json:"didDecompress"`

	// Entries in processing order
	Entries []Entry `json:"entries"`
}

// EntryDelimiter formats the header line placed before an entry's text
// in merged output
func EntryDelimiter(name string) string {
	return fmt.Sprintf("----- %s -----", name)
}

// add appends an entry and folds its sizes into the totals.
// It does not touch LogText; callers decide the join policy.
func (r *Result) add(e Entry) {
	r.Entries = append(r.Entries, e)
	r.EncryptedSize += e.OriginalSize
	r.DecryptedSize += e.ProcessedSize
	r.LogSize += e.LogSize
	if e.DidDecompress {
		r.DidDecompress = true
	}
}

// joinEntries rebuilds LogText from the entries, each prefixed with its
// delimiter header, blank-line separated, in entry order
func (r *Result) joinEntries() {
	blocks := make([]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		blocks = append(blocks, EntryDelimiter(e.Name)+"\n"+e.LogText)
	}
	r.LogText = strings.Join(blocks, "\n\n")
}

// Merge folds another result's entries into this one, re-joining LogText
// with per-entry delimiter headers. Entry order is preserved: existing
// entries first, then the other result's entries in their own order.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	for _, e := range other.Entries {
		r.add(e)
	}
	r.joinEntries()
}

// FormatSummary renders a human-readable summary of a decode result
func FormatSummary(r *Result) string {
	var sb strings.Builder

	sb.WriteString("Summary:\n")
	fmt.Fprintf(&sb, "  Entries decoded: %d\n", len(r.Entries))
	fmt.Fprintf(&sb, "  Input size:      %s\n", FormatSize(uint64(r.EncryptedSize)))
	fmt.Fprintf(&sb, "  Processed size:  %s\n", FormatSize(uint64(r.DecryptedSize)))
	fmt.Fprintf(&sb, "  Log text size:   %s\n", FormatSize(uint64(r.LogSize)))
	fmt.Fprintf(&sb, "  Decompressed:    %v\n", r.DidDecompress)

	return sb.String()
}

// FormatSize formats bytes into human-readable string
func FormatSize(bytes uint64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
		TB = 1024 * GB
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.2f TB", float64(bytes)/float64(TB))
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
