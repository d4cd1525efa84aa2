// pkg/fetch/batch.go
package fetch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"
	"go.uber.org/zap"

	"github.com/yasupon0729/log-analysis-sub002/internal/format"
	"github.com/yasupon0729/log-analysis-sub002/internal/progress"
	"github.com/yasupon0729/log-analysis-sub002/pkg/logdecode"
)

// DateLayout is the date-partition layout used in object keys
const DateLayout = "2006-01-02"

// Fetcher fetches date-partitioned log objects from an ObjectStore and
// decodes them into one merged result. A single date and a date range go
// through the same path; a single date is the degenerate From == To range.
type Fetcher struct {
	Store ObjectStore

	// Key decrypts encrypted objects. Leaving it nil is a configuration
	// error as soon as an encrypted object is encountered.
	Key *logdecode.Key

	// Exclude skips object keys matching gitignore-style patterns (optional)
	Exclude *ignore.GitIgnore

	// Logger defaults to a nop logger
	Logger *zap.Logger

	// Progress receives per-object events (optional)
	Progress progress.Callback
}

// Request selects what to fetch and how to decode it
type Request struct {
	// Prefix is the key prefix above the date partitions
	Prefix string

	// From and To bound the date range, inclusive
	From, To time.Time

	// Encoding for text materialization (empty = UTF-8)
	Encoding string

	// Decompress is passed through to the envelope decoder
	Decompress bool
}

// NewRequest returns a single-date request with defaults applied
func NewRequest(prefix string, date time.Time) *Request {
	return &Request{
		Prefix:     prefix,
		From:       date,
		To:         date,
		Decompress: true,
	}
}

// SkippedObject records one object the batch left out and why
type SkippedObject struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// Result is the batch outcome: the merged decode result plus what was
// missing or skipped along the way
type Result struct {
	logdecode.Result

	// MissingDates lists range dates that had no objects at all
	MissingDates []string `json:"missingDates"`

	// Skipped lists objects left out of the merge (unsupported name,
	// excluded by pattern, fetch or decode failure)
	Skipped []SkippedObject `json:"skipped"`

	// ObjectCount is the number of objects that decoded successfully
	ObjectCount int `json:"objectCount"`
}

// Fetch lists every date partition in the range, downloads each object and
// decodes it, merging everything into one result. Per-object problems are
// skipped and recorded, never fatal; the call fails only when the whole
// batch produced zero decoded entries, or on a configuration error.
func (f *Fetcher) Fetch(ctx context.Context, req *Request) (*Result, error) {
	if f.Store == nil {
		return nil, fmt.Errorf("fetcher has no object store")
	}
	if req.From.IsZero() || req.To.IsZero() {
		return nil, fmt.Errorf("fetch range is not set")
	}
	if req.To.Before(req.From) {
		return nil, fmt.Errorf("fetch range ends before it starts")
	}

	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	result := &Result{}

	// Phase 1: list every date partition so progress knows the total.
	var objects []ObjectInfo
	for date := req.From; !date.After(req.To); date = date.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		day := date.Format(DateLayout)
		prefix := datePrefix(req.Prefix, day)

		listed, err := f.Store.List(ctx, prefix)
		if err != nil {
			return nil, err
		}
		if len(listed) == 0 {
			result.MissingDates = append(result.MissingDates, day)
			logger.Warn("no log objects for date", zap.String("date", day), zap.String("prefix", prefix))
			continue
		}

		sort.Slice(listed, func(i, j int) bool { return listed[i].Key < listed[j].Key })
		objects = append(objects, listed...)
	}

	f.emit(progress.Event{Type: progress.EventStart, Total: int64(len(objects))})

	// Phase 2: download and decode in listing order.
	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := f.decodeObject(ctx, req, obj, result, logger); err != nil {
			return nil, err
		}
	}

	f.emit(progress.Event{Type: progress.EventComplete, Current: int64(result.ObjectCount), Total: int64(len(objects))})

	if result.ObjectCount == 0 {
		return nil, logdecode.ErrNoDataFound
	}
	return result, nil
}

// decodeObject handles one object; any non-configuration failure becomes a
// skip record instead of an error
func (f *Fetcher) decodeObject(ctx context.Context, req *Request, obj ObjectInfo, result *Result, logger *zap.Logger) error {
	skip := func(reason string) {
		result.Skipped = append(result.Skipped, SkippedObject{Key: obj.Key, Reason: reason})
		logger.Warn("skipping object", zap.String("key", obj.Key), zap.String("reason", reason))
		f.emit(progress.Event{Type: progress.EventSkip, ObjectKey: obj.Key})
	}

	if f.Exclude != nil && f.Exclude.MatchesPath(obj.Key) {
		skip("excluded by pattern")
		return nil
	}

	fileType := format.Detect(obj.Key)
	if fileType == format.TypeUnknown {
		skip("unsupported file type")
		return nil
	}

	f.emit(progress.Event{Type: progress.EventObjectStart, ObjectKey: obj.Key, Total: obj.Size})

	body, err := f.Store.Get(ctx, obj.Key)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		skip(fmt.Sprintf("fetch failed: %v", err))
		return nil
	}

	decodeReq := logdecode.NewRequest(body, fileType)
	decodeReq.Filename = obj.Key
	decodeReq.Key = f.Key
	decodeReq.Decompress = req.Decompress
	if req.Encoding != "" {
		decodeReq.Encoding = req.Encoding
	}

	decoded, err := logdecode.Decode(ctx, decodeReq)
	if err != nil {
		// A missing key is a request-level configuration error, not a
		// property of this one object.
		if errors.Is(err, logdecode.ErrNoKey) || errors.Is(err, logdecode.ErrInvalidKeySize) {
			return err
		}
		skip(fmt.Sprintf("decode failed: %v", err))
		return nil
	}

	result.Merge(decoded)
	result.ObjectCount++

	logger.Debug("decoded object",
		zap.String("key", obj.Key),
		zap.Int64("originalSize", int64(len(body))),
		zap.Int("entries", len(decoded.Entries)))

	f.emit(progress.Event{Type: progress.EventObjectComplete, ObjectKey: obj.Key, Total: obj.Size})
	return nil
}

func (f *Fetcher) emit(event progress.Event) {
	if f.Progress != nil {
		f.Progress(event)
	}
}

// datePrefix joins the base prefix and a date partition with exactly one
// separator, ending in "/"
func datePrefix(prefix, day string) string {
	if prefix == "" {
		return day + "/"
	}
	return strings.TrimSuffix(prefix, "/") + "/" + day + "/"
}
