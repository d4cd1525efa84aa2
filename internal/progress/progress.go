// internal/progress/progress.go
package progress

import (
	"path"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Event reports batch fetch/decode progress for one object or the batch
type Event struct {
	Type         EventType
	ObjectKey    string
	Current      int64
	Total        int64
	CurrentBytes uint64
	TotalBytes   uint64
}

// EventType indicates the type of progress event
type EventType int

const (
	EventStart EventType = iota
	EventObjectStart
	EventObjectProgress
	EventObjectComplete
	EventComplete
	EventSkip
)

// Callback receives progress events
type Callback func(event Event)

// BarCallback returns a callback rendering one bar per in-flight object
// and an "objects done" counter pinned below them. The caller must Wait()
// on the container once the batch returns so the last frame is drawn.
func BarCallback() (Callback, *mpb.Progress) {
	progress := mpb.New(
		mpb.WithWidth(64),
		mpb.WithRefreshRate(120),
	)

	var overallBar *mpb.Bar
	var objectBars sync.Map // object key -> *mpb.Bar

	callback := func(event Event) {
		switch event.Type {
		case EventStart:
			overallBar = progress.AddBar(event.Total,
				mpb.PrependDecorators(
					decor.Name("Objects", decor.WC{C: decor.DindentRight | decor.DextraSpace}),
					decor.CountersNoUnit("%d/%d", decor.WCSyncWidth),
				),
				mpb.AppendDecorators(
					decor.Percentage(decor.WC{W: 5}),
				),
				// Skipped objects still count toward the total, so this
				// bar only ever ticks forward.
				mpb.BarPriority(1000),
			)

		case EventObjectStart:
			// Zero-size objects complete immediately; a bar would only flicker.
			if event.Total == 0 {
				return
			}
			bar := progress.AddBar(event.Total,
				mpb.PrependDecorators(
					decor.Name(TruncateLeft(event.ObjectKey, 30), decor.WC{C: decor.DindentRight | decor.DextraSpace, W: 32}),
				),
				mpb.AppendDecorators(
					decor.CountersKibiByte("% .1f / % .1f", decor.WC{W: 18}),
					decor.Percentage(decor.WC{W: 5}),
				),
				mpb.BarRemoveOnComplete(),
			)
			objectBars.Store(event.ObjectKey, bar)

		case EventObjectProgress:
			if bar, ok := objectBars.Load(event.ObjectKey); ok {
				bar.(*mpb.Bar).SetCurrent(event.Current)
			}

		case EventObjectComplete:
			if bar, ok := objectBars.LoadAndDelete(event.ObjectKey); ok {
				b := bar.(*mpb.Bar)
				if event.Total > 0 {
					b.SetCurrent(event.Total)
				} else {
					b.Abort(true)
				}
			}
			if overallBar != nil {
				overallBar.Increment()
			}

		case EventSkip:
			if bar, ok := objectBars.LoadAndDelete(event.ObjectKey); ok {
				bar.(*mpb.Bar).Abort(true)
			}
			if overallBar != nil {
				overallBar.Increment()
			}
		}
	}

	return callback, progress
}

// TruncateLeft shortens an object key to maxLen by dropping leading path
// segments, keeping the part that identifies the object
func TruncateLeft(key string, maxLen int) string {
	if len(key) <= maxLen {
		return key
	}

	if name := path.Base(key); len(name) >= maxLen-3 {
		return "..." + name[len(name)-(maxLen-3):]
	}

	return "..." + key[len(key)-(maxLen-3):]
}
