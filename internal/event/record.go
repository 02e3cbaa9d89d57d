package event

import (
	"strconv"
	"strings"
)

// Record is an immutable description of one tracked allocation. Equality
// and identity are by ObjectID alone; two Records with the same ObjectID
// describe the same allocation at different points in its life.
type Record struct {
	ObjectID       uint64
	ClassName      string
	SizeBytes      int64
	TimestampMS    int64
	ThreadID       uint64
	ThreadName     string
	Frames         []Frame
	AllocationSite string
}

// SiteConfig names the prefixes that mark a frame as framework/runtime
// machinery rather than application code, for allocation-site derivation.
type SiteConfig struct {
	FrameworkPrefixes []string
}

// DefaultSiteConfig excludes the analyzer's own packages and the Go
// runtime's standard library prefixes from allocation-site candidacy.
func DefaultSiteConfig() SiteConfig {
	return SiteConfig{
		FrameworkPrefixes: []string{
			"runtime.",
			"sync.",
			"sync/atomic.",
			"github.com/heapguard/analyzer/internal/",
		},
	}
}

// NewRecord builds a Record from an Alloc event, deriving AllocationSite
// per DeriveSite.
func NewRecord(ev Event, cfg SiteConfig) Record {
	frames := TruncateFrames(ev.Frames)
	return Record{
		ObjectID:       ev.Tag,
		ClassName:      ev.ClassName,
		SizeBytes:      ev.Size,
		TimestampMS:    ev.TimestampMS,
		ThreadID:       ev.ThreadID,
		ThreadName:     ev.ThreadName,
		Frames:         frames,
		AllocationSite: DeriveSite(frames, cfg),
	}
}

// DeriveSite returns the serialized site of the first frame not matching
// any configured framework prefix, falling back to the first frame, and
// finally to "unknown" when frames is empty.
func DeriveSite(frames []Frame, cfg SiteConfig) string {
	if len(frames) == 0 {
		return "unknown"
	}
	for _, f := range frames {
		if !hasFrameworkPrefix(f.Class, cfg.FrameworkPrefixes) {
			return formatFrame(f)
		}
	}
	return formatFrame(frames[0])
}

func hasFrameworkPrefix(class string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(class, p) {
			return true
		}
	}
	return false
}

func formatFrame(f Frame) string {
	return f.Class + "." + f.Method + "(" + f.File + ":" + strconv.Itoa(f.Line) + ")"
}
