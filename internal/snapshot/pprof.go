package snapshot

import (
	"sort"

	"github.com/google/pprof/profile"
)

// ToProfile converts a snapshot's class statistics into a pprof Profile,
// with one sample per class: a synthetic single-frame location named
// after the class, and two values (instance count, total size bytes), so
// existing pprof tooling can visualize an allocation snapshot without a
// bespoke viewer.
func (s Snapshot) ToProfile() *profile.Profile {
	p := &profile.Profile{
		TimeNanos: s.TimestampMS * 1_000_000,
		SampleType: []*profile.ValueType{
			{Type: "instances", Unit: "count"},
			{Type: "alloc_size", Unit: "bytes"},
		},
	}

	classes := make([]string, 0, len(s.ClassStats))
	for class := range s.ClassStats {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	funcs := make(map[string]*profile.Function, len(classes))
	for i, class := range classes {
		fn := &profile.Function{ID: uint64(i + 1), Name: class}
		funcs[class] = fn
		p.Function = append(p.Function, fn)
	}

	for i, class := range classes {
		fn := funcs[class]
		loc := &profile.Location{
			ID:   uint64(i + 1),
			Line: []profile.Line{{Function: fn, Line: 1}},
		}
		p.Location = append(p.Location, loc)

		stats := s.ClassStats[class]
		p.Sample = append(p.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{stats.InstanceCount, stats.TotalSize},
		})
	}

	return p
}
