package report_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/heapguard/analyzer/internal/leak"
	"github.com/heapguard/analyzer/internal/report"
)

func TestRenderEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	report.Render(&buf, leak.Report{}, true)
	assert.Contains(t, buf.String(), "No potential leaks detected")
}

func TestRenderReportWithCandidatesIncludesTableAndRecommendations(t *testing.T) {
	r := leak.Report{
		ID: 1,
		Candidates: []leak.Candidate{
			{
				ClassName:      "Leaky",
				InstanceCount:  500,
				TotalSize:      5 * 1024 * 1024,
				Type:           leak.AgeBased,
				AllocationSite: "Leaky.alloc(Leaky.java:10)",
				Description:    "old and growing",
			},
		},
	}

	var buf bytes.Buffer
	report.Render(&buf, r, true)

	out := buf.String()
	assert.Contains(t, out, "Leaky")
	assert.Contains(t, out, "AGE_BASED")
	assert.Contains(t, out, "Top suspect")
}
