package leak_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/heapguard/analyzer/internal/leak"
)

func TestSeverityReportScenario(t *testing.T) {
	candidates := []leak.Candidate{
		{ClassName: "Window", InstanceCount: 12000, TotalSize: 200 * 1024 * 1024, Type: leak.WindowBased},
		{ClassName: "Growth", InstanceCount: 500, TotalSize: 5 * 1024 * 1024, Type: leak.GrowthBased},
		{ClassName: "Age", InstanceCount: 50, TotalSize: 200 * 1024, Type: leak.AgeBased},
	}

	sevs := map[string]int{}
	for _, c := range candidates {
		sevs[c.ClassName] = c.Severity()
	}
	assert.GreaterOrEqual(t, sevs["Window"], 70)
	assert.GreaterOrEqual(t, sevs["Growth"], 40)
	assert.Less(t, sevs["Growth"], 70)
	assert.Less(t, sevs["Age"], 40)
}

func TestSeverityClampedAt100(t *testing.T) {
	c := leak.Candidate{InstanceCount: 1_000_000, TotalSize: 10 * 1024 * 1024 * 1024, Type: leak.WindowBased}
	assert.Equal(t, 100, c.Severity())
}
