package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRun(t *testing.T) {
	before := testutil.ToFloat64(RotaRunsTotal.WithLabelValues("generate", "success"))
	ObserveRun("generate", "success", 150*time.Millisecond)
	after := testutil.ToFloat64(RotaRunsTotal.WithLabelValues("generate", "success"))
	assert.Equal(t, before+1, after)
}

func TestSetUnassigned(t *testing.T) {
	SetUnassigned(3, 7)
	assert.Equal(t, 3.0, testutil.ToFloat64(RotaUnassignedTalks.WithLabelValues("priority")))
	assert.Equal(t, 7.0, testutil.ToFloat64(RotaUnassignedTalks.WithLabelValues("additional")))
}

func TestRecordAssignment(t *testing.T) {
	before := testutil.ToFloat64(RotaAssignmentsTotal.WithLabelValues("bundling_same_venue"))
	RecordAssignment("bundling_same_venue")
	RecordAssignment("bundling_same_venue")
	assert.Equal(t, before+2, testutil.ToFloat64(RotaAssignmentsTotal.WithLabelValues("bundling_same_venue")))
}
