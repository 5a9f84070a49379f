package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()

	before := testutil.ToFloat64(QuotaDecisionsTotal.WithLabelValues("interest", "denied", "quota_exceeded"))
	r.RecordDecision("interest", "denied", "quota_exceeded")
	r.RecordDecision("interest", "denied", "quota_exceeded")
	assert.Equal(t, before+2, testutil.ToFloat64(QuotaDecisionsTotal.WithLabelValues("interest", "denied", "quota_exceeded")))

	before = testutil.ToFloat64(RenewalsTotal.WithLabelValues("merge"))
	r.RecordRenewal("merge")
	assert.Equal(t, before+1, testutil.ToFloat64(RenewalsTotal.WithLabelValues("merge")))

	before = testutil.ToFloat64(ConflictRetriesTotal.WithLabelValues("apply_plan"))
	r.RecordConflictRetry("apply_plan")
	assert.Equal(t, before+1, testutil.ToFloat64(ConflictRetriesTotal.WithLabelValues("apply_plan")))
}
