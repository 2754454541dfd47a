package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImpactStatsBinary(t *testing.T) {
	stats := ImpactStats{TotalWorkers: 12, TotalEmployers: 3, TotalJobs: 20, PoliciesActivated: 9, SOSResponded: 1}

	data, err := stats.MarshalBinary()
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_workers":12,"total_employers":3,"total_jobs":20,"policies_activated":9,"sos_responded":1}`, string(data))

	var got ImpactStats
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Equal(t, stats, got)
}

func TestIsValidRoleAndStatus(t *testing.T) {
	assert.True(t, IsValidRole(RoleWorker))
	assert.True(t, IsValidRole(RoleEmployer))
	assert.False(t, IsValidRole("admin"))

	assert.True(t, IsValidJobStatus(JobStatusCompleted))
	assert.False(t, IsValidJobStatus("cancelled"))
}
