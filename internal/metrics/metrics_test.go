package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_CountsJobs(t *testing.T) {
	r := New()
	r.JobFinished("cv-v1", "svc-v1", "ok", 2*time.Second)
	r.JobFinished("cv-v1", "svc-v2", "ok", time.Second)
	r.JobFinished("cv-v1", "svc-v3", "error", 0)
	r.JobSkipped("cv-v1")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.jobsTotal.WithLabelValues("cv-v1", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.jobsTotal.WithLabelValues("cv-v1", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.jobsSkipped.WithLabelValues("cv-v1")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.jobDuration))
}

func TestRecorder_RecordersAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.JobSkipped("v-v1")

	assert.Equal(t, 1.0, testutil.ToFloat64(a.jobsSkipped.WithLabelValues("v-v1")))
	assert.Equal(t, 0, testutil.CollectAndCount(b.jobsSkipped))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := New()
	r.JobFinished("cv-v1", "svc-v1", "ok", 500*time.Millisecond)

	path := filepath.Join(t.TempDir(), "gauntlet.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, `gauntlet_jobs_total{outcome="ok",validation="cv-v1"} 1`), text)
	assert.Contains(t, text, "gauntlet_job_duration_seconds_bucket")
}

func TestRecorder_WriteTextfileBadPath(t *testing.T) {
	r := New()
	err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	assert.Error(t, err)
}
