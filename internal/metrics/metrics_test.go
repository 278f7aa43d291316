package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chilicat/scrbuild/internal/diagnostics"
)

func TestWriteTextfile(t *testing.T) {
	logger := diagnostics.NewCollector()
	logger.Warn("something odd")
	logger.Error("broken")
	logger.Error("broken again")

	ObserveBuild("metrics-test", false, 150*time.Millisecond, 3, 1)
	ObserveDiagnostics("metrics-test", logger)

	path := filepath.Join(t.TempDir(), "scrbuild.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, `scrbuild_builds_total{module="metrics-test",success="false"} 1`)
	assert.Contains(t, out, `scrbuild_generated_descriptors{module="metrics-test"} 3`)
	assert.Contains(t, out, `scrbuild_removed_descriptors_total{module="metrics-test"} 1`)
	assert.Contains(t, out, `scrbuild_diagnostics_total{module="metrics-test",severity="ERROR"} 2`)
	assert.Contains(t, out, `scrbuild_diagnostics_total{module="metrics-test",severity="WARN"} 1`)
	assert.Contains(t, out, `scrbuild_build_duration_seconds_count{module="metrics-test"} 1`)
}
