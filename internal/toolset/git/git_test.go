package git

import (
	"testing"

	"github.com/golemforge/golem-forge/internal/worker"
)

func TestToolsetAlwaysEmpty(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		tools, err := Toolset(worker.GitToolsetConfig{Enabled: enabled})
		if err != nil {
			t.Fatalf("Toolset(Enabled=%v) returned error: %v", enabled, err)
		}
		if tools != nil {
			t.Errorf("Toolset(Enabled=%v) = %v, want nil", enabled, tools)
		}
	}
}
