package monitor

import (
	"testing"

	"github.com/driftforge/keyrotate/internal/keyring"
	"github.com/driftforge/keyrotate/internal/selector"
	"github.com/driftforge/keyrotate/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.NewDefault("monitor-test")
}

func selectorBestAlternativeOrFail(t *testing.T, kr *keyring.Keyring, now int64, exclude string) *string {
	t.Helper()
	alt := selector.BestAlternative(kr, now, exclude)
	if alt == nil {
		t.Fatal("expected an alternative key to exist")
	}
	return alt
}
