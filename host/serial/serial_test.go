//go:build !tinygo

package serial

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/rfcomm0")
	if cfg.Device != "/dev/rfcomm0" {
		t.Errorf("Expected device /dev/rfcomm0, got %s", cfg.Device)
	}
	if cfg.Baud != 9600 {
		t.Errorf("Expected 9600 baud, got %d", cfg.Baud)
	}
	if cfg.ReadTimeout != 100*time.Millisecond {
		t.Errorf("Expected 100ms read timeout, got %v", cfg.ReadTimeout)
	}
}

func TestOpenErrors(t *testing.T) {
	if _, err := Open(nil); err == nil {
		t.Error("Expected error for nil config")
	}

	if _, err := Open(DefaultConfig("")); !errors.Is(err, ErrNoDevice) {
		t.Errorf("Expected ErrNoDevice, got %v", err)
	}

	missing := filepath.Join(t.TempDir(), "ttyMISSING")
	if _, err := Open(DefaultConfig(missing)); err == nil {
		t.Error("Expected error opening a missing device")
	}
}

func TestNativePortFlush(t *testing.T) {
	var p Port = &NativePort{}
	if err := p.Flush(); err != nil {
		t.Errorf("Expected Flush to return nil once writes are queued, got %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Expected Close on an unopened port to return nil, got %v", err)
	}
}
