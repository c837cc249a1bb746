//go:build !windows

package platform

import (
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestAcquireLockIsExclusive(t *testing.T) {
	name := fmt.Sprintf("gamebridge-lock-test-%d", os.Getpid())

	first, err := AcquireLock(name)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}

	if _, err := AcquireLock(name); !errors.Is(err, ErrLockHeld) {
		t.Errorf("second AcquireLock = %v, want ErrLockHeld", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	again, err := AcquireLock(name)
	if err != nil {
		t.Fatalf("AcquireLock after release: %v", err)
	}
	again.Release()
}
