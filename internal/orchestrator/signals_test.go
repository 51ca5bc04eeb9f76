package orchestrator

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSignalManagerStopRoundTrip(t *testing.T) {
	dir := t.TempDir()
	sm, err := NewSignalManager(dir)
	if err != nil {
		t.Fatalf("NewSignalManager failed: %v", err)
	}
	defer sm.Close()

	if sm.ShouldStop() {
		t.Error("ShouldStop() = true before any signal")
	}

	if err := sm.SendStop(); err != nil {
		t.Fatalf("SendStop failed: %v", err)
	}
	if !sm.ShouldStop() {
		t.Error("ShouldStop() = false after SendStop")
	}

	sm.ClearSignals()
	if sm.ShouldStop() {
		t.Error("ShouldStop() = true after ClearSignals")
	}
}

func TestSignalManagerDetectsExternalStopFile(t *testing.T) {
	dir := t.TempDir()
	sm, err := NewSignalManager(dir)
	if err != nil {
		t.Fatalf("NewSignalManager failed: %v", err)
	}
	defer sm.Close()

	// Written by another process; the polling fallback must catch it even
	// if the watcher misses the event.
	stopPath := filepath.Join(dir, "signals", "stop")
	if err := os.WriteFile(stopPath, []byte("now"), 0644); err != nil {
		t.Fatalf("write stop file: %v", err)
	}

	if !sm.ShouldStop() {
		t.Error("ShouldStop() = false with stop file present")
	}
}

func TestSignalManagerCreatesSignalsDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "run")
	sm, err := NewSignalManager(dir)
	if err != nil {
		t.Fatalf("NewSignalManager failed: %v", err)
	}
	defer sm.Close()

	if _, err := os.Stat(filepath.Join(dir, "signals")); err != nil {
		t.Errorf("signals dir not created: %v", err)
	}
}
