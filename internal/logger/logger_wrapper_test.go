package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leandrodaf/puretones/sdk/contracts"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFieldsReachCore(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapLoggerFromCore(core)

	log.Info("note evicted",
		log.Field().Uint8("pitch", 60),
		log.Field().Int("channel", 3),
		log.Field().Error("error", errors.New("boom")),
	)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["pitch"] != uint8(60) {
		t.Errorf("pitch = %v, want 60", ctx["pitch"])
	}
	if ctx["channel"] != int64(3) {
		t.Errorf("channel = %v, want 3", ctx["channel"])
	}
	if ctx["error"] != "boom" {
		t.Errorf("error = %v, want boom", ctx["error"])
	}
}

func TestSetLevelFilters(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapLoggerFromCore(core)
	log.SetLevel(contracts.WarnLevel)

	log.Debug("dropped")
	log.Info("dropped")
	log.Warn("kept")
	log.Error("kept")

	if n := logs.FilterMessage("kept").Len(); n != 2 {
		t.Errorf("kept entries = %d, want 2", n)
	}
	if n := logs.FilterMessage("dropped").Len(); n != 0 {
		t.Errorf("dropped entries = %d, want 0", n)
	}
}

func TestSetDestinationFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "puretones.log")
	log := NewZapLogger()
	if err := log.SetDestination(contracts.FileLog, path); err != nil {
		t.Fatalf("SetDestination: %v", err)
	}
	log.Info("capture started", log.Field().String("device", "keys"))
	if err := log.SetDestination(contracts.ConsoleLog); err != nil {
		t.Fatalf("SetDestination console: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"device":"keys"`) {
		t.Errorf("log file missing field: %s", data)
	}
}

func TestSetDestinationFileNeedsPath(t *testing.T) {
	log := NewZapLogger()
	if err := log.SetDestination(contracts.FileLog); err == nil {
		t.Error("expected error without a path")
	}
}

func TestSetDestinationClosesPreviousFile(t *testing.T) {
	dir := t.TempDir()
	log := NewZapLogger().(*ZapLogger)
	if err := log.SetDestination(contracts.FileLog, filepath.Join(dir, "first.log")); err != nil {
		t.Fatalf("SetDestination first: %v", err)
	}
	first := log.file

	if err := log.SetDestination(contracts.FileLog, filepath.Join(dir, "second.log")); err != nil {
		t.Fatalf("SetDestination second: %v", err)
	}
	if _, err := first.Write([]byte("x")); !errors.Is(err, os.ErrClosed) {
		t.Errorf("first file write err = %v, want os.ErrClosed", err)
	}
	second := log.file
	if second == nil || second == first {
		t.Fatal("second file not tracked")
	}

	if err := log.SetDestination(contracts.ConsoleLog); err != nil {
		t.Fatalf("SetDestination console: %v", err)
	}
	if _, err := second.Write([]byte("x")); !errors.Is(err, os.ErrClosed) {
		t.Errorf("second file write err = %v, want os.ErrClosed", err)
	}
	if log.file != nil {
		t.Error("console destination still tracks a file")
	}
}
