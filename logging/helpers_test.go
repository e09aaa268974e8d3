package logging

import (
	"io"
	"testing"

	"github.com/giygas/vetref-api/config"
)

// ResetForTest installs a fresh logger writing into dir and removes it when
// the test ends.
func ResetForTest(t testing.TB, dir string, env config.Environment, level string, weeks int, maxSize int64) {
	t.Helper()
	if err := InitLogger(Options{
		Dir:            dir,
		Env:            env,
		Level:          level,
		RetentionWeeks: weeks,
		MaxFileSize:    maxSize,
		Console:        io.Discard,
	}); err != nil {
		t.Fatalf("InitLogger: %v", err)
	}
	t.Cleanup(Close)
}
