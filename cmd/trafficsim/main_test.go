// File: cmd/trafficsim/main_test.go
package main

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/trafficsim/cmd"
)

// resetMocks restores the original function implementations.
func resetMocks() {
	osWriteFile = os.WriteFile
	osExit = os.Exit
	execute = cmd.Execute
}

func TestRunExitCodes(t *testing.T) {
	defer resetMocks()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"canceled by signal", context.Canceled, 0},
		{"wrapped cancel", errors.Join(errors.New("run"), context.Canceled), 0},
		{"failure", errors.New("invalid configuration"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			execute = func(context.Context) error { return tt.err }
			assert.Equal(t, tt.want, run(context.Background()))
		})
	}
}

func TestHandlePanicWritesLog(t *testing.T) {
	defer resetMocks()

	var written string
	var path string
	osWriteFile = func(name string, data []byte, _ os.FileMode) error {
		path = name
		written = string(data)
		return nil
	}
	exitCode := -1
	osExit = func(code int) { exitCode = code }

	func() {
		defer handlePanic()
		panic("boom")
	}()

	assert.Equal(t, panicLogFile, path)
	assert.Contains(t, written, "panic: boom")
	assert.Contains(t, written, "goroutine")
	assert.Equal(t, 2, exitCode)
}

func TestHandlePanicWriteFailure(t *testing.T) {
	defer resetMocks()

	osWriteFile = func(string, []byte, os.FileMode) error { return errors.New("read-only fs") }
	exitCode := -1
	osExit = func(code int) { exitCode = code }

	func() {
		defer handlePanic()
		panic("boom")
	}()
	assert.Equal(t, 2, exitCode)
}

func TestHandlePanicNoPanic(t *testing.T) {
	defer resetMocks()
	osExit = func(int) { t.Fatal("exit must not be called without a panic") }

	func() {
		defer handlePanic()
	}()
}
