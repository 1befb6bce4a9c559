package cmds

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestExecutor(t *testing.T) {
	executor := NewExecutor()

	var rate int
	executor.Define("-frame-rate", Func(func(i int) {
		rate = i
	}))
	var interval time.Duration
	executor.Define("-list-interval", Func(func(d time.Duration) {
		interval = d
	}))
	var headless bool
	executor.Define("-headless", Func(func() {
		headless = true
	}).Desc("no terminal ui"))

	if err := executor.Execute([]string{
		"-frame-rate", "30",
		"-list-interval=2s",
		"-headless",
	}); err != nil {
		t.Fatal(err)
	}
	if rate != 30 {
		t.Fatalf("got %v", rate)
	}
	if interval != 2*time.Second {
		t.Fatalf("got %v", interval)
	}
	if !headless {
		t.Fatal()
	}

	err := executor.Execute([]string{"foo"})
	if err == nil || !strings.Contains(err.Error(), "unknown command: foo") {
		t.Fatalf("got %v", err)
	}

	err = executor.Execute([]string{"-frame-rate", "fast"})
	if err == nil {
		t.Fatal("should error")
	}

	buf := new(bytes.Buffer)
	executor.PrintUsage(buf)
	if !strings.Contains(buf.String(), "-headless\tno terminal ui") {
		t.Fatalf("got %s", buf.String())
	}
}

func TestOptionalArg(t *testing.T) {
	executor := NewExecutor()
	var got *string
	executor.Define("-dir", Func(func(dir *string) {
		got = dir
	}))
	if err := executor.Execute([]string{"-dir"}); err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("got %v", *got)
	}
	if err := executor.Execute([]string{"-dir", "/data"}); err != nil {
		t.Fatal(err)
	}
	if got == nil || *got != "/data" {
		t.Fatalf("got %v", got)
	}
}
