package executor

import (
	"context"
	"net"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func TestExecRunnerCapturesOutput(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	p, err := ExecRunner{}.Start(context.Background(), Command{
		Name: "echo",
		Path: "sh",
		Args: []string{"-c", "echo hello; echo oops 1>&2; exit 3"},
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("process did not exit")
	}

	info := p.Info()
	if info.IsRunning || info.ExitCode != 3 {
		t.Fatalf("unexpected info: %+v", info)
	}
	logs := strings.Join(p.GetLogs(), "\n")
	if !strings.Contains(logs, "hello") || !strings.Contains(logs, "oops") {
		t.Fatalf("logs not captured: %q", logs)
	}
}

func TestProcessStopTerminates(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	p, err := ExecRunner{}.Start(context.Background(), Command{Name: "sleep", Path: "sleep", Args: []string{"30"}})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !p.Running() {
		t.Fatalf("process should be running")
	}
	p.Stop(2 * time.Second)
	if p.Running() {
		t.Fatalf("process should have stopped")
	}
}

func TestAddLogIsBounded(t *testing.T) {
	p := NewProcess("x", 0)
	for i := 0; i < maxLogLines+50; i++ {
		p.AddLog("line")
	}
	if got := len(p.GetLogs()); got != maxLogLines {
		t.Fatalf("expected %d lines, got %d", maxLogLines, got)
	}
}

func TestMarkExitedOnce(t *testing.T) {
	p := NewProcess("x", 1)
	p.MarkExited(2)
	p.MarkExited(5)
	if info := p.Info(); info.ExitCode != 2 || info.IsRunning {
		t.Fatalf("unexpected info: %+v", info)
	}
	p.Stop(time.Millisecond)
}

func TestWaitForPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	if err := WaitForPort(context.Background(), ln.Addr().String(), 10*time.Millisecond, time.Second); err != nil {
		t.Fatalf("wait for open port: %v", err)
	}

	addr := ln.Addr().String()
	ln.Close()
	if err := WaitForPort(context.Background(), addr, 10*time.Millisecond, 50*time.Millisecond); err != ErrTimeout {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestPollStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Poll(ctx, 10*time.Millisecond, time.Second, func() (bool, error) { return false, nil })
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
