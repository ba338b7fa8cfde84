package executor

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

const maxLogLines = 200

// Process 表示一个已启动、不等待其退出的后台进程
type Process struct {
	Name      string
	Pid       int
	IsRunning bool
	ExitCode  int
	Logs      []string
	mu        sync.RWMutex

	cmd  *exec.Cmd
	done chan struct{}
}

// ProcessInfo 是 Process 的只读快照，用于状态输出
type ProcessInfo struct {
	Name      string `json:"name"`
	Pid       int    `json:"pid"`
	IsRunning bool   `json:"is_running"`
	ExitCode  int    `json:"exit_code"`
}

// NewProcess 创建一个处于运行状态的进程记录
func NewProcess(name string, pid int) *Process {
	return &Process{
		Name:      name,
		Pid:       pid,
		IsRunning: true,
		done:      make(chan struct{}),
	}
}

func (p *Process) AddLog(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Logs = append(p.Logs, line)
	if len(p.Logs) > maxLogLines {
		p.Logs = p.Logs[len(p.Logs)-maxLogLines:]
	}
}

func (p *Process) GetLogs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.Logs))
	copy(out, p.Logs)
	return out
}

func (p *Process) Running() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.IsRunning
}

func (p *Process) Info() ProcessInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return ProcessInfo{
		Name:      p.Name,
		Pid:       p.Pid,
		IsRunning: p.IsRunning,
		ExitCode:  p.ExitCode,
	}
}

// Done 在进程退出后关闭
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// MarkExited 记录退出码，只有第一次调用生效
func (p *Process) MarkExited(code int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.IsRunning {
		return
	}
	p.IsRunning = false
	p.ExitCode = code
	close(p.done)
}

// Stop 先发送 SIGTERM，超时后强制结束
func (p *Process) Stop(timeout time.Duration) {
	if !p.Running() {
		return
	}
	if p.cmd == nil || p.cmd.Process == nil {
		p.MarkExited(-1)
		return
	}
	_ = p.cmd.Process.Signal(syscall.SIGTERM)
	select {
	case <-p.done:
	case <-time.After(timeout):
		_ = p.cmd.Process.Kill()
		select {
		case <-p.done:
		case <-time.After(timeout):
		}
	}
}

// Command 描述一次后台启动
type Command struct {
	Name string
	Path string
	Args []string
	Dir  string
}

// Runner 启动后台进程，返回时不等待进程结束
type Runner interface {
	Start(ctx context.Context, c Command) (*Process, error)
}

// ExecRunner 基于 os/exec 的 Runner，ctx 取消时子进程随之结束
type ExecRunner struct{}

func (ExecRunner) Start(ctx context.Context, c Command) (*Process, error) {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	p := NewProcess(c.Name, cmd.Process.Pid)
	p.cmd = cmd

	var wg sync.WaitGroup
	wg.Add(2)

	logWorker := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			p.AddLog(scanner.Text())
		}
	}

	go logWorker(stdout)
	go logWorker(stderr)

	// 回收子进程，避免留下僵尸进程
	go func() {
		wg.Wait()
		err := cmd.Wait()
		code := 0
		if err != nil {
			var exitError *exec.ExitError
			if errors.As(err, &exitError) {
				code = exitError.ExitCode()
			} else {
				code = -1
			}
		}
		p.MarkExited(code)
	}()

	return p, nil
}
