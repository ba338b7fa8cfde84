package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"argo-mgr/internal/executor"
	"argo-mgr/internal/model"

	log "github.com/sirupsen/logrus"
)

var ErrNotReady = errors.New("依赖进程未就绪")

// Readiness 判断被依赖的进程是否已经可用
type Readiness interface {
	WaitPort(ctx context.Context, addr string) error
	WaitDomain(ctx context.Context, bootLog string) (string, error)
}

// PollReadiness 以固定间隔轮询，超时即失败
type PollReadiness struct {
	Interval      time.Duration
	PortTimeout   time.Duration
	DomainTimeout time.Duration
}

func DefaultReadiness() PollReadiness {
	return PollReadiness{
		Interval:      200 * time.Millisecond,
		PortTimeout:   10 * time.Second,
		DomainTimeout: 30 * time.Second,
	}
}

func (r PollReadiness) WaitPort(ctx context.Context, addr string) error {
	return executor.WaitForPort(ctx, addr, r.Interval, r.PortTimeout)
}

func (r PollReadiness) WaitDomain(ctx context.Context, bootLog string) (string, error) {
	var domain string
	err := executor.Poll(ctx, r.Interval, r.DomainTimeout, func() (bool, error) {
		d, err := ExtractDomainFromFile(bootLog)
		if err != nil {
			return false, nil
		}
		domain = d
		return true, nil
	})
	return domain, err
}

// LaunchResult 记录本次启动选择的模式
type LaunchResult struct {
	NezhaMode  NezhaMode
	TunnelMode TunnelMode
	Domain     string
}

// Launcher 按顺序启动 xray、哪吒探针与隧道，并持有它们的进程句柄
type Launcher struct {
	cfg         model.Config
	paths       model.Paths
	runner      executor.Runner
	ready       Readiness
	stopTimeout time.Duration

	mu    sync.Mutex
	procs []*executor.Process
}

func NewLauncher(cfg model.Config, paths model.Paths, runner executor.Runner, ready Readiness) *Launcher {
	if runner == nil {
		runner = executor.ExecRunner{}
	}
	if ready == nil {
		ready = DefaultReadiness()
	}
	return &Launcher{
		cfg:         cfg,
		paths:       paths,
		runner:      runner,
		ready:       ready,
		stopTimeout: 5 * time.Second,
	}
}

// Launch 启动全部后台进程。xray 未能监听入口端口或隧道无法启动时，
// 已启动的进程会被停止，以便下次重试时不会重复。
func (l *Launcher) Launch(ctx context.Context) (LaunchResult, error) {
	logger := log.WithField("module", "launcher")
	res := LaunchResult{NezhaMode: DetectNezhaMode(l.cfg)}

	if err := l.start(ctx, XrayInvocation(l.paths)); err != nil {
		l.StopAll()
		return res, err
	}
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(l.cfg.ArgoPort))
	if err := l.ready.WaitPort(ctx, addr); err != nil {
		l.StopAll()
		return res, fmt.Errorf("%w: xray 未监听 %s: %v", ErrNotReady, addr, err)
	}

	nezha, ok, err := BuildNezhaInvocation(l.cfg, l.paths)
	switch {
	case err != nil:
		logger.Warnf("生成哪吒配置失败: %v", err)
	case !ok:
		logger.Info("哪吒未配置，跳过")
	default:
		if err := l.start(ctx, nezha); err != nil {
			logger.Warnf("哪吒探针启动失败: %v", err)
		}
	}

	tunnel, mode, err := BuildTunnelInvocation(l.cfg, l.paths)
	res.TunnelMode = mode
	if err != nil {
		l.StopAll()
		return res, err
	}
	if mode == TunnelQuick {
		// 避免读到上一次运行留下的域名
		if err := os.Remove(l.paths.BootLog); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warnf("删除旧的 boot.log 失败: %v", err)
		}
	}
	if err := l.start(ctx, tunnel); err != nil {
		l.StopAll()
		return res, err
	}

	if mode == TunnelQuick && l.cfg.ArgoDomain == "" {
		domain, err := l.ready.WaitDomain(ctx, l.paths.BootLog)
		if err != nil {
			logger.Warnf("临时隧道域名尚未出现: %v", err)
		} else {
			res.Domain = domain
		}
	}
	return res, nil
}

func (l *Launcher) start(ctx context.Context, inv Invocation) error {
	if err := inv.WriteFiles(); err != nil {
		return err
	}
	p, err := l.runner.Start(ctx, inv.Command(l.paths.Root))
	if err != nil {
		return fmt.Errorf("启动 %s 失败: %w", inv.Name, err)
	}
	l.mu.Lock()
	l.procs = append(l.procs, p)
	l.mu.Unlock()
	log.WithField("module", "launcher").Infof("%s 已启动 (PID: %d)", inv.Name, p.Pid)
	return nil
}

func (l *Launcher) Processes() []executor.ProcessInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	infos := make([]executor.ProcessInfo, 0, len(l.procs))
	for _, p := range l.procs {
		infos = append(infos, p.Info())
	}
	return infos
}

// StopAll 停止所有已启动的进程
func (l *Launcher) StopAll() {
	l.mu.Lock()
	procs := l.procs
	l.procs = nil
	l.mu.Unlock()

	var wg sync.WaitGroup
	for _, p := range procs {
		wg.Add(1)
		go func(p *executor.Process) {
			defer wg.Done()
			p.Stop(l.stopTimeout)
		}(p)
	}
	wg.Wait()
}
