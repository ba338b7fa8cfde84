package service

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

type State int

// HealthzPath 健康检查路由，不触发初始化
const HealthzPath = "healthz"

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "uninitialized"
	}
}

// Pipeline 初始化流程的两个阶段
type Pipeline interface {
	Provision(ctx context.Context) error
	Publish(ctx context.Context) (string, error)
}

// Status 是 Bootstrapper 的快照。进程已启动但订阅尚未生成时 State 为 publishing，Ready 为 false。
type Status struct {
	State     string    `json:"state"`
	Ready     bool      `json:"ready"`
	Error     string    `json:"error,omitempty"`
	Attempts  int       `json:"attempts"`
	StartedAt time.Time `json:"started_at,omitempty"`
	ReadyAt   time.Time `json:"ready_at,omitempty"`
}

// Bootstrapper 保证初始化流程同一时刻只执行一次。
// Provision 失败进入 Failed，下一次请求会从头重试；
// Publish 失败保持 Ready，下一次请求只重试 Publish。
type Bootstrapper struct {
	pipeline Pipeline
	base     context.Context
	group    singleflight.Group

	mu           sync.RWMutex
	state        State
	subscription string
	lastErr      error
	attempts     int
	startedAt    time.Time
	readyAt      time.Time
}

// NewBootstrapper 的 base 是服务的生命周期 context，初始化在其上执行，
// 与触发它的请求无关。
func NewBootstrapper(base context.Context, pipeline Pipeline) *Bootstrapper {
	return &Bootstrapper{
		pipeline: pipeline,
		base:     base,
	}
}

func (b *Bootstrapper) done() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state == StateReady && b.subscription != ""
}

// Ensure 在需要时触发初始化并等待结果，ctx 取消只会让调用方停止等待
func (b *Bootstrapper) Ensure(ctx context.Context) error {
	if b.done() {
		return nil
	}
	ch := b.group.DoChan("bootstrap", func() (interface{}, error) {
		return nil, b.run()
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bootstrapper) run() error {
	logger := log.WithField("module", "bootstrap")

	b.mu.Lock()
	if b.state == StateReady && b.subscription != "" {
		b.mu.Unlock()
		return nil
	}
	provision := b.state != StateReady
	if provision {
		b.state = StateInitializing
		b.attempts++
		b.startedAt = time.Now()
	}
	attempt := b.attempts
	b.mu.Unlock()

	if provision {
		logger.Infof("开始初始化 (第 %d 次)", attempt)
		if err := b.pipeline.Provision(b.base); err != nil {
			b.mu.Lock()
			b.state = StateFailed
			b.lastErr = err
			b.mu.Unlock()
			logger.Errorf("初始化失败: %v", err)
			return err
		}
		b.mu.Lock()
		b.state = StateReady
		b.readyAt = time.Now()
		b.lastErr = nil
		b.mu.Unlock()
	}

	sub, err := b.pipeline.Publish(b.base)
	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.lastErr = err
		logger.Warnf("生成订阅失败，下次请求时重试: %v", err)
		return err
	}
	b.subscription = sub
	b.lastErr = nil
	logger.Info("订阅已就绪")
	return nil
}

func (b *Bootstrapper) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Subscription 返回缓存的订阅内容，尚未生成时为空
func (b *Bootstrapper) Subscription() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.subscription
}

func (b *Bootstrapper) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	st := Status{
		State:     b.state.String(),
		Ready:     b.state == StateReady && b.subscription != "",
		Attempts:  b.attempts,
		StartedAt: b.startedAt,
		ReadyAt:   b.readyAt,
	}
	if b.state == StateReady && b.subscription == "" {
		st.State = "publishing"
	}
	if b.lastErr != nil {
		st.Error = b.lastErr.Error()
	}
	return st
}
