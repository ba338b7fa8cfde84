package executor

import (
	"context"
	"errors"
	"net"
	"time"
)

var ErrTimeout = errors.New("等待超时")

// Poll 每隔 interval 调用一次 cond，直到其返回 true、返回错误、超时或 ctx 结束
func Poll(ctx context.Context, interval, timeout time.Duration, cond func() (bool, error)) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := cond()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrTimeout
		case <-ticker.C:
		}
	}
}

// WaitForPort 等待 addr 可以建立 TCP 连接
func WaitForPort(ctx context.Context, addr string, interval, timeout time.Duration) error {
	dialer := net.Dialer{Timeout: interval}
	return Poll(ctx, interval, timeout, func() (bool, error) {
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return false, nil
		}
		conn.Close()
		return true, nil
	})
}
