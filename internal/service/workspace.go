package service

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

var ErrWorkspace = errors.New("工作目录不可用")

// EnsureWorkspace 创建工作目录（含父目录），目录已存在时直接返回
func EnsureWorkspace(root string) error {
	if strings.TrimSpace(root) == "" {
		return fmt.Errorf("%w: 路径为空", ErrWorkspace)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrWorkspace, err)
	}
	return nil
}

// ResolveArch 把 GOARCH 映射为下载目录名，未知架构一律按 amd64 处理
func ResolveArch(goarch string) string {
	switch goarch {
	case "arm", "arm64", "aarch64":
		return "arm64"
	default:
		return "amd64"
	}
}
