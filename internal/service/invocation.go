package service

import (
	"fmt"
	"os"
	"strings"

	"argo-mgr/internal/executor"
	"argo-mgr/internal/model"
)

// GeneratedFile 启动前需要写入磁盘的配置文件
type GeneratedFile struct {
	Path string
	Data []byte
	Perm os.FileMode
}

// Invocation 描述对某个外部程序的一次调用，构造时没有任何副作用
type Invocation struct {
	Name  string
	Path  string
	Args  []string
	Files []GeneratedFile
}

func (inv Invocation) WriteFiles() error {
	for _, f := range inv.Files {
		perm := f.Perm
		if perm == 0 {
			perm = 0644
		}
		if err := os.WriteFile(f.Path, f.Data, perm); err != nil {
			return fmt.Errorf("写入 %s 失败: %w", f.Path, err)
		}
	}
	return nil
}

func (inv Invocation) Command(dir string) executor.Command {
	return executor.Command{
		Name: inv.Name,
		Path: inv.Path,
		Args: inv.Args,
		Dir:  dir,
	}
}

// String 输出便于阅读的命令行，仅用于日志与 subctl
func (inv Invocation) String() string {
	var builder strings.Builder
	builder.WriteString(inv.Path)
	for _, arg := range inv.Args {
		builder.WriteString(" ")
		if strings.ContainsAny(arg, " \t\"'") {
			builder.WriteString(fmt.Sprintf("%q", arg))
		} else {
			builder.WriteString(arg)
		}
	}
	return builder.String()
}

func XrayInvocation(paths model.Paths) Invocation {
	return Invocation{
		Name: "xray",
		Path: paths.Web,
		Args: []string{"-c", paths.XrayConfig},
	}
}
