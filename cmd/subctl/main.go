package main

import (
	"fmt"
	"os"
	"runtime"

	"argo-mgr/internal/model"
	"argo-mgr/internal/service"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const subctlDesc = `
subctl 用于在不启动服务的情况下检查节点配置。
所有配置均从与服务相同的环境变量读取。
`

func main() {
	if err := newRootCmd(os.LookupEnv).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(lookup service.LookupFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "subctl",
		Short:        "检查代理、探针与隧道的启动配置",
		Long:         subctlDesc,
		SilenceUsage: true,
	}
	cmd.AddCommand(newRenderCmd(lookup))
	cmd.AddCommand(newDecodeCmd(lookup))
	cmd.AddCommand(newArchCmd())
	return cmd
}

type renderCmd struct {
	lookup service.LookupFunc
	print  bool
}

func (r *renderCmd) run(cmd *cobra.Command) error {
	cfg, warnings := service.LoadConfig(r.lookup)
	for _, w := range warnings {
		log.Warn(w)
	}
	for _, f := range service.ValidateConfig(cfg) {
		log.Warnf("配置检查: %s", f)
	}
	out := cmd.OutOrStdout()

	if r.print {
		data, err := service.RenderXrayConfig(cfg)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	paths := model.NewPaths(cfg.FilePath)
	if err := service.EnsureWorkspace(paths.Root); err != nil {
		return err
	}
	if err := service.WriteXrayConfig(cfg, paths.XrayConfig); err != nil {
		return err
	}

	invocations := []service.Invocation{service.XrayInvocation(paths)}
	nezha, ok, err := service.BuildNezhaInvocation(cfg, paths)
	if err != nil {
		return err
	}
	if ok {
		invocations = append(invocations, nezha)
	}
	tunnel, mode, err := service.BuildTunnelInvocation(cfg, paths)
	if err != nil {
		return err
	}
	invocations = append(invocations, tunnel)

	for _, inv := range invocations {
		if err := inv.WriteFiles(); err != nil {
			return err
		}
		fmt.Fprintf(out, "[%s] %s\n", inv.Name, inv.String())
	}
	fmt.Fprintf(out, "哪吒: %s, 隧道: %s, 工作目录: %s\n", service.DetectNezhaMode(cfg), mode, paths.Root)
	return nil
}

func newRenderCmd(lookup service.LookupFunc) *cobra.Command {
	c := &renderCmd{lookup: lookup}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "写入配置文件并输出各进程的启动命令（不执行）",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd)
		},
	}
	cmd.Flags().BoolVarP(&c.print, "print", "p", false, "只输出 config.json 内容，不写入磁盘")
	return cmd
}

func newDecodeCmd(lookup service.LookupFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "decode [file]",
		Short: "解码 sub.txt 并输出节点链接",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				cfg, _ := service.LoadConfig(lookup)
				path = model.NewPaths(cfg.FilePath).Sub
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			links, err := service.DecodeSubscription(string(data))
			if err != nil {
				return fmt.Errorf("解析订阅失败: %w", err)
			}
			for _, link := range links {
				fmt.Fprintln(cmd.OutOrStdout(), link)
			}
			return nil
		},
	}
}

func newArchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "arch",
		Short: "输出本机对应的下载架构",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), service.ResolveArch(runtime.GOARCH))
			return nil
		},
	}
}
