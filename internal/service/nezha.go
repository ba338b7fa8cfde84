package service

import (
	"fmt"
	"strings"

	"argo-mgr/internal/model"

	"github.com/goccy/go-yaml"
)

type NezhaMode int

const (
	NezhaNone NezhaMode = iota
	// NezhaV0 旧版探针，参数通过命令行传入
	NezhaV0
	// NezhaV1 新版探针，读取 config.yaml
	NezhaV1
)

func (m NezhaMode) String() string {
	switch m {
	case NezhaV0:
		return "v0"
	case NezhaV1:
		return "v1"
	default:
		return "none"
	}
}

// DetectNezhaMode 有 NEZHA_PORT 时使用 v0，否则使用 v1
func DetectNezhaMode(cfg model.Config) NezhaMode {
	if !cfg.NezhaEnabled() {
		return NezhaNone
	}
	if cfg.NezhaPort != "" {
		return NezhaV0
	}
	return NezhaV1
}

// serverPort 取 host:port 中的端口部分
func serverPort(server string) string {
	idx := strings.LastIndex(server, ":")
	if idx < 0 {
		return ""
	}
	return server[idx+1:]
}

func BuildNezhaAgentConfig(cfg model.Config) model.NezhaAgentConfig {
	return model.NezhaAgentConfig{
		ClientSecret:       cfg.NezhaKey,
		Debug:              false,
		DisableAutoUpdate:  true,
		DisableForceUpdate: true,
		IPReportPeriod:     1800,
		ReportDelay:        1,
		Server:             cfg.NezhaServer,
		TLS:                model.NezhaTLSPorts[serverPort(cfg.NezhaServer)],
		UUID:               cfg.UUID,
	}
}

// BuildNezhaInvocation 返回探针的启动方式；未配置哪吒时 ok 为 false
func BuildNezhaInvocation(cfg model.Config, paths model.Paths) (inv Invocation, ok bool, err error) {
	switch DetectNezhaMode(cfg) {
	case NezhaV0:
		args := []string{
			"-s", fmt.Sprintf("%s:%s", cfg.NezhaServer, cfg.NezhaPort),
			"-p", cfg.NezhaKey,
		}
		if model.NezhaTLSPorts[cfg.NezhaPort] {
			args = append(args, "--tls")
		}
		args = append(args, "--disable-auto-update", "--report-delay", "4", "--skip-conn", "--skip-procs")
		return Invocation{Name: "nezha", Path: paths.Npm, Args: args}, true, nil
	case NezhaV1:
		data, err := yaml.Marshal(BuildNezhaAgentConfig(cfg))
		if err != nil {
			return Invocation{}, false, err
		}
		return Invocation{
			Name:  "nezha",
			Path:  paths.Php,
			Args:  []string{"-c", paths.NezhaConfig},
			Files: []GeneratedFile{{Path: paths.NezhaConfig, Data: data, Perm: 0600}},
		}, true, nil
	default:
		return Invocation{}, false, nil
	}
}
