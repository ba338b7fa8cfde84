package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"argo-mgr/internal/model"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
)

var ErrInvalidTunnelCredential = errors.New("隧道凭证无效")

type TunnelMode int

const (
	// TunnelQuick 临时隧道，域名从 boot.log 中获取
	TunnelQuick TunnelMode = iota
	TunnelToken
	TunnelCredential
)

func (m TunnelMode) String() string {
	switch m {
	case TunnelToken:
		return "token"
	case TunnelCredential:
		return "credential"
	default:
		return "quick"
	}
}

var tunnelTokenPattern = regexp.MustCompile(`^[A-Za-z0-9=]{120,250}$`)

func DetectTunnelMode(auth string) TunnelMode {
	switch {
	case tunnelTokenPattern.MatchString(auth):
		return TunnelToken
	case strings.Contains(auth, "TunnelSecret"):
		return TunnelCredential
	default:
		return TunnelQuick
	}
}

// BuildTunnelConfig 解析 JSON 凭证并生成 tunnel.yml 的内容
func BuildTunnelConfig(cfg model.Config, paths model.Paths) (model.TunnelConfig, error) {
	var cred model.TunnelCredential
	if err := json.Unmarshal([]byte(cfg.ArgoAuth), &cred); err != nil {
		return model.TunnelConfig{}, fmt.Errorf("%w: %v", ErrInvalidTunnelCredential, err)
	}
	if cred.TunnelID == "" {
		return model.TunnelConfig{}, fmt.Errorf("%w: 缺少 TunnelID", ErrInvalidTunnelCredential)
	}
	return model.TunnelConfig{
		Tunnel:          cred.TunnelID,
		CredentialsFile: paths.TunnelJSON,
		Protocol:        "http2",
		Ingress: []model.TunnelIngress{
			{
				Hostname:      cfg.ArgoDomain,
				Service:       fmt.Sprintf("http://localhost:%d", cfg.ArgoPort),
				OriginRequest: &model.OriginRequest{NoTLSVerify: true},
			},
			{Service: "http_status:404"},
		},
	}, nil
}

func BuildTunnelInvocation(cfg model.Config, paths model.Paths) (Invocation, TunnelMode, error) {
	mode := DetectTunnelMode(cfg.ArgoAuth)
	inv := Invocation{Name: "tunnel", Path: paths.Bot}

	switch mode {
	case TunnelToken:
		inv.Args = []string{
			"tunnel", "--edge-ip-version", "auto", "--no-autoupdate", "--protocol", "http2",
			"run", "--token", cfg.ArgoAuth,
		}
	case TunnelCredential:
		tc, err := BuildTunnelConfig(cfg, paths)
		if err != nil {
			return Invocation{}, mode, err
		}
		data, err := yaml.Marshal(tc)
		if err != nil {
			return Invocation{}, mode, err
		}
		inv.Files = []GeneratedFile{
			{Path: paths.TunnelJSON, Data: []byte(cfg.ArgoAuth), Perm: 0600},
			{Path: paths.TunnelYAML, Data: data, Perm: 0644},
		}
		inv.Args = []string{"tunnel", "--edge-ip-version", "auto", "--config", paths.TunnelYAML, "run"}
	default:
		inv.Args = []string{
			"tunnel", "--edge-ip-version", "auto", "--no-autoupdate", "--protocol", "http2",
			"--logfile", paths.BootLog, "--loglevel", "info",
			"--url", fmt.Sprintf("http://localhost:%d", cfg.ArgoPort),
		}
	}
	return inv, mode, nil
}
