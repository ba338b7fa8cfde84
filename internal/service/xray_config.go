package service

import (
	"os"

	"argo-mgr/internal/model"

	"github.com/goccy/go-json"
)

func intPtr(v int) *int { return &v }

func sniffing() *model.XraySniffing {
	return &model.XraySniffing{
		Enabled:      true,
		DestOverride: []string{"http", "tls", "quic"},
		MetadataOnly: false,
	}
}

// BuildXrayConfig 生成代理服务端配置，结构固定，只有 UUID 与入口端口随配置变化
func BuildXrayConfig(cfg model.Config) model.XrayConfig {
	return model.XrayConfig{
		Log: model.XrayLog{Access: "/dev/null", Error: "/dev/null", LogLevel: "none"},
		Inbounds: []model.XrayInbound{
			{
				Port:     cfg.ArgoPort,
				Protocol: "vless",
				Settings: model.XrayInboundSetting{
					Clients:    []model.XrayClient{{ID: cfg.UUID, Flow: "xtls-rprx-vision"}},
					Decryption: "none",
					Fallbacks: []model.XrayFallback{
						{Dest: model.FallbackPortTCP},
						{Path: model.VlessPath, Dest: model.FallbackPortVless},
						{Path: model.VmessPath, Dest: model.FallbackPortVmess},
						{Path: model.TrojanPath, Dest: model.FallbackPortTrojan},
					},
				},
				StreamSettings: model.XrayStreamSettings{Network: "tcp"},
			},
			{
				Port:     model.FallbackPortTCP,
				Listen:   "127.0.0.1",
				Protocol: "vless",
				Settings: model.XrayInboundSetting{
					Clients:    []model.XrayClient{{ID: cfg.UUID}},
					Decryption: "none",
				},
				StreamSettings: model.XrayStreamSettings{Network: "tcp", Security: "none"},
			},
			{
				Port:     model.FallbackPortVless,
				Listen:   "127.0.0.1",
				Protocol: "vless",
				Settings: model.XrayInboundSetting{
					Clients:    []model.XrayClient{{ID: cfg.UUID, Level: intPtr(0)}},
					Decryption: "none",
				},
				StreamSettings: model.XrayStreamSettings{
					Network:    "ws",
					Security:   "none",
					WSSettings: &model.XrayWSSettings{Path: model.VlessPath},
				},
				Sniffing: sniffing(),
			},
			{
				Port:     model.FallbackPortVmess,
				Listen:   "127.0.0.1",
				Protocol: "vmess",
				Settings: model.XrayInboundSetting{
					Clients: []model.XrayClient{{ID: cfg.UUID, AlterID: intPtr(0)}},
				},
				StreamSettings: model.XrayStreamSettings{
					Network:    "ws",
					WSSettings: &model.XrayWSSettings{Path: model.VmessPath},
				},
				Sniffing: sniffing(),
			},
			{
				Port:     model.FallbackPortTrojan,
				Listen:   "127.0.0.1",
				Protocol: "trojan",
				Settings: model.XrayInboundSetting{
					Clients: []model.XrayClient{{Password: cfg.UUID}},
				},
				StreamSettings: model.XrayStreamSettings{
					Network:    "ws",
					Security:   "none",
					WSSettings: &model.XrayWSSettings{Path: model.TrojanPath},
				},
				Sniffing: sniffing(),
			},
		},
		DNS: model.XrayDNS{Servers: []string{"https+local://8.8.8.8/dns-query"}},
		Outbounds: []model.XrayOutbound{
			{Protocol: "freedom", Tag: "direct"},
			{Protocol: "blackhole", Tag: "block"},
		},
	}
}

// RenderXrayConfig 序列化为两空格缩进的 JSON
func RenderXrayConfig(cfg model.Config) ([]byte, error) {
	return json.MarshalIndent(BuildXrayConfig(cfg), "", "  ")
}

func WriteXrayConfig(cfg model.Config, path string) error {
	data, err := RenderXrayConfig(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
