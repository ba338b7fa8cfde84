package model

// NezhaAgentConfig 哪吒 v1 探针的 config.yaml
type NezhaAgentConfig struct {
	ClientSecret          string `yaml:"client_secret"`
	Debug                 bool   `yaml:"debug"`
	DisableAutoUpdate     bool   `yaml:"disable_auto_update"`
	DisableCommandExecute bool   `yaml:"disable_command_execute"`
	DisableForceUpdate    bool   `yaml:"disable_force_update"`
	DisableNat            bool   `yaml:"disable_nat"`
	DisableSendQuery      bool   `yaml:"disable_send_query"`
	GPU                   bool   `yaml:"gpu"`
	InsecureTLS           bool   `yaml:"insecure_tls"`
	IPReportPeriod        int    `yaml:"ip_report_period"`
	ReportDelay           int    `yaml:"report_delay"`
	Server                string `yaml:"server"`
	SkipConnectionCount   bool   `yaml:"skip_connection_count"`
	SkipProcsCount        bool   `yaml:"skip_procs_count"`
	Temperature           bool   `yaml:"temperature"`
	TLS                   bool   `yaml:"tls"`
	UseGiteeToUpgrade     bool   `yaml:"use_gitee_to_upgrade"`
	UseIPv6CountryCode    bool   `yaml:"use_ipv6_country_code"`
	UUID                  string `yaml:"uuid"`
}

// TunnelConfig 固定隧道（凭证 JSON 模式）的 tunnel.yml
type TunnelConfig struct {
	Tunnel          string          `yaml:"tunnel"`
	CredentialsFile string          `yaml:"credentials-file"`
	Protocol        string          `yaml:"protocol"`
	Ingress         []TunnelIngress `yaml:"ingress"`
}

type TunnelIngress struct {
	Hostname      string         `yaml:"hostname,omitempty"`
	Service       string         `yaml:"service"`
	OriginRequest *OriginRequest `yaml:"originRequest,omitempty"`
}

type OriginRequest struct {
	NoTLSVerify bool `yaml:"noTLSVerify"`
}

// TunnelCredential 是 ARGO_AUTH 中 JSON 凭证里我们关心的部分
type TunnelCredential struct {
	AccountTag   string `json:"AccountTag"`
	TunnelSecret string `json:"TunnelSecret"`
	TunnelID     string `json:"TunnelID"`
}

// VmessLink vmess:// 链接内 base64 编码的 JSON
type VmessLink struct {
	V    string `json:"v"`
	PS   string `json:"ps"`
	Add  string `json:"add"`
	Port int    `json:"port"`
	ID   string `json:"id"`
	Aid  string `json:"aid"`
	Scy  string `json:"scy"`
	Net  string `json:"net"`
	Type string `json:"type"`
	Host string `json:"host"`
	Path string `json:"path"`
	TLS  string `json:"tls"`
	SNI  string `json:"sni"`
	ALPN string `json:"alpn"`
	FP   string `json:"fp"`
}
