package model

// XrayConfig 对应 web 进程读取的 config.json，字段顺序即输出顺序
type XrayConfig struct {
	Log       XrayLog        `json:"log"`
	Inbounds  []XrayInbound  `json:"inbounds"`
	DNS       XrayDNS        `json:"dns"`
	Outbounds []XrayOutbound `json:"outbounds"`
}

type XrayLog struct {
	Access   string `json:"access"`
	Error    string `json:"error"`
	LogLevel string `json:"loglevel"`
}

type XrayInbound struct {
	Port           int                `json:"port"`
	Listen         string             `json:"listen,omitempty"`
	Protocol       string             `json:"protocol"`
	Settings       XrayInboundSetting `json:"settings"`
	StreamSettings XrayStreamSettings `json:"streamSettings"`
	Sniffing       *XraySniffing      `json:"sniffing,omitempty"`
}

type XrayInboundSetting struct {
	Clients    []XrayClient   `json:"clients"`
	Decryption string         `json:"decryption,omitempty"`
	Fallbacks  []XrayFallback `json:"fallbacks,omitempty"`
}

type XrayClient struct {
	ID       string `json:"id,omitempty"`
	Flow     string `json:"flow,omitempty"`
	Level    *int   `json:"level,omitempty"`
	AlterID  *int   `json:"alterId,omitempty"`
	Password string `json:"password,omitempty"`
}

type XrayFallback struct {
	Path string `json:"path,omitempty"`
	Dest int    `json:"dest"`
}

type XrayStreamSettings struct {
	Network    string          `json:"network"`
	Security   string          `json:"security,omitempty"`
	WSSettings *XrayWSSettings `json:"wsSettings,omitempty"`
}

type XrayWSSettings struct {
	Path string `json:"path"`
}

type XraySniffing struct {
	Enabled      bool     `json:"enabled"`
	DestOverride []string `json:"destOverride"`
	MetadataOnly bool     `json:"metadataOnly"`
}

type XrayDNS struct {
	Servers []string `json:"servers"`
}

type XrayOutbound struct {
	Protocol string `json:"protocol"`
	Tag      string `json:"tag"`
}
