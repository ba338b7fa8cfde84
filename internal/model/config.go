package model

const (
	DefaultFilePath = "./tmp"
	DefaultSubPath  = "sub"
	DefaultPort     = 3000
	DefaultUUID     = "f877479a-4548-4d81-b292-e5d76cb1b8e9"
	DefaultArgoPort = 8001
	DefaultCFIP     = "www.visa.com.sg"
	DefaultCFPort   = 443
	DefaultName     = "Vls"

	// 下载地址形如 https://amd64.ssss.nyc.mn/web
	ArtifactBaseURL = "https://%s.ssss.nyc.mn"

	VisitTaskURL = "https://oooo.serv00.net/add-url"
)

// 回落监听端口，固定绑定在 127.0.0.1
const (
	FallbackPortTCP    = 3001
	FallbackPortVless  = 3002
	FallbackPortVmess  = 3003
	FallbackPortTrojan = 3004
)

const (
	VlessPath  = "/vless-argo"
	VmessPath  = "/vmess-argo"
	TrojanPath = "/trojan-argo"
)

// 哪吒面板常见的 TLS 端口
var NezhaTLSPorts = map[string]bool{
	"443":  true,
	"8443": true,
	"2096": true,
	"2087": true,
	"2083": true,
	"2053": true,
}

// Config 在进程生命周期内只加载一次，之后不再修改
type Config struct {
	UploadURL   string `json:"upload_url" validate:"omitempty,url"`
	ProjectURL  string `json:"project_url" validate:"omitempty,url"`
	AutoAccess  bool   `json:"auto_access"`
	FilePath    string `json:"file_path" validate:"required"`
	SubPath     string `json:"sub_path" validate:"required,excludes=/,excludesall=:*"`
	Port        int    `json:"port" validate:"min=1,max=65535"`
	UUID        string `json:"uuid" validate:"required"`
	NezhaServer string `json:"nezha_server"`
	NezhaPort   string `json:"nezha_port" validate:"omitempty,numeric"`
	NezhaKey    string `json:"nezha_key"`
	ArgoDomain  string `json:"argo_domain" validate:"omitempty,hostname"`
	ArgoAuth    string `json:"argo_auth"`
	ArgoPort    int    `json:"argo_port" validate:"min=1,max=65535"`
	CFIP        string `json:"cfip" validate:"required"`
	CFPort      int    `json:"cfport" validate:"min=1,max=65535"`
	Name        string `json:"name"`

	LogLevel     string `json:"log_level"`
	StrictConfig bool   `json:"strict_config"`
}

// NezhaEnabled 服务器与密钥同时配置时才启动哪吒探针
func (c Config) NezhaEnabled() bool {
	return c.NezhaServer != "" && c.NezhaKey != ""
}
