package service

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"argo-mgr/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var ErrInsecureConfig = errors.New("配置存在安全隐患")

// LookupFunc 与 os.LookupEnv 签名一致
type LookupFunc func(key string) (string, bool)

// LoadConfig 从环境变量读取配置，缺失或无法解析的值回落到默认值。
// 返回的 warnings 记录了被忽略的非法取值。
func LoadConfig(lookup LookupFunc) (model.Config, []string) {
	var warnings []string
	str := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}
	num := func(key string, def int) int {
		v, ok := lookup(key)
		if !ok || v == "" {
			return def
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s=%q 不是有效数字，使用默认值 %d", key, v, def))
			return def
		}
		return n
	}
	flag := func(key string) bool {
		v, _ := lookup(key)
		return v == "true"
	}

	cfg := model.Config{
		UploadURL:    strings.TrimRight(str("UPLOAD_URL", ""), "/"),
		ProjectURL:   strings.TrimRight(str("PROJECT_URL", ""), "/"),
		AutoAccess:   flag("AUTO_ACCESS"),
		FilePath:     str("FILE_PATH", model.DefaultFilePath),
		SubPath:      strings.Trim(str("SUB_PATH", model.DefaultSubPath), "/"),
		Port:         num("PORT", model.DefaultPort),
		UUID:         str("UUID", model.DefaultUUID),
		NezhaServer:  str("NEZHA_SERVER", ""),
		NezhaPort:    str("NEZHA_PORT", ""),
		NezhaKey:     str("NEZHA_KEY", ""),
		ArgoDomain:   str("ARGO_DOMAIN", ""),
		ArgoAuth:     str("ARGO_AUTH", ""),
		ArgoPort:     num("ARGO_PORT", model.DefaultArgoPort),
		CFIP:         str("CFIP", model.DefaultCFIP),
		CFPort:       num("CFPORT", model.DefaultCFPort),
		Name:         str("NAME", model.DefaultName),
		LogLevel:     str("LOG_LEVEL", "info"),
		StrictConfig: flag("STRICT_CONFIG"),
	}
	if cfg.SubPath == "" {
		cfg.SubPath = model.DefaultSubPath
	}
	if reservedSubPath(cfg.SubPath) {
		warnings = append(warnings, fmt.Sprintf("SUB_PATH=%q 与内置路由冲突或含有通配符，使用默认值 %s", cfg.SubPath, model.DefaultSubPath))
		cfg.SubPath = model.DefaultSubPath
	}
	return cfg, warnings
}

// reservedSubPath 订阅路径不能占用 /healthz，也不能含有 gin 的通配符
func reservedSubPath(p string) bool {
	return p == HealthzPath || strings.ContainsAny(p, ":*")
}

// ValidateConfig 检查字段格式并标记不安全的默认值。
// 返回的每一项都应以警告级别记录；StrictConfig 时由调用方决定是否终止启动。
func ValidateConfig(cfg model.Config) []string {
	var findings []string

	if err := validator.New().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				findings = append(findings, fmt.Sprintf("字段 %s 未通过校验 (%s)", fe.Field(), fe.Tag()))
			}
		} else {
			findings = append(findings, err.Error())
		}
	}

	if _, err := uuid.Parse(cfg.UUID); err != nil {
		findings = append(findings, fmt.Sprintf("UUID %q 格式无效", cfg.UUID))
	}
	if cfg.UUID == model.DefaultUUID {
		findings = append(findings, "UUID 使用了公开的默认值，请通过环境变量 UUID 设置")
	}
	if (cfg.NezhaServer == "") != (cfg.NezhaKey == "") {
		findings = append(findings, "NEZHA_SERVER 与 NEZHA_KEY 需同时设置，哪吒探针将不会启动")
	}
	if cfg.NezhaEnabled() && cfg.NezhaPort == "" {
		if _, _, err := net.SplitHostPort(cfg.NezhaServer); err != nil {
			findings = append(findings, "哪吒 v1 需要 NEZHA_SERVER 形如 host:port")
		}
	}
	if strings.Contains(cfg.ArgoAuth, "TunnelSecret") && cfg.ArgoDomain == "" {
		findings = append(findings, "使用隧道凭证 JSON 时需要设置 ARGO_DOMAIN")
	}
	if cfg.AutoAccess && cfg.ProjectURL == "" {
		findings = append(findings, "AUTO_ACCESS 需要同时设置 PROJECT_URL")
	}
	return findings
}
