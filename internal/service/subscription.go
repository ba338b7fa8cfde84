package service

import (
	"encoding/base64"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"argo-mgr/internal/model"

	"github.com/goccy/go-json"
)

// 无法在该托管环境中探测运营商，节点名后缀使用固定占位
const ispPlaceholder = "Unknown"

const linkPathSuffix = "?ed=2560"

func nodeName(cfg model.Config) string {
	if cfg.Name == "" {
		return ispPlaceholder
	}
	return cfg.Name + "-" + ispPlaceholder
}

func wsLink(scheme string, cfg model.Config, domain, path string, extra url.Values) string {
	query := url.Values{}
	for k, v := range extra {
		query[k] = v
	}
	query.Set("security", "tls")
	query.Set("sni", domain)
	query.Set("fp", "chrome")
	query.Set("type", "ws")
	query.Set("host", domain)
	query.Set("path", path+linkPathSuffix)

	u := url.URL{
		Scheme:   scheme,
		User:     url.User(cfg.UUID),
		Host:     net.JoinHostPort(cfg.CFIP, strconv.Itoa(cfg.CFPort)),
		RawQuery: query.Encode(),
		Fragment: nodeName(cfg),
	}
	return u.String()
}

func VlessLink(cfg model.Config, domain string) string {
	return wsLink("vless", cfg, domain, model.VlessPath, url.Values{"encryption": {"none"}})
}

func TrojanLink(cfg model.Config, domain string) string {
	return wsLink("trojan", cfg, domain, model.TrojanPath, nil)
}

func VmessLink(cfg model.Config, domain string) (string, error) {
	doc := model.VmessLink{
		V:    "2",
		PS:   nodeName(cfg),
		Add:  cfg.CFIP,
		Port: cfg.CFPort,
		ID:   cfg.UUID,
		Aid:  "0",
		Scy:  "none",
		Net:  "ws",
		Type: "none",
		Host: domain,
		Path: model.VmessPath + linkPathSuffix,
		TLS:  "tls",
		SNI:  domain,
		ALPN: "",
		FP:   "chrome",
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return "vmess://" + base64.StdEncoding.EncodeToString(data), nil
}

// BuildSubscription 生成三条节点链接，以空行分隔
func BuildSubscription(cfg model.Config, domain string) (string, error) {
	vmess, err := VmessLink(cfg, domain)
	if err != nil {
		return "", err
	}
	links := []string{VlessLink(cfg, domain), vmess, TrojanLink(cfg, domain)}
	return strings.Join(links, "\n\n"), nil
}

func EncodeSubscription(text string) string {
	return base64.StdEncoding.EncodeToString([]byte(text))
}

// DecodeSubscription 解码订阅内容并返回其中的链接
func DecodeSubscription(encoded string) ([]string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, err
	}
	var links []string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			links = append(links, line)
		}
	}
	return links, nil
}

// WriteSubscription 生成、编码并写入 sub.txt，返回编码后的内容
func WriteSubscription(cfg model.Config, domain, path string) (string, error) {
	text, err := BuildSubscription(cfg, domain)
	if err != nil {
		return "", err
	}
	encoded := EncodeSubscription(text)
	if err := os.WriteFile(path, []byte(encoded), 0644); err != nil {
		return "", err
	}
	return encoded, nil
}
