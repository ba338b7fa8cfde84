package service

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

var ErrDomainNotFound = errors.New("未获取到隧道域名")

var quickTunnelPattern = regexp.MustCompile(`https?://([A-Za-z0-9.-]+\.trycloudflare\.com)`)

// ExtractDomain 从日志内容中找出临时隧道的域名
func ExtractDomain(content string) (string, bool) {
	matches := quickTunnelPattern.FindStringSubmatch(content)
	if len(matches) < 2 {
		return "", false
	}
	return matches[1], true
}

// ExtractDomainFromFile 读取 boot.log 末尾并匹配域名
func ExtractDomainFromFile(path string) (string, error) {
	content, err := readLogWindow(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDomainNotFound, err)
	}
	domain, ok := ExtractDomain(content)
	if !ok {
		return "", ErrDomainNotFound
	}
	return domain, nil
}

// ResolveDomain 优先使用固定域名，否则从 boot.log 中提取
func ResolveDomain(staticDomain, bootLog string) (string, error) {
	if d := strings.TrimSpace(staticDomain); d != "" {
		return d, nil
	}
	return ExtractDomainFromFile(bootLog)
}

func readLogWindow(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", err
	}

	const window int64 = 256 * 1024
	start := int64(0)
	if info.Size() > window {
		start = info.Size() - window
	}
	if _, err := file.Seek(start, io.SeekStart); err != nil {
		return "", err
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
