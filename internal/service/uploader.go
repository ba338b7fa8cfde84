package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"argo-mgr/internal/model"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

var ErrUploadSkipped = errors.New("未配置上传地址")

var nodeSchemes = []string{"vless://", "vmess://", "trojan://", "hysteria2://", "tuic://"}

type Uploader struct {
	uploadURL  string
	projectURL string
	subPath    string
	autoAccess bool
	visitURL   string
	client     *http.Client
}

func NewUploader(cfg model.Config) *Uploader {
	return &Uploader{
		uploadURL:  strings.TrimRight(cfg.UploadURL, "/"),
		projectURL: strings.TrimRight(cfg.ProjectURL, "/"),
		subPath:    cfg.SubPath,
		autoAccess: cfg.AutoAccess,
		visitURL:   model.VisitTaskURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SubscriptionURL 对外公布的订阅地址
func (u *Uploader) SubscriptionURL() string {
	return fmt.Sprintf("%s/%s", u.projectURL, u.subPath)
}

// UploadSubscription 把订阅地址提交到汇总服务。400 表示已存在，按成功处理。
func (u *Uploader) UploadSubscription(ctx context.Context) error {
	if u.uploadURL == "" || u.projectURL == "" {
		return ErrUploadSkipped
	}
	payload := map[string][]string{
		"subscription": {u.SubscriptionURL()},
	}
	status, err := u.postJSON(ctx, u.uploadURL+"/api/add-subscriptions", payload)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusOK:
		log.WithField("module", "uploader").Info("订阅上传成功")
	case http.StatusBadRequest:
		log.WithField("module", "uploader").Info("订阅已存在")
	default:
		return fmt.Errorf("汇总服务返回状态码: %d", status)
	}
	return nil
}

// AddVisitTask 向保活服务登记项目地址
func (u *Uploader) AddVisitTask(ctx context.Context) error {
	if !u.autoAccess || u.projectURL == "" {
		return ErrUploadSkipped
	}
	status, err := u.postJSON(ctx, u.visitURL, map[string]string{"url": u.projectURL})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("保活服务返回状态码: %d", status)
	}
	log.WithField("module", "uploader").Info("自动访问任务添加成功")
	return nil
}

// DeleteNodes 读取上一次运行留下的 sub.txt，通知汇总服务删除其中的节点
func (u *Uploader) DeleteNodes(ctx context.Context, subFile string) error {
	if u.uploadURL == "" {
		return ErrUploadSkipped
	}
	data, err := os.ReadFile(subFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	links, err := DecodeSubscription(string(data))
	if err != nil {
		return fmt.Errorf("解析旧订阅失败: %w", err)
	}
	var nodes []string
	for _, link := range links {
		for _, scheme := range nodeSchemes {
			if strings.HasPrefix(link, scheme) {
				nodes = append(nodes, link)
				break
			}
		}
	}
	if len(nodes) == 0 {
		return nil
	}
	status, err := u.postJSON(ctx, u.uploadURL+"/api/delete-nodes", map[string][]string{"nodes": nodes})
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("汇总服务返回状态码: %d", status)
	}
	return nil
}

func (u *Uploader) postJSON(ctx context.Context, target string, payload interface{}) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
