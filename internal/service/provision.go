package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"argo-mgr/internal/executor"
	"argo-mgr/internal/model"

	log "github.com/sirupsen/logrus"
)

// Provisioner 把各个步骤串成完整的初始化流程
type Provisioner struct {
	cfg     model.Config
	paths   model.Paths
	arch    string
	baseURL string

	fetcher  *Fetcher
	launcher *Launcher
	uploader *Uploader
}

func NewProvisioner(cfg model.Config, runner executor.Runner, ready Readiness) *Provisioner {
	paths := model.NewPaths(cfg.FilePath)
	arch := ResolveArch(runtime.GOARCH)
	return &Provisioner{
		cfg:      cfg,
		paths:    paths,
		arch:     arch,
		baseURL:  fmt.Sprintf(model.ArtifactBaseURL, arch),
		fetcher:  NewFetcher(paths.Root),
		launcher: NewLauncher(cfg, paths, runner, ready),
		uploader: NewUploader(cfg),
	}
}

func (p *Provisioner) Paths() model.Paths {
	return p.paths
}

func (p *Provisioner) Launcher() *Launcher {
	return p.launcher
}

// Provision 准备工作目录、下载依赖并启动后台进程
func (p *Provisioner) Provision(ctx context.Context) error {
	logger := log.WithField("module", "provision")

	if err := p.uploader.DeleteNodes(ctx, p.paths.Sub); err != nil && !errors.Is(err, ErrUploadSkipped) {
		logger.Warnf("删除旧节点失败: %v", err)
	}

	logger.Infof(">>> 准备工作目录 %s", p.paths.Root)
	if err := EnsureWorkspace(p.paths.Root); err != nil {
		return err
	}

	if err := WriteXrayConfig(p.cfg, p.paths.XrayConfig); err != nil {
		return fmt.Errorf("写入 xray 配置失败: %w", err)
	}

	list := artifactsFrom(p.baseURL, p.cfg)
	logger.Infof(">>> 下载依赖 (%s): %v", p.arch, ArtifactNames(list))
	if err := p.fetcher.FetchAll(ctx, list); err != nil {
		return err
	}
	if failed := AuthorizeFiles(p.paths.Root, ArtifactNames(list)); len(failed) > 0 {
		logger.Warnf("以下文件未能设置执行权限: %v", failed)
	}

	logger.Info(">>> 启动后台进程")
	res, err := p.launcher.Launch(ctx)
	if err != nil {
		return err
	}
	logger.Infof("=== 启动完成: 哪吒 %s, 隧道 %s ===", res.NezhaMode, res.TunnelMode)
	return nil
}

// Publish 生成订阅并写入 sub.txt，上传与保活失败只记录日志
func (p *Provisioner) Publish(ctx context.Context) (string, error) {
	logger := log.WithField("module", "provision")

	domain, err := ResolveDomain(p.cfg.ArgoDomain, p.paths.BootLog)
	if err != nil {
		return "", err
	}
	logger.Infof("隧道域名: %s", domain)

	encoded, err := WriteSubscription(p.cfg, domain, p.paths.Sub)
	if err != nil {
		return "", fmt.Errorf("写入订阅失败: %w", err)
	}
	logger.Infof("订阅已保存到 %s", p.paths.Sub)

	if err := p.uploader.UploadSubscription(ctx); err != nil && !errors.Is(err, ErrUploadSkipped) {
		logger.Warnf("上传订阅失败: %v", err)
	}
	if err := p.uploader.AddVisitTask(ctx); err != nil && !errors.Is(err, ErrUploadSkipped) {
		logger.Warnf("添加自动访问任务失败: %v", err)
	}
	return encoded, nil
}
