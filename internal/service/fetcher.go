package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"argo-mgr/internal/model"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var ErrDownload = errors.New("下载依赖失败")

// Artifact 一个需要下载到工作目录的可执行文件
type Artifact struct {
	Name string
	URL  string
}

// ArtifactList 根据架构与哪吒配置计算需要下载的文件
func ArtifactList(cfg model.Config, arch string) []Artifact {
	return artifactsFrom(fmt.Sprintf(model.ArtifactBaseURL, arch), cfg)
}

func artifactsFrom(base string, cfg model.Config) []Artifact {
	list := []Artifact{
		{Name: model.ArtifactWeb, URL: base + "/web"},
		{Name: model.ArtifactBot, URL: base + "/2go"},
	}
	switch DetectNezhaMode(cfg) {
	case NezhaV0:
		list = append(list, Artifact{Name: model.ArtifactNpm, URL: base + "/agent"})
	case NezhaV1:
		list = append(list, Artifact{Name: model.ArtifactPhp, URL: base + "/v1"})
	}
	return list
}

// ArtifactNames 返回列表中的文件名，用于授权
func ArtifactNames(list []Artifact) []string {
	names := make([]string, 0, len(list))
	for _, a := range list {
		names = append(names, a.Name)
	}
	return names
}

type Fetcher struct {
	dir    string
	client *http.Client
}

func NewFetcher(dir string) *Fetcher {
	return &Fetcher{
		dir: dir,
		client: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// FetchAll 并发下载全部文件；任何一个失败都会取消其余下载并返回错误
func (f *Fetcher) FetchAll(ctx context.Context, list []Artifact) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, a := range list {
		a := a
		g.Go(func() error {
			if err := f.fetch(ctx, a); err != nil {
				log.WithField("module", "fetcher").Errorf("下载 %s 失败: %v", a.Name, err)
				return fmt.Errorf("%w: %s: %v", ErrDownload, a.Name, err)
			}
			log.WithField("module", "fetcher").Infof("已下载 %s", a.Name)
			return nil
		})
	}
	return g.Wait()
}

func (f *Fetcher) fetch(ctx context.Context, a Artifact) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("返回状态码: %d", resp.StatusCode)
	}

	dest := filepath.Join(f.dir, a.Name)
	tmp := dest + ".part"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}

// AuthorizeFiles 为已下载的文件加上可执行权限。单个文件失败只记录日志，返回失败的文件名。
func AuthorizeFiles(dir string, names []string) []string {
	const mode os.FileMode = 0775
	var failed []string
	for _, name := range names {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			log.WithField("module", "fetcher").Warnf("设置权限失败 %s: %v", path, err)
			failed = append(failed, name)
			continue
		}
		if err := os.Chmod(path, mode); err != nil {
			log.WithField("module", "fetcher").Warnf("设置权限失败 %s: %v", path, err)
			failed = append(failed, name)
			continue
		}
		log.WithField("module", "fetcher").Debugf("已设置 %s 权限为 %o", path, mode)
	}
	return failed
}
