package model

import "path/filepath"

const (
	ArtifactWeb = "web"
	ArtifactBot = "bot"
	ArtifactNpm = "npm"
	ArtifactPhp = "php"
)

// Paths 工作目录下各文件的绝对路径
type Paths struct {
	Root        string
	Web         string
	Bot         string
	Npm         string
	Php         string
	Sub         string
	BootLog     string
	XrayConfig  string
	TunnelYAML  string
	TunnelJSON  string
	NezhaConfig string
}

func NewPaths(root string) Paths {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return Paths{
		Root:        root,
		Web:         filepath.Join(root, ArtifactWeb),
		Bot:         filepath.Join(root, ArtifactBot),
		Npm:         filepath.Join(root, ArtifactNpm),
		Php:         filepath.Join(root, ArtifactPhp),
		Sub:         filepath.Join(root, "sub.txt"),
		BootLog:     filepath.Join(root, "boot.log"),
		XrayConfig:  filepath.Join(root, "config.json"),
		TunnelYAML:  filepath.Join(root, "tunnel.yml"),
		TunnelJSON:  filepath.Join(root, "tunnel.json"),
		NezhaConfig: filepath.Join(root, "config.yaml"),
	}
}

// Artifact 返回下载产物在工作目录中的路径
func (p Paths) Artifact(name string) string {
	return filepath.Join(p.Root, name)
}
