package service

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"argo-mgr/internal/model"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
)

const testUUID = "2b3c4d5e-1111-4222-8333-944455556666"

func testConfig() model.Config {
	return model.Config{
		FilePath: "./tmp",
		SubPath:  "sub",
		Port:     3000,
		UUID:     testUUID,
		ArgoPort: 8001,
		CFIP:     "www.visa.com.sg",
		CFPort:   443,
		Name:     "Vls",
	}
}

func TestRenderXrayConfig(t *testing.T) {
	cfg := testConfig()
	cfg.ArgoPort = 9100

	first, err := RenderXrayConfig(cfg)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	second, _ := RenderXrayConfig(cfg)
	if !bytes.Equal(first, second) {
		t.Fatalf("render is not deterministic")
	}
	if !bytes.HasPrefix(first, []byte("{\n  \"log\": {")) {
		t.Fatalf("unexpected layout: %s", first[:40])
	}

	var doc model.XrayConfig
	if err := json.Unmarshal(first, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	wantPorts := []int{9100, 3001, 3002, 3003, 3004}
	if len(doc.Inbounds) != len(wantPorts) {
		t.Fatalf("inbounds = %d", len(doc.Inbounds))
	}
	for i, port := range wantPorts {
		if doc.Inbounds[i].Port != port {
			t.Fatalf("inbound %d port = %d, want %d", i, doc.Inbounds[i].Port, port)
		}
	}
	entry := doc.Inbounds[0]
	if entry.Settings.Clients[0].ID != testUUID || entry.Settings.Clients[0].Flow != "xtls-rprx-vision" {
		t.Fatalf("unexpected entry client: %+v", entry.Settings.Clients[0])
	}
	if len(entry.Settings.Fallbacks) != 4 || entry.Settings.Fallbacks[2].Path != "/vmess-argo" || entry.Settings.Fallbacks[2].Dest != 3003 {
		t.Fatalf("unexpected fallbacks: %+v", entry.Settings.Fallbacks)
	}
	if doc.Inbounds[4].Settings.Clients[0].Password != testUUID {
		t.Fatalf("trojan password should be uuid")
	}
	if !strings.Contains(string(first), `"alterId": 0`) {
		t.Fatalf("vmess alterId missing")
	}
	if doc.Inbounds[1].Listen != "127.0.0.1" || doc.Inbounds[1].Sniffing != nil {
		t.Fatalf("unexpected tcp fallback inbound: %+v", doc.Inbounds[1])
	}
	if doc.DNS.Servers[0] != "https+local://8.8.8.8/dns-query" || doc.Outbounds[1].Tag != "block" {
		t.Fatalf("unexpected dns/outbounds: %+v %+v", doc.DNS, doc.Outbounds)
	}
}

func TestWriteXrayConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := WriteXrayConfig(testConfig(), path); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want, _ := RenderXrayConfig(testConfig())
	if !bytes.Equal(data, want) {
		t.Fatalf("file content differs from render")
	}
}

func TestNezhaInvocation(t *testing.T) {
	paths := model.NewPaths(t.TempDir())

	cfg := testConfig()
	if _, ok, err := BuildNezhaInvocation(cfg, paths); ok || err != nil {
		t.Fatalf("nezha should be skipped without server/key")
	}

	cfg.NezhaServer = "nz.example.com"
	cfg.NezhaKey = "secret"
	cfg.NezhaPort = "443"
	inv, ok, err := BuildNezhaInvocation(cfg, paths)
	if err != nil || !ok {
		t.Fatalf("v0 invocation: ok=%v err=%v", ok, err)
	}
	got := strings.Join(inv.Args, " ")
	want := "-s nz.example.com:443 -p secret --tls --disable-auto-update --report-delay 4 --skip-conn --skip-procs"
	if got != want || inv.Path != paths.Npm {
		t.Fatalf("v0 args = %q (%s)", got, inv.Path)
	}

	cfg.NezhaPort = "5555"
	inv, _, _ = BuildNezhaInvocation(cfg, paths)
	for _, arg := range inv.Args {
		if arg == "--tls" {
			t.Fatalf("--tls should only be added for tls ports")
		}
	}

	cfg.NezhaPort = ""
	cfg.NezhaServer = "nz.example.com:8443"
	inv, ok, err = BuildNezhaInvocation(cfg, paths)
	if err != nil || !ok {
		t.Fatalf("v1 invocation: ok=%v err=%v", ok, err)
	}
	if inv.Path != paths.Php || strings.Join(inv.Args, " ") != "-c "+paths.NezhaConfig {
		t.Fatalf("unexpected v1 invocation: %s", inv.String())
	}
	if len(inv.Files) != 1 || inv.Files[0].Perm != 0600 {
		t.Fatalf("v1 should write config.yaml: %+v", inv.Files)
	}
	var agent model.NezhaAgentConfig
	if err := yaml.Unmarshal(inv.Files[0].Data, &agent); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if !agent.TLS || agent.Server != "nz.example.com:8443" || agent.ClientSecret != "secret" || agent.UUID != testUUID {
		t.Fatalf("unexpected agent config: %+v", agent)
	}
}

func TestDetectTunnelMode(t *testing.T) {
	token := strings.Repeat("a", 150)
	cases := map[string]TunnelMode{
		token:                          TunnelToken,
		strings.Repeat("b", 119):       TunnelQuick,
		strings.Repeat("c", 251):       TunnelQuick,
		`{"TunnelSecret":"s"}`:         TunnelCredential,
		"":                             TunnelQuick,
		token[:100] + "-" + token[:50]: TunnelQuick,
	}
	for auth, want := range cases {
		if got := DetectTunnelMode(auth); got != want {
			t.Fatalf("DetectTunnelMode(%.20q) = %s, want %s", auth, got, want)
		}
	}
}

func TestTunnelInvocation(t *testing.T) {
	paths := model.NewPaths(t.TempDir())

	cfg := testConfig()
	inv, mode, err := BuildTunnelInvocation(cfg, paths)
	if err != nil || mode != TunnelQuick {
		t.Fatalf("quick: mode=%s err=%v", mode, err)
	}
	got := strings.Join(inv.Args, " ")
	if !strings.Contains(got, "--logfile "+paths.BootLog) || !strings.HasSuffix(got, "--url http://localhost:8001") {
		t.Fatalf("quick args = %q", got)
	}

	cfg.ArgoAuth = strings.Repeat("Z", 150)
	inv, mode, _ = BuildTunnelInvocation(cfg, paths)
	if mode != TunnelToken || inv.Args[len(inv.Args)-1] != cfg.ArgoAuth || inv.Args[len(inv.Args)-2] != "--token" {
		t.Fatalf("token args = %v", inv.Args)
	}

	cfg.ArgoDomain = "node.example.com"
	cfg.ArgoAuth = `{"AccountTag":"acc","TunnelSecret":"sec","TunnelID":"tid-1"}`
	inv, mode, err = BuildTunnelInvocation(cfg, paths)
	if err != nil || mode != TunnelCredential {
		t.Fatalf("credential: mode=%s err=%v", mode, err)
	}
	if len(inv.Files) != 2 || string(inv.Files[0].Data) != cfg.ArgoAuth {
		t.Fatalf("credential files: %+v", inv.Files)
	}
	var tc model.TunnelConfig
	if err := yaml.Unmarshal(inv.Files[1].Data, &tc); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if tc.Tunnel != "tid-1" || tc.CredentialsFile != paths.TunnelJSON || len(tc.Ingress) != 2 {
		t.Fatalf("unexpected tunnel config: %+v", tc)
	}
	if tc.Ingress[0].Hostname != "node.example.com" || tc.Ingress[0].Service != "http://localhost:8001" || !tc.Ingress[0].OriginRequest.NoTLSVerify {
		t.Fatalf("unexpected ingress: %+v", tc.Ingress[0])
	}
	if tc.Ingress[1].Service != "http_status:404" {
		t.Fatalf("missing catch-all ingress")
	}
	if err := inv.WriteFiles(); err != nil {
		t.Fatalf("write files: %v", err)
	}
	if info, err := os.Stat(paths.TunnelJSON); err != nil || info.Mode().Perm() != 0600 {
		t.Fatalf("tunnel.json not written with 0600: %v", err)
	}

	cfg.ArgoAuth = `{"TunnelSecret": broken`
	if _, _, err := BuildTunnelInvocation(cfg, paths); !errors.Is(err, ErrInvalidTunnelCredential) {
		t.Fatalf("expected ErrInvalidTunnelCredential, got %v", err)
	}
}
