package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"argo-mgr/internal/executor"
	"argo-mgr/internal/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, warnings := service.LoadConfig(os.LookupEnv)
	setupLogging(cfg.LogLevel)
	for _, w := range warnings {
		log.Warn(w)
	}
	findings := service.ValidateConfig(cfg)
	for _, f := range findings {
		log.Warnf("配置检查: %s", f)
	}
	if cfg.StrictConfig && len(findings) > 0 {
		log.Fatalf("%v: 共 %d 项问题，已启用 STRICT_CONFIG", service.ErrInsecureConfig, len(findings))
	}

	// 子进程跟随 base 的生命周期，收到信号后先优雅停止再取消
	base, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	provisioner := service.NewProvisioner(cfg, executor.ExecRunner{}, service.DefaultReadiness())
	boot := service.NewBootstrapper(base, provisioner)
	r := newRouter(boot, cfg.SubPath, provisioner.Launcher().Processes)

	srv := newServer(cfg.Port, r)
	go func() {
		log.Infof("HTTP 服务已启动，端口 %d，订阅路径 /%s", cfg.Port, cfg.SubPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP 服务异常退出: %v", err)
		}
	}()

	sig, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sig.Done()

	log.Info("正在关闭服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("HTTP 服务关闭失败: %v", err)
	}
	provisioner.Launcher().StopAll()
	cancelBase()
	log.Info("已退出")
}

func newServer(port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func setupLogging(level string) {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("无效的 LOG_LEVEL %q，使用 info", level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

func newRouter(boot *service.Bootstrapper, subPath string, processes func() []executor.ProcessInfo) *gin.Engine {
	r := gin.Default()

	// 健康检查不触发初始化
	r.GET("/"+service.HealthzPath, func(c *gin.Context) {
		st := boot.Status()
		code := http.StatusOK
		if !st.Ready {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"state":     st.State,
			"ready":     st.Ready,
			"error":     st.Error,
			"attempts":  st.Attempts,
			"processes": processes(),
		})
	})

	app := r.Group("/", ensureMiddleware(boot))
	app.GET("/"+subPath, func(c *gin.Context) {
		sub := boot.Subscription()
		if sub == "" {
			c.String(http.StatusServiceUnavailable, "订阅生成中，请稍后重试")
			return
		}
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(sub))
	})

	r.NoRoute(ensureMiddleware(boot), func(c *gin.Context) {
		c.String(http.StatusOK, "Hello world!")
	})
	return r
}

// ensureMiddleware 每个请求都会确认初始化已完成，失败时请求照常处理
func ensureMiddleware(boot *service.Bootstrapper) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := boot.Ensure(c.Request.Context()); err != nil {
			log.WithField("module", "http").Debugf("初始化未完成: %v", err)
		}
		c.Next()
	}
}
