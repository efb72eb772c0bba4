package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mdp/qrterminal/v3"
	"github.com/sirupsen/logrus"

	"github.com/rayan-1005/skyhook/internal/adapters/localstorage"
	"github.com/rayan-1005/skyhook/internal/adapters/server"
	"github.com/rayan-1005/skyhook/internal/config"
	"github.com/rayan-1005/skyhook/internal/domain"
	"github.com/rayan-1005/skyhook/internal/security"
	"github.com/rayan-1005/skyhook/internal/usecases"
)

// shutdownTimeout максимум на корректное завершение открытых соединений,
// чтобы не зависнуть навсегда при выключении.
const shutdownTimeout = 5 * time.Second

func main() {
	var (
		configPath  = flag.String("config", "", "path to optional skyhook.yaml")
		host        = flag.String("host", "0.0.0.0", "host interface to bind to")
		port        = flag.Int("port", 8000, "port to bind to")
		auth        = flag.String("auth", "", "enable authentication (format: username:password)")
		ssl         = flag.Bool("ssl", false, "enable HTTPS with a self-signed certificate")
		qr          = flag.Bool("qr", false, "print a QR code of the share URL")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("skyhook v" + domain.Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// явные флаги перекрывают значения из yaml
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Server.Host = *host
		case "port":
			cfg.Server.Port = *port
		}
	})

	root := flag.Arg(0)
	if root == "" {
		root = "."
	}

	resolver, err := security.NewResolver(root)
	if err != nil {
		logrus.Fatalf("Cannot serve %q: %v", root, err)
	}

	var username, password string
	if *auth != "" {
		username, password, err = security.ParseAuthString(*auth)
		if err != nil {
			logrus.Fatalf("Invalid -auth value: %v", err)
		}
	}
	gate := security.NewCredentialGate(username, password)

	storage := localstorage.NewLocalStorage(cfg.File.DirPermissions)
	svc := usecases.NewFileService(storage, resolver, cfg)

	staticPath := cfg.Static.Path
	if !filepath.IsAbs(staticPath) {
		if abs, absErr := filepath.Abs(staticPath); absErr == nil {
			staticPath = abs
		}
	}

	handler := server.NewHandler(
		svc,
		staticPath,
		cfg.Static.TemplateFile,
		cfg.Server.MaxUploadSize,
		cfg.Messages,
		gate.Enabled(),
	)
	router := server.NewRouter(handler, gate, cfg.Routes)

	// сертификат выпускаем до bind: если TLS запрошен и не получился,
	// сервер не имеет права молча подняться в plaintext
	var certPath, keyPath string
	if *ssl {
		certPEM, keyPEM, genErr := security.GenerateSelfSigned()
		if genErr != nil {
			logrus.Fatalf("Failed to generate TLS certificate: %v", genErr)
		}
		var cleanup func()
		certPath, keyPath, cleanup, err = security.WriteTempFiles(certPEM, keyPEM)
		if err != nil {
			logrus.Fatalf("Failed to write TLS certificate: %v", err)
		}
		defer cleanup()
		// logrus.Fatal делает os.Exit мимо defer — подчищаем и на этом пути
		logrus.RegisterExitHandler(cleanup)
	}

	scheme := "http"
	if *ssl {
		scheme = "https"
	}
	shareURL := fmt.Sprintf("%s://%s:%d", scheme, displayHost(cfg.Server.Host), cfg.Server.Port)

	logrus.WithFields(logrus.Fields{
		"root": resolver.Root(),
		"url":  shareURL,
		"auth": gate.Enabled(),
		"tls":  *ssl,
	}).Info("Starting skyhook file server")
	if *ssl {
		logrus.Warn("Self-signed certificate: browsers will show a security warning")
	}

	if *qr {
		qrterminal.GenerateWithConfig(shareURL, qrterminal.Config{
			Level:     qrterminal.M,
			Writer:    os.Stdout,
			QuietZone: 1,
		})
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		var serveErr error
		if *ssl {
			serveErr = srv.ListenAndServeTLS(certPath, keyPath)
		} else {
			serveErr = srv.ListenAndServe()
		}
		if serveErr != nil && serveErr != http.ErrServerClosed {
			logrus.Fatalf("Server failed: %v", serveErr)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server shutdown error: %v", err)
	} else {
		logrus.Info("Server stopped gracefully")
	}
}

// displayHost на 0.0.0.0 зайти нельзя, для ссылки подставляем LAN-адрес машины.
func displayHost(host string) string {
	if host != "0.0.0.0" && host != "::" && host != "" {
		return host
	}
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}
