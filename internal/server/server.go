package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/caddyserver/certmagic"
	"github.com/jsiebens/memberd/internal/auth"
	"github.com/jsiebens/memberd/internal/config"
	"github.com/jsiebens/memberd/internal/database"
	"github.com/jsiebens/memberd/internal/handlers"
	"github.com/jsiebens/memberd/internal/token"
	"github.com/jsiebens/memberd/internal/util"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"
)

func Start(c *config.Config) error {
	logger, err := setupLogging(c.Logging)
	if err != nil {
		return err
	}

	logger.Info("Starting memberd server")

	appLogger := util.NewZapAdapter(logger, "memberd")

	repository, err := database.OpenDB(&c.Database, appLogger)
	if err != nil {
		return err
	}

	sessionTtl, err := c.Session.TtlDuration()
	if err != nil {
		return fmt.Errorf("error reading session ttl: %v", err)
	}

	sessionIssuer, err := token.NewIssuer(c.Session.Secret, c.ServerUrl, sessionTtl)
	if err != nil {
		return err
	}

	authProvider, err := auth.NewProvider(&c.AuthProvider)
	if err != nil {
		return fmt.Errorf("error configuring auth provider: %v", err)
	}

	serverUrl, err := url.Parse(c.ServerUrl)
	if err != nil {
		return err
	}

	// prepare CertMagic
	if c.Tls.AcmeEnabled {
		certmagic.DefaultACME.Agreed = true
		certmagic.DefaultACME.Email = c.Tls.AcmeEmail
		certmagic.DefaultACME.CA = c.Tls.AcmeCA
		if c.Tls.AcmePath != "" {
			certmagic.Default.Storage = &certmagic.FileStorage{Path: c.Tls.AcmePath}
		}

		cfg := certmagic.NewDefault()
		if err := cfg.ManageAsync(context.Background(), []string{serverUrl.Host}); err != nil {
			return err
		}

		c.HttpListenAddr = fmt.Sprintf(":%d", certmagic.HTTPPort)
		c.HttpsListenAddr = fmt.Sprintf(":%d", certmagic.HTTPSPort)
	}

	authenticationHandlers := handlers.NewAuthenticationHandlers(c, authProvider, sessionIssuer, repository)
	profileHandlers := handlers.NewProfileHandlers(repository)

	metricsHandler := echo.New()
	metricsHandler.GET("/metrics", echoprometheus.NewHandler())

	app := echo.New()
	app.Use(echoprometheus.NewMiddleware("http"), EchoLogger(logger), EchoErrorHandler(logger), EchoRecover())

	app.GET("/version", handlers.Version)

	authGroup := app.Group("/auth")
	authGroup.GET("/authorize", authenticationHandlers.Authorize)
	authGroup.POST("/login", authenticationHandlers.Login)
	authGroup.POST("/logout", authenticationHandlers.Logout)

	members := app.Group("/members", handlers.SessionAuth(sessionIssuer))
	members.GET("/me/summary", profileHandlers.Summary)
	members.GET("/me", profileHandlers.Profile)
	members.PATCH("/me", profileHandlers.Update)
	members.POST("/me", profileHandlers.Update)

	tlsL, err := tlsListener(c)
	if err != nil {
		return err
	}

	nonTlsL, err := nonTlsListener(c)
	if err != nil {
		return err
	}

	metricsL, err := metricsListener(c)
	if err != nil {
		return err
	}

	httpL := selectListener(tlsL, nonTlsL)
	http2Server := &http2.Server{}
	g := new(errgroup.Group)

	g.Go(func() error { return http.Serve(httpL, h2c.NewHandler(app, http2Server)) })
	g.Go(func() error { return http.Serve(metricsL, metricsHandler) })

	if tlsL != nil {
		redirectHandler := echo.New()
		redirectHandler.Any("/*", handlers.HttpRedirectHandler(c.Tls))
		g.Go(func() error { return http.Serve(nonTlsL, redirectHandler) })
	}

	if c.Tls.AcmeEnabled {
		logger.Info("TLS is enabled with ACME", zap.String("domain", serverUrl.Host))
		logger.Info("Server is running", zap.String("http_addr", c.HttpListenAddr), zap.String("https_addr", c.HttpsListenAddr), zap.String("metrics_addr", c.MetricsListenAddr))
	} else if !c.Tls.Disable {
		logger.Info("TLS is enabled", zap.String("cert", c.Tls.CertFile))
		logger.Info("Server is running", zap.String("http_addr", c.HttpListenAddr), zap.String("https_addr", c.HttpsListenAddr), zap.String("metrics_addr", c.MetricsListenAddr))
	} else {
		logger.Warn("TLS is disabled")
		logger.Info("Server is running", zap.String("http_addr", c.HttpListenAddr), zap.String("metrics_addr", c.MetricsListenAddr))
	}

	return g.Wait()
}

func metricsListener(config *config.Config) (net.Listener, error) {
	return net.Listen("tcp", config.MetricsListenAddr)
}

func tlsListener(config *config.Config) (net.Listener, error) {
	if config.Tls.Disable {
		return nil, nil
	}

	if config.Tls.AcmeEnabled {
		cfg := certmagic.NewDefault()
		tlsConfig := cfg.TLSConfig()
		tlsConfig.NextProtos = append([]string{"h2", "http/1.1"}, tlsConfig.NextProtos...)
		return tls.Listen("tcp", config.HttpsListenAddr, tlsConfig)
	}

	certPEMBlock, err := os.ReadFile(config.Tls.CertFile)
	if err != nil {
		return nil, fmt.Errorf("error reading cert file: %v", err)
	}
	keyPEMBlock, err := os.ReadFile(config.Tls.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("error reading key file: %v", err)
	}

	cer, err := tls.X509KeyPair(certPEMBlock, keyPEMBlock)
	if err != nil {
		return nil, fmt.Errorf("error reading cert and key file: %v", err)
	}

	tlsConfig := &tls.Config{Certificates: []tls.Certificate{cer}}

	return tls.Listen("tcp", config.HttpsListenAddr, tlsConfig)
}

func nonTlsListener(config *config.Config) (net.Listener, error) {
	return net.Listen("tcp", config.HttpListenAddr)
}

func selectListener(a net.Listener, b net.Listener) net.Listener {
	if a != nil {
		return a
	}
	return b
}

func setupLogging(config config.Logging) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(config.Level)
	if err != nil {
		return nil, fmt.Errorf("error reading logging level: %v", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.OutputPaths = []string{"stdout"}

	if strings.ToLower(config.Format) != "json" {
		cfg.Encoding = "console"
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		cfg.EncoderConfig = encoderConfig
	}

	if config.File != "" {
		cfg.OutputPaths = []string{config.File}
		cfg.ErrorOutputPaths = []string{config.File}
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	zap.ReplaceGlobals(logger)

	return logger, nil
}
