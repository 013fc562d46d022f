package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PrithviSeran/whats-poppin-sub003/config"
	"github.com/PrithviSeran/whats-poppin-sub003/openapi"
	"github.com/PrithviSeran/whats-poppin-sub003/server"
	"github.com/PrithviSeran/whats-poppin-sub003/services/logging"
	"github.com/PrithviSeran/whats-poppin-sub003/services/otp"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	fx     *fx.App
	config *config.Config
	logger *logging.Service
	db     *gorm.DB
	server *server.Server
	otp    *otp.Service
	docs   *openapi.Document
}

func (a *App) Start() error {
	return a.fx.Start(context.Background())
}

func (a *App) StartTest() error {
	return a.fx.Start(context.Background())
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() {
	if err := a.Start(); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	if a.logger != nil {
		a.logger.Info("received shutdown signal, stopping gracefully", zap.String("signal", sig.String()))
	} else {
		log.Printf("Received signal %v, shutting down gracefully...", sig)
	}

	a.Stop()
}

func (a *App) Stop() {
	a.stop(30*time.Second, "failed to stop application gracefully")
	_ = a.logger.Sync()
}

func (a *App) StopTest() {
	a.stop(2*time.Second, "failed to stop test application")
}

func (a *App) stop(timeout time.Duration, failure string) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.fx.Stop(ctx); err != nil {
		if a.logger != nil {
			a.logger.Error(failure, zap.Error(err))
		} else {
			log.Printf("%s: %v", failure, err)
		}
	}
}

func (a *App) Server() *echo.Echo {
	if a.server == nil {
		a.logger.Warn("server not initialized through dependency injection")
		return nil
	}
	return a.server.Echo()
}

func (a *App) HTTPServer() *server.Server {
	return a.server
}

func (a *App) Database() *gorm.DB {
	return a.db
}

func (a *App) Logger() *logging.Service {
	return a.logger
}

func (a *App) Config() *config.Config {
	return a.config
}

// Verification returns the code service, or nil when verification is not
// enabled.
func (a *App) Verification() *otp.Service {
	return a.otp
}

// OpenAPI returns the document describing the mounted API routes.
func (a *App) OpenAPI() *openapi.Document {
	return a.docs
}

func (a *App) RegisterRoutes(fn func(*echo.Echo)) {
	if e := a.Server(); e != nil {
		fn(e)
	}
}

func (a *App) Get(path string, handler echo.HandlerFunc, middleware ...echo.MiddlewareFunc) {
	if e := a.Server(); e != nil {
		e.GET(path, handler, middleware...)
	}
}

func (a *App) Post(path string, handler echo.HandlerFunc, middleware ...echo.MiddlewareFunc) {
	if e := a.Server(); e != nil {
		e.POST(path, handler, middleware...)
	}
}
