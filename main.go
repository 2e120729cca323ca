package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hisoutlier/adapters/excel"
	"hisoutlier/adapters/memory"
	"hisoutlier/internal"
	"hisoutlier/internal/api"
	"hisoutlier/internal/config"
	"hisoutlier/internal/container"

	"github.com/gin-gonic/gin"
)

func main() {
	// FACTS_FILE serves detection from a workbook without a database
	factsFile := os.Getenv("FACTS_FILE")

	appConfig, err := config.Load(factsFile == "")
	if err != nil {
		internal.DefaultLogger.ErrorErr(err, "Failed to load configuration")
		os.Exit(1)
	}

	logger := internal.NewDefaultLogger()
	gin.SetMode(appConfig.Server.GinMode)

	appContainer, err := container.New(appConfig, logger)
	if err != nil {
		logger.ErrorErr(err, "Failed to create container")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := initDetector(ctx, appContainer, factsFile); err != nil {
		logger.ErrorErr(err, "Failed to initialize detector")
		os.Exit(1)
	}

	handler, err := appContainer.Handler()
	if err != nil {
		logger.ErrorErr(err, "Failed to create handler")
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Outlier detection server listening on :%s", appConfig.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorErr(err, "Server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.ErrorErr(err, "Server shutdown failed")
	}
	if err := appContainer.Shutdown(shutdownCtx); err != nil {
		logger.ErrorErr(err, "Container shutdown failed")
	}
}

func initDetector(ctx context.Context, c *container.Container, factsFile string) error {
	if factsFile != "" {
		store := memory.NewStore()
		nFacts, nRanges, err := excel.LoadFacts(factsFile, store)
		if err != nil {
			return err
		}
		c.Logger.Info("Loaded %d facts and %d min-max ranges from %s", nFacts, nRanges, factsFile)
		return c.InitOffline(store)
	}

	db, err := c.OpenDatabase(ctx)
	if err != nil {
		return err
	}
	if err := c.InitWithDatabase(db); err != nil {
		db.Close()
		return err
	}
	return nil
}
