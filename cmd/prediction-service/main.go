package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/nutriscan-ai/platform/pkg/bundle"
	"github.com/nutriscan-ai/platform/pkg/common/config"
	"github.com/nutriscan-ai/platform/pkg/common/database"
	"github.com/nutriscan-ai/platform/pkg/common/kafka"
	"github.com/nutriscan-ai/platform/pkg/common/logger"
	"github.com/nutriscan-ai/platform/pkg/observability/metrics"
	"github.com/nutriscan-ai/platform/pkg/predict"
	"github.com/nutriscan-ai/platform/pkg/recommend"
	"github.com/nutriscan-ai/platform/pkg/risk"
	"github.com/nutriscan-ai/platform/pkg/serving"
	"github.com/nutriscan-ai/platform/pkg/storage"
)

func main() {
	logger.Init()
	metrics.Init()
	cfg := config.Load()

	bundles, err := bundle.LoadSet(cfg.ModelDir)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load model bundles")
	}

	policy := risk.DefaultPolicy()
	if cfg.RiskPolicyPath != "" {
		policy, err = risk.LoadPolicy(cfg.RiskPolicyPath)
		if err != nil {
			logger.Log.WithError(err).Fatal("Failed to load risk policy")
		}
	}
	classifier, err := risk.NewClassifier(policy)
	if err != nil {
		logger.Log.WithError(err).Fatal("Invalid risk policy")
	}

	rules := recommend.DefaultRules()
	if cfg.RulesPath != "" {
		rules, err = recommend.LoadRules(cfg.RulesPath)
		if err != nil {
			logger.Log.WithError(err).Fatal("Failed to load recommendation rules")
		}
	}

	orch := predict.New(bundles, classifier, recommend.NewEngine(rules))
	handler := predict.NewHTTPHandler(orch, cfg.ModelDir, cfg.MaxRequestBody)

	if cfg.ResultCaching {
		redisClient := database.GetRedis()
		handler = handler.WithCache(storage.NewResultCache(redisClient, cfg.ResultCachePrefix, cfg.ResultCacheTTL))
	}

	if cfg.PredictionLogging {
		db, err := database.GetPostgres()
		if err != nil {
			logger.Log.WithError(err).Fatal("Failed to connect to database")
		}
		repo := serving.NewRepository(db)
		if err := repo.AutoMigrate(); err != nil {
			logger.Log.WithError(err).Fatal("Failed to migrate prediction log tables")
		}
		handler = handler.WithRecorder(repo)
	}

	var producer *kafka.Producer
	if cfg.EventPublishing {
		producer = kafka.NewProducer(cfg.PredictionTopic)
		handler = handler.WithPublisher(producer)
	}

	router := mux.NewRouter()
	handler.Register(router)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host":    cfg.ServerHost,
			"port":    cfg.ServerPort,
			"bundles": len(bundles.Metadata()),
		}).Info("Prediction Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Prediction Service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Log.WithError(err).Error("Failed to close event producer")
		}
	}
	if cfg.PredictionLogging {
		if err := database.ClosePostgres(); err != nil {
			logger.Log.WithError(err).Error("Failed to close database")
		}
	}
	if cfg.ResultCaching {
		if err := database.CloseRedis(); err != nil {
			logger.Log.WithError(err).Error("Failed to close Redis")
		}
	}

	logger.Log.Info("Prediction Service stopped")
}
