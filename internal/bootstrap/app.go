package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/milvus-io/milvus/client/v2/milvusclient"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"ragdocs/internal/ai"
	"ragdocs/internal/config"
	"ragdocs/internal/model"
	milvusPlatform "ragdocs/internal/platform/milvus"
	mysqlClient "ragdocs/internal/platform/mysql"
	rabbitmqClient "ragdocs/internal/platform/rabbitmq"
	redisClient "ragdocs/internal/platform/redis"
	"ragdocs/internal/vectorindex"
	"ragdocs/internal/worker"
)

type App struct {
	Config          *config.Config
	MySQL           *gorm.DB
	Redis           *redis.Client
	MQConn          *amqp.Connection
	Milvus          *milvusclient.Client
	Index           vectorindex.Index
	LLM             *ai.Client
	ReconcileWorker *worker.VectorReconcileWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(&model.User{}, &model.Document{}, &model.ConversationTurn{}); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	milvusCli, err := milvusPlatform.New(ctx, cfg.Milvus)
	if err != nil {
		return nil, err
	}

	llm := ai.NewClient()
	embedder := ai.NewEmbedder(llm, ai.EmbeddingConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.EmbeddingModel,
	})

	index, err := vectorindex.NewMilvusIndex(ctx, milvusCli, embedder, cfg.Milvus.Collection, cfg.LLM.EmbeddingDim)
	if err != nil {
		return nil, fmt.Errorf("init vector index failed: %w", err)
	}

	reconcileWorker := worker.NewVectorReconcileWorker(mqConn, index, cfg.RabbitMQ.ReconcileQueue)
	if err := reconcileWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start reconcile worker failed: %w", err)
	}

	return &App{
		Config:          cfg,
		MySQL:           mysqlDB,
		Redis:           redisCli,
		MQConn:          mqConn,
		Milvus:          milvusCli,
		Index:           index,
		LLM:             llm,
		ReconcileWorker: reconcileWorker,
		StartedAt:       time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.ReconcileWorker != nil {
		a.ReconcileWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Milvus != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := a.Milvus.Close(ctx); err != nil {
			closeErr = err
		}
		cancel()
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
