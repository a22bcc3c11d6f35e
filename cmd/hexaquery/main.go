package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/davicafu/hexaquery/internal/config"
	sharedDomain "github.com/davicafu/hexaquery/internal/shared/domain"
	sharedDomainEvents "github.com/davicafu/hexaquery/internal/shared/domain/events"
	infraEvents "github.com/davicafu/hexaquery/internal/shared/infra/events"
	sharedBus "github.com/davicafu/hexaquery/internal/shared/infra/platform/bus"
	sharedCache "github.com/davicafu/hexaquery/internal/shared/infra/platform/cache"
	sharedMongo "github.com/davicafu/hexaquery/internal/shared/infra/platform/db/mongodb"
	sharedPostgres "github.com/davicafu/hexaquery/internal/shared/infra/platform/db/postgres"
	sharedSQLite "github.com/davicafu/hexaquery/internal/shared/infra/platform/db/sqlite"
	"github.com/davicafu/hexaquery/internal/shared/infra/relayer"
	taskApp "github.com/davicafu/hexaquery/internal/task/application"
	taskDomain "github.com/davicafu/hexaquery/internal/task/domain"
	taskEvents "github.com/davicafu/hexaquery/internal/task/infra/inbound/events"
	taskHttp "github.com/davicafu/hexaquery/internal/task/infra/inbound/http"
	"github.com/davicafu/hexaquery/internal/task/infra/outbound/analytics/clickhouse"
	"github.com/davicafu/hexaquery/internal/task/infra/outbound/analytics/inmemory"
	taskMongo "github.com/davicafu/hexaquery/internal/task/infra/outbound/db/mongodb"
	taskPostgres "github.com/davicafu/hexaquery/internal/task/infra/outbound/db/postgre"
	"github.com/davicafu/hexaquery/internal/task/infra/outbound/filesystem"
	userApp "github.com/davicafu/hexaquery/internal/user/application"
	userDomain "github.com/davicafu/hexaquery/internal/user/domain"
	userEvents "github.com/davicafu/hexaquery/internal/user/infra/inbound/events"
	userHttp "github.com/davicafu/hexaquery/internal/user/infra/inbound/http"
	userRepo "github.com/davicafu/hexaquery/internal/user/infra/outbound/db/sqlite"
	"github.com/davicafu/hexaquery/pkg/logger"
	"github.com/davicafu/hexaquery/pkg/query"
)

const consumerBuffer = 100

// taskStore agrupa el repositorio de tareas elegido con su outbox.
type taskStore struct {
	repo   taskDomain.TaskRepository
	outbox sharedDomain.OutboxRepository
	close  func()
}

// ---------------- Main ----------------
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		panic(err)
	}
	log := logger.Logger()
	defer log.Sync() // flush buffers al salir

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	parser := query.NewParser(
		query.WithDefaultPageSize(cfg.DefaultPageSize),
		query.WithMaxPageSize(cfg.MaxPageSize),
	)

	// ---------------- DB ----------------
	db, err := sharedSQLite.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatal("❌ Failed to open SQLite", zap.Error(err))
	}
	defer db.Close()
	if err := userRepo.InitSQLite(db); err != nil {
		log.Fatal("❌ Failed to initialize SQLite", zap.Error(err))
	}
	userRepoSQLite := userRepo.NewUserRepoSQLite(db)

	tasks, err := openTaskStore(ctx, cfg)
	if err != nil {
		log.Fatal("❌ Failed to open task store", zap.String("store", cfg.TaskStore), zap.Error(err))
	}
	defer tasks.close()
	log.Info("🗄️ Task store ready", zap.String("store", cfg.TaskStore))

	analytics := openAnalytics(cfg, log)

	// ---------------- Cache ----------------
	cacheInstance := openCache(ctx, cfg, log)

	// --------------- Servicios --------------
	userService := userApp.NewUserService(userRepoSQLite, cacheInstance, parser, log)
	taskService := taskApp.NewTaskService(tasks.repo, analytics, cacheInstance, parser, log)

	// ---------------- Events ---------------
	historyConsumer := taskEvents.NewTaskHistoryConsumer(analytics, log)
	userCacheConsumer := userEvents.NewUserCacheConsumer(cacheInstance, log)

	var publisher sharedBus.EventBus
	if cfg.UseKafka {
		log.Info("🚀 Usando Kafka como bus de eventos", zap.Strings("brokers", cfg.KafkaBrokers))

		kafkaPublisher := infraEvents.NewKafkaPublisher(infraEvents.NewKafkaWriter(cfg.KafkaBrokers), log)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher

		infraEvents.NewConsumerAdapter(
			infraEvents.NewKafkaReader(cfg.KafkaBrokers, cfg.KafkaGroupID+"-task-history", taskDomain.TaskTopic),
			historyConsumer, log,
		).Start(ctx)
		infraEvents.NewConsumerAdapter(
			infraEvents.NewKafkaReader(cfg.KafkaBrokers, cfg.KafkaGroupID+"-user-cache", userDomain.UserTopic),
			userCacheConsumer, log,
		).Start(ctx)
	} else {
		log.Info("⚡️ Usando bus de eventos en memoria (canales de Go)")

		bus := infraEvents.NewInMemoryEventBus()
		defer bus.Close()
		publisher = bus

		bus.Consume(ctx, taskDomain.TaskTopic, consumerBuffer, historyConsumer)
		bus.Consume(ctx, userDomain.UserTopic, consumerBuffer, userCacheConsumer)
	}

	// ------------ Outbox Workers ------------
	registry := sharedDomainEvents.Merge(userDomain.NewEventRegistry(), taskDomain.NewEventRegistry())

	go relayer.NewOutboxWorker(sharedSQLite.NewOutboxRepoSQLite(db), publisher, registry,
		cfg.OutboxPeriod, cfg.OutboxLimit, log.Named("user-outbox")).Start(ctx)
	go relayer.NewOutboxWorker(tasks.outbox, publisher, registry,
		cfg.OutboxPeriod, cfg.OutboxLimit, log.Named("task-outbox")).Start(ctx)

	// ---------------- HTTP ----------------
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	userHttp.RegisterUserRoutes(router, userHttp.NewUserHandler(userService))
	taskHttp.RegisterTaskRoutes(router, taskHttp.NewTaskHandler(taskService))

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: router}
	go func() {
		log.Info("🚀 Server running", zap.String("url", "http://localhost:"+cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("❌ Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("🛑 Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("⚠️ HTTP shutdown failed", zap.Error(err))
	}
}

func openTaskStore(ctx context.Context, cfg *config.Config) (*taskStore, error) {
	switch cfg.TaskStore {
	case config.TaskStorePostgres:
		db, err := sharedPostgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := taskPostgres.InitPostgresTaskSchema(db); err != nil {
			db.Close()
			return nil, err
		}
		return &taskStore{
			repo:   taskPostgres.NewTaskRepoPostgres(db),
			outbox: sharedPostgres.NewOutboxRepoPostgres(db),
			close:  func() { db.Close() },
		}, nil

	case config.TaskStoreMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, err
		}
		disconnect := func() { client.Disconnect(context.Background()) }
		repo, err := taskMongo.NewTaskRepoMongoDB(ctx, client, cfg.MongoDB)
		if err != nil {
			disconnect()
			return nil, err
		}
		return &taskStore{
			repo:   repo,
			outbox: sharedMongo.NewOutboxRepoMongoDB(client, cfg.MongoDB),
			close:  disconnect,
		}, nil

	default:
		storage := filesystem.NewJSONTaskStorage(cfg.TaskFilePath)
		return &taskStore{repo: storage, outbox: storage, close: func() {}}, nil
	}
}

// openAnalytics usa ClickHouse si está configurado y en otro caso el histórico
// en memoria.
func openAnalytics(cfg *config.Config, log *zap.Logger) taskDomain.TaskAnalyticsRepository {
	if cfg.ClickHouseAddr == "" {
		log.Info("📊 Histórico de tareas en memoria")
		return inmemory.NewTaskLog()
	}

	repo, err := clickhouse.NewTaskAnalyticsRepo(cfg.ClickHouseAddr, cfg.ClickHouseDB)
	if err == nil {
		err = repo.InitSchema()
	}
	if err != nil {
		log.Warn("⚠️ ClickHouse no disponible, histórico en memoria", zap.Error(err))
		return inmemory.NewTaskLog()
	}
	log.Info("✅ ClickHouse conectado", zap.String("addr", cfg.ClickHouseAddr))
	return repo
}

func openCache(ctx context.Context, cfg *config.Config, log *zap.Logger) sharedCache.Cache {
	if cfg.RedisAddr == "" {
		log.Info("🧠 Cache en memoria")
		return sharedCache.NewInMemoryCache(cfg.CacheTTL, 3*cfg.CacheTTL)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("⚠️ Redis no disponible, cache en memoria", zap.Error(err))
		return sharedCache.NewInMemoryCache(cfg.CacheTTL, 3*cfg.CacheTTL)
	}
	log.Info("✅ Redis conectado, cache habilitado")
	return sharedCache.NewRedisCache(rdb, cfg.CacheTTL)
}
