package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-sync-api/internal/calendar"
	"github.com/BuzzLyutic/task-sync-api/internal/config"
	"github.com/BuzzLyutic/task-sync-api/internal/handler"
	"github.com/BuzzLyutic/task-sync-api/internal/recurrence"
	"github.com/BuzzLyutic/task-sync-api/internal/repo"
	"github.com/BuzzLyutic/task-sync-api/internal/service"
	tasksync "github.com/BuzzLyutic/task-sync-api/internal/sync"
	"github.com/BuzzLyutic/task-sync-api/internal/worker"
)

func main() {
	// Подключаем логгер
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// .env опционален, в проде переменные приходят из окружения
	godotenv.Load()

	// Загрузка конфигурации
	cfg := config.Load()

	// Хранилище: Postgres при заданном DATABASE_URL, иначе в памяти
	var taskRepo repo.TaskRepository
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to connect to Database.")
		}
		defer pool.Close()

		if err := pool.Ping(context.Background()); err != nil {
			log.Fatal("Failed to ping the Database.")
		}
		logger.Info("Successfully connected to the Database!")
		taskRepo = repo.NewTaskRepo(pool)
	} else {
		logger.Info("DATABASE_URL not set, using in-memory store")
		taskRepo = repo.NewMemoryRepo()
	}

	// Провайдеры календарей: без кредов остаются выключенными
	google, err := calendar.NewGoogleProvider(cfg.Google, logger)
	if err != nil {
		logger.Fatal("Failed to init Google Calendar client", zap.Error(err))
	}
	outlook := calendar.NewOutlookProvider(cfg.Outlook, logger)

	orch := tasksync.NewOrchestrator(taskRepo, google, outlook, logger)

	// Пул воркеров синхронизации
	pool := worker.NewPool(logger, cfg.WorkerCount, orch.SyncTask)
	pool.Start(context.Background())
	defer pool.Stop()

	expander := recurrence.NewExpander(taskRepo, pool, logger)
	taskService := service.NewTaskService(taskRepo, orch, expander, pool, logger)
	taskHandler := handler.NewTaskHandler(taskService, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok"}`)
	})

	taskHandler.Routes(r)

	srv := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() { // Запуск сервера и обработка ошибок
		logger.Info("Server started at ", zap.String("port", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed: ", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Shutdown error: ", zap.Error(err))
	}
	logger.Info("Server stopped succsessfully!")
}
