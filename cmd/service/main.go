package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	configs "course_service/config"
	"course_service/internal/cache"
	"course_service/internal/grading"
	"course_service/internal/repository"
	"course_service/internal/server"
	"course_service/internal/service"
	"course_service/pkg/db"
	"course_service/pkg/kafka"
	"course_service/pkg/logger"
	"course_service/pkg/ollama"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.New()
	defer log.Sync()

	cfg, err := configs.Load()
	if err != nil {
		log.Fatal("cannot load config", zap.Error(err))
	}

	postgres, err := db.NewPostgres(db.Config{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		DBName:   cfg.DB.DBName,
		SSLMode:  cfg.DB.SSLMode,
	})
	if err != nil {
		log.Fatal("cannot connect to postgres", zap.Error(err))
	}
	defer postgres.Close()

	students := repository.NewStudentRepository(postgres.DB())
	progressRepo := repository.NewProgressRepository(postgres.DB())
	assignments := repository.NewAssignmentRepository(postgres.DB())
	quizzes := repository.NewQuizRepository(postgres.DB())

	store, err := grading.NewSubmissionStore(cfg.Grading.SubmissionsDir)
	if err != nil {
		log.Fatal("cannot create submission store", zap.Error(err))
	}
	monitor := grading.NewResourceMonitor(cfg.Grading.ResourceLimit)
	queue := grading.NewQueue(monitor, grading.NewHeuristicGrader())

	var producer service.EventProducer
	if kafkaProducer, err := kafka.NewProducer(kafka.Config{Brokers: cfg.Kafka.Brokers}); err != nil {
		log.Warn("kafka disabled, grading events will not be published", zap.Error(err))
	} else {
		defer kafkaProducer.Close()
		producer = kafkaProducer
	}

	redisConn := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer redisConn.Close()
	reportCache := cache.NewReportCache(redisConn)

	llm := ollama.New(cfg.Ollama.BaseURL, cfg.Ollama.Model)
	if !llm.Healthy(ctx) {
		log.Warn("ollama is unreachable, quiz generation will fall back to canned questions",
			zap.String("base_url", cfg.Ollama.BaseURL))
	}

	progressService := service.NewProgressService(
		students, progressRepo, assignments, quizzes,
		store, queue, producer, cfg.Kafka.GradingTopic, log,
	)
	quizService := service.NewQuizService(quizzes, progressRepo, llm, log)
	rosterService := service.NewRosterService(students, progressService, cfg.Course.EmailDomain)

	router := server.NewRouter(server.RouterConfig{
		Progress:     progressService,
		Quiz:         quizService,
		Roster:       rosterService,
		Cache:        reportCache,
		ReportTTL:    cfg.Redis.ReportTTL,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
		Logger:       log,
	})

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	go func() {
		log.Info("starting server", zap.String("address", cfg.HTTP.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("cannot start http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}
