// Package main (in api-subfolder) provides launch of the batch ingest API
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnendingLoop/ImageFlow/internal/appconfig"
	"github.com/UnendingLoop/ImageFlow/internal/kafka"
	"github.com/UnendingLoop/ImageFlow/internal/mwlogger"
	"github.com/UnendingLoop/ImageFlow/internal/repository"
	"github.com/UnendingLoop/ImageFlow/internal/service"
	"github.com/UnendingLoop/ImageFlow/internal/storage"
	"github.com/UnendingLoop/ImageFlow/internal/transport"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/ginext"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/zlog"
)

const (
	reviveBatchSize = 20
	reviveInterval  = time.Minute
)

func main() {
	// инициализировать конфиг/ считать энвы
	appConfig := config.New()
	appConfig.EnableEnv("")
	if err := appConfig.LoadEnvFiles("./.env"); err != nil {
		log.Printf("No .env file loaded (%v), using process environment", err)
	}
	settings, err := appconfig.LoadSettings(appConfig)
	if err != nil {
		log.Fatalf("Invalid configuration: %v\nExiting app...", err)
	}

	// стартуем логгер
	zlog.InitConsole()
	if err := zlog.SetLevel(settings.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	// готовим заранее слушатель прерываний - контекст для всего приложения
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// подключитсья к базе
	dbConn := repository.ConnectWithRetries(settings.PostgresDSN, 5, 10*time.Second)
	// накатываем миграцию
	repository.MigrateWithRetries(dbConn.Master, settings.MigrationsPath, 10, 15*time.Second)
	// создаем экземпляр репо
	repo := repository.NewPostgresRecordRepo(dbConn)

	// подключиться к хранилищу
	strg, err := storage.NewImgStorage(ctx, settings.Storage, 10*time.Second)
	if err != nil {
		log.Fatalf("Failed to connect to blob storage: %v", err)
	}

	// ждем пока кафка раздуплится
	if err := kafka.WaitKafkaReady(ctx, settings.KafkaBroker, 5*time.Second); err != nil {
		log.Fatalf("Kafka is unreachable: %v", err)
	}
	if err := kafka.InitKafkaTopics(ctx, settings.KafkaBroker, 10*time.Second, settings.KafkaTopic); err != nil {
		log.Fatalf("Failed to create Kafka topics: %v", err)
	}
	// подключиться к кафке как продюсер
	pub := wbfkafka.NewProducer([]string{settings.KafkaBroker}, settings.KafkaTopic)

	// создаем экземпляр сервиса
	var svc ImageAPIService = service.NewImageService(repo, pub, strg)
	// cоздаем экземпляр хендлера HTTP
	handlers := transport.NewImageHandler(svc, settings.MaxUploadBytes)
	// сетапим сервер
	engine := ginext.New(settings.GinMode)
	engine.Use(transport.CORSMiddleware())

	engine.GET("/ping", handlers.SimplePinger)
	engine.POST("/upload-images", handlers.UploadImages)             // загрузка пачки
	engine.GET("/get-processed-images", handlers.GetProcessedImages) // пары до/после
	engine.GET("/get-images-by-status", handlers.GetImagesByStatus)  // выборка по статусу

	srv := &http.Server{
		Addr:              ":" + settings.AppPort,
		Handler:           mwlogger.NewMWLogger(engine),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Server launch
	go func() {
		log.Printf("Server running on http://localhost%s\n", srv.Addr)
		err := srv.ListenAndServe()
		if err != nil {
			switch {
			case errors.Is(err, http.ErrServerClosed):
				log.Println("Server gracefully stopping...")
			default:
				log.Printf("Server stopped: %v", err)
				stop()
			}
		}
	}()

	// запускаем фоновый цикл повторного анонса подвисших картинок
	reviveDone := make(chan struct{})
	go func() {
		defer close(reviveDone)
		recoveryLoop(ctx, svc, reviveInterval)
	}()

	// ждем отмены контекста для запуска грейсфул закрытия сервера, бд и кафки
	<-ctx.Done()
	// продюсер и бд закрываем только после выхода цикла
	<-reviveDone

	shutdown(srv, pub, dbConn)
	log.Println("Exiting app...")
}

func recoveryLoop(ctx context.Context, svc ImageAPIService, interval time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			log.Println("Recovery loop crashed:", r)
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.ReviveUnprocessed(ctx, reviveBatchSize)
		}
	}
}

func shutdown(srv *http.Server, prod *wbfkafka.Producer, dbConn *dbpg.DB) {
	log.Println("Interrupt received!!! Starting shutdown sequence...")

	// даем текущим запросам доработать
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("Failed to shutdown HTTP-server gracefully:", err)
	}
	log.Println("HTTP-server stopped.")

	// Closing Kafka connection:
	if err := prod.Close(); err != nil {
		log.Println("Failed to close Kafka-writer:", err)
	}
	log.Println("Kafka-producer connection closed.")

	// Closing DB connection
	if err := dbConn.Master.Close(); err != nil {
		log.Println("Failed to close DB-conn correctly:", err)
		return
	}
	log.Println("DBconn closed")
}
