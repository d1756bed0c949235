package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hireloop/ai-interviewer/internal/config"
	"github.com/hireloop/ai-interviewer/internal/domain/fiber/handler"
	"github.com/hireloop/ai-interviewer/internal/middleware"
	"github.com/hireloop/ai-interviewer/internal/model"
	"github.com/hireloop/ai-interviewer/internal/repository"
	"github.com/hireloop/ai-interviewer/internal/service"
	"github.com/hireloop/ai-interviewer/internal/speech"
	"github.com/hireloop/ai-interviewer/internal/usecase"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	ctx := context.Background()
	if err := godotenv.Load(); err != nil {
		log.Println("Could not load .env file")
	}

	appConfig := config.LoadAppConfig()

	zapLogger, err := newLogger(appConfig.Env)
	if err != nil {
		log.Fatal(err)
	}
	defer zapLogger.Sync()

	app := fiber.New(fiber.Config{
		AppName:   appConfig.Name,
		BodyLimit: 10 * 1024 * 1024, // voice recordings arrive base64-encoded
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError

			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}

			message := err.Error()
			if message == "" {
				message = "Internal Server Error"
			}

			return ctx.Status(code).JSON(fiber.Map{"error": message})
		},
	})
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: appConfig.Env != "production",
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(pprof.New(pprof.Config{
		Next: func(c *fiber.Ctx) bool {
			return appConfig.Env == "production"
		},
	}))
	app.Use(healthcheck.New())
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.RateLimiter(50, 1*time.Minute))

	db := ConnectDB()

	jobRepo := repository.NewJobRepository(db)
	interviewRepo := repository.NewInterviewRepository(db)

	geminiConfig := config.LoadGeminiConfig()
	gemini, err := service.NewGeminiService(ctx, geminiConfig.APIKey, zapLogger)
	if err != nil {
		zapLogger.Fatal("gemini client init failed", zap.Error(err))
	}
	dialogue := service.NewDialogueService(gemini, geminiConfig.DialogueModel, zapLogger)
	finalizer := service.NewFeedbackService(gemini, geminiConfig.AnalysisModel, zapLogger)

	speechConfig := config.LoadSpeechConfig()
	azureSpeech := speech.NewAzureSpeech(
		speechConfig.Key,
		speechConfig.Region,
		speechConfig.Voice,
		speechConfig.Language,
		zapLogger,
	)

	uc := usecase.NewSessionUsecase(
		interviewRepo, jobRepo,
		dialogue, finalizer,
		azureSpeech, azureSpeech,
		zapLogger,
	)
	h := handler.NewInterviewHandler(uc, middleware.HeaderIdentityProvider{})
	h.RegisterRoutes(app)

	zapLogger.Info("server running", zap.String("port", appConfig.Port))
	if err := app.Listen(appConfig.Port); err != nil {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func ConnectDB() *gorm.DB {
	dbConfig := config.LoadDBConfig()
	appConfig := config.LoadAppConfig()

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		dbConfig.Host,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.Name,
		dbConfig.Port,
		dbConfig.SSLMode,
		dbConfig.TimeZone,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}
	pgDB, err := db.DB()
	if err != nil {
		log.Fatalf("Could not get database instance: %v", err)
	}
	if appConfig.Env != "production" {
		pgDB.SetMaxIdleConns(5)
		pgDB.SetMaxOpenConns(10)
		pgDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		pgDB.SetMaxIdleConns(20)
		pgDB.SetMaxOpenConns(200)
		pgDB.SetConnMaxLifetime(time.Hour)
	}

	if err := db.AutoMigrate(&model.Job{}, &model.Interview{}); err != nil {
		log.Fatal("migration failed: ", err)
	}
	return db
}
