package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron"

	config "crosspost/configs"
	"crosspost/internal/analytics"
	"crosspost/internal/api/handlers"
	"crosspost/internal/api/middleware"
	job "crosspost/internal/jobs"
	"crosspost/internal/models"
	"crosspost/internal/platform"
	"crosspost/internal/queue"
	"crosspost/internal/repository"
	"crosspost/internal/scheduler"
	"crosspost/internal/service"
	"crosspost/internal/token"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)

	twitterClient := platform.NewTwitterClient(*cfg)
	publishers := map[string]platform.Publisher{
		models.PlatformTwitter:   twitterClient,
		models.PlatformInstagram: platform.NewInstagramClient(),
		models.PlatformFacebook:  platform.NewFacebookClient(),
	}
	fetchers := map[string]analytics.Fetcher{
		models.PlatformTwitter:   analytics.NewTwitterFetcher(),
		models.PlatformInstagram: analytics.NewInstagramFetcher(),
		models.PlatformFacebook:  analytics.NewFacebookFetcher(),
	}

	guard := token.NewGuard(socialAccountRepo, twitterClient)
	sched := scheduler.New(postRepo, guard, publishers, fetchers)

	userService := service.NewUserService(userRepo)
	postService := service.NewPostService(postRepo, socialAccountRepo)
	accountService := service.NewAccountService(socialAccountRepo)
	storageService := service.NewStorageService(*cfg)
	twitterConnectService := service.NewTwitterConnectService(*cfg, socialAccountRepo)
	metaConnectService := service.NewMetaConnectService(*cfg, socialAccountRepo)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	connect := handlers.NewConnectHandler(*cfg, twitterConnectService, metaConnectService)
	schedule := handlers.NewScheduleHandler(*cfg, sched)

	app.Get("/api/schedule", schedule.Trigger)
	app.Post("/api/schedule", schedule.Trigger)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	api.Get("/connect/twitter", connect.TwitterConnect)
	api.Get("/connect/twitter/callback", connect.TwitterCallback)
	api.Get("/connect/meta", connect.MetaConnect)
	api.Get("/connect/meta/callback", connect.MetaCallback)

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)

	post := handlers.NewPostHandler(postService)
	api.Post("/posts/create", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Get("/posts/:id", post.GetPost)
	api.Put("/posts/:id", post.UpdatePost)
	api.Post("/posts/:id/retry", post.RetryPost)
	api.Delete("/posts/:id", post.RemovePost)

	account := handlers.NewAccountHandler(accountService)
	api.Get("/accounts", account.ListAccounts)
	api.Delete("/accounts/:id", account.DisconnectAccount)

	upload := handlers.NewUploadHandler(storageService)
	api.Post("/upload", upload.Upload)

	// cron jobs
	refreshTokenJob := job.NewTokenRefreshJob(socialAccountRepo, twitterClient)

	c := cron.New()
	c.AddFunc("@every 00h10m00s", refreshTokenJob.RefreshTokens)
	c.Start()

	//queue
	queueW := queue.NewQueue(sched)

	driver := queue.NewDriver(client)
	if err := driver.Start(); err != nil {
		log.Fatalf("Failed to start scheduler driver: %v", err)
	}
	defer driver.Stop()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeSchedulerRun, queueW.HandleSchedulerRun)
		mux.HandleFunc(queue.TaskTypeMetricsRefresh, queueW.HandleMetricsRefresh)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
