package main

import (
	"flag"
	"log/slog"
	"os"

	"sprintdesk/internal/config"
	"sprintdesk/internal/handler"
	"sprintdesk/internal/logger"
	"sprintdesk/internal/middleware"
	"sprintdesk/internal/model"
	"sprintdesk/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	configFile := flag.String("config", "", "config file path (e.g. etc/config-dev.yaml)")
	flag.Parse()

	cfg := config.Load(*configFile)
	logger.Init(cfg.Log)
	db, err := cfg.OpenGormDB()
	if err != nil {
		slog.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(
		&model.User{}, &model.Sprint{}, &model.IntakeData{},
		&model.SprintModule{}, &model.Comment{},
	); err != nil {
		slog.Error("migrate failed", "err", err)
		os.Exit(1)
	}

	authSvc := service.NewAuthService(db)
	sprintSvc := service.NewSprintService(db)
	moduleSvc := service.NewModuleService(db)
	intakeSvc := service.NewIntakeService(db)
	generatorSvc := service.NewGeneratorService(cfg.Generator.BaseURL, cfg.Generator.APIKey, cfg.Generator.Model)
	paymentSvc := service.NewPaymentService(cfg.Payments.BaseURL, cfg.Payments.APIKey, cfg.Payments.SuccessURL)

	authH := handler.NewAuthHandler(authSvc)
	sprintH := handler.NewSprintHandler(sprintSvc)
	moduleH := handler.NewModuleHandler(sprintSvc, moduleSvc, generatorSvc)
	intakeH := handler.NewIntakeHandler(sprintSvc, intakeSvc)
	commentH := handler.NewCommentHandler(sprintSvc, db)
	paymentH := handler.NewPaymentHandler(sprintSvc, paymentSvc)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.POST("/api/login", authH.Login)
	r.POST("/api/signup", authH.Signup)
	r.POST("/api/payments/confirm", paymentH.Confirm)

	api := r.Group("/api", middleware.JWTAuth())
	api.GET("/sprints", sprintH.List)
	api.GET("/sprints/:id", sprintH.Get)
	api.POST("/sprints/:id/status", middleware.ConsultantOnly(), sprintH.Transition)
	api.PUT("/sprints/:id/intake", intakeH.Update)
	api.GET("/sprints/:id/modules", moduleH.List)
	api.POST("/sprints/:id/modules/:type/data", moduleH.SaveData)
	api.POST("/sprints/:id/modules/:type/complete", moduleH.Complete)
	api.POST("/sprints/:id/modules/:type/generate", moduleH.Generate)
	moduleH.RegisterNamed(api)
	api.GET("/sprints/:id/comments", commentH.List)
	api.POST("/sprints/:id/comments", commentH.Create)
	api.POST("/sprints/:id/payment-link", paymentH.CreateLink)

	consultant := api.Group("/consultant", middleware.ConsultantOnly())
	consultant.POST("/create-sprint", sprintH.Create)

	slog.Info("server starting", "addr", cfg.Addr())
	if err := r.Run(cfg.Addr()); err != nil {
		slog.Error("server failed", "err", err)
	}
}
