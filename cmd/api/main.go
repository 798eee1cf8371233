package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/handler"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logger"
	"storefront/internal/notification"
	"storefront/internal/server"
	"storefront/internal/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .envはあれば読む。なければ環境変数だけで動く。
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	if err := logger.Init(cfg.GoEnv); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.L()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.InventoryAdjustment{},
		&model.AuditLog{},
	); err != nil {
		log.Fatal("failed to migrate", zap.Error(err))
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	cartItemRepo := infraRepo.NewCartItemGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//通知worker。SMTP未設定ならログ出力のみ。
	var mailer notification.Mailer
	if cfg.SMTPHost != "" {
		mailer = notification.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	} else {
		mailer = notification.NewLogMailer(log)
	}
	worker := notification.NewWorker(mailer, 0, log)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	worker.Start(workerCtx)

	//Usecase生成
	authUC := usecase.NewAuthUsecase(userRepo, cfg.JWTSecret, log)
	productUC := usecase.NewProductUsecase(txManager, productRepo)
	cartUC := usecase.NewCartUsecase(cartItemRepo, productRepo)
	orderUC := usecase.NewOrderUsecase(txManager, userRepo, worker, log)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager, log)
	adminUserUC := usecase.NewAdminUserUsecase(userRepo, auditRepo, log)
	statsUC := usecase.NewStatsUsecase(orderRepo, productRepo, userRepo)

	//Handler生成＋ルート登録
	e := server.New()
	handler.NewAuthHandler(authUC).RegisterRoutes(e, cfg)
	handler.NewProductHandler(productUC).RegisterRoutes(e)
	handler.NewCartHandler(cartUC).RegisterRoutes(e, cfg)
	handler.NewOrderHandler(orderUC).RegisterRoutes(e, cfg)
	handler.NewAdminProductHandler(productUC).RegisterRoutes(e, cfg)
	handler.NewAdminOrderHandler(adminOrderUC).RegisterRoutes(e, cfg)
	handler.NewAdminUserHandler(adminUserUC).RegisterRoutes(e, cfg)
	handler.NewAdminStatsHandler(statsUC).RegisterRoutes(e, cfg)

	//Server起動
	go func() {
		addr := ":" + cfg.Port
		log.Info("server starting", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	//SIGINT/SIGTERMでgraceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn("failed to shutdown server cleanly", zap.Error(err))
	}

	//キューに残った通知を送りきってから終了する
	worker.Stop()
}
