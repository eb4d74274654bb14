package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"go.uber.org/zap"

	"schoolfee_backend/internals/configs"
	database "schoolfee_backend/internals/databases"
	feeService "schoolfee_backend/internals/features/finance/fee_structures/service"
	instService "schoolfee_backend/internals/features/finance/institutions/service"
	payService "schoolfee_backend/internals/features/finance/payments/service"
	receiptService "schoolfee_backend/internals/features/finance/receipts/service"
	stockService "schoolfee_backend/internals/features/finance/stock/service"
	"schoolfee_backend/internals/features/finance/store/gormstore"
	studentService "schoolfee_backend/internals/features/finance/students/service"
	helperOSS "schoolfee_backend/internals/helpers/oss"
	middlewares "schoolfee_backend/internals/middlewares"
	routes "schoolfee_backend/internals/route"
)

func main() {
	cfg := configs.LoadEnv()
	log := configs.NewLogger(cfg)
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	app := fiber.New(fiber.Config{
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		DisableStartupMessage: true,
		ProxyHeader:           fiber.HeaderXForwardedFor,
		BodyLimit:             8 * 1024 * 1024,
	})

	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())
	middlewares.SetupMiddlewares(app, cfg, log)

	// 🔌 DB connect + pool + warm-up
	db, err := database.ConnectDB(cfg, log)
	if err != nil {
		log.Fatal("database connect", zap.Error(err))
	}
	database.TunePool(db, cfg.DB, log)
	if cfg.DB.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			log.Fatal("auto migrate", zap.Error(err))
		}
	}
	database.WarmUp(db, log)

	st := gormstore.New(db, cfg.Ledger.TxRetries, log)

	// object storage; local memory when OSS is not configured (development)
	var storage helperOSS.Storage
	if oss, err := helperOSS.NewOSSService(helperOSS.OSSConfig{
		Endpoint:        cfg.OSS.Endpoint,
		AccessKeyID:     cfg.OSS.AccessKeyID,
		AccessKeySecret: cfg.OSS.AccessKeySecret,
		Bucket:          cfg.OSS.Bucket,
		PublicBase:      cfg.OSS.PublicBase,
	}, log); err != nil {
		if cfg.IsProduction() {
			log.Fatal("oss", zap.Error(err))
		}
		log.Warn("⚠️ OSS unavailable, using in-memory storage", zap.Error(err))
		storage = helperOSS.NewMemStorage()
	} else {
		storage = oss
	}

	node, err := snowflake.NewNode(cfg.Ledger.SnowflakeNode)
	if err != nil {
		log.Fatal("snowflake node", zap.Error(err))
	}

	recorder := payService.NewPaymentRecorder(st, node, cfg.Ledger.ReceiptPrefix, log.Named("payments"))
	svc := routes.Services{
		Institutions:  instService.NewInstitutionService(st, log.Named("institutions")),
		FeeStructures: feeService.NewFeeStructureService(st, cfg.Ledger.FeeCacheTTL, log.Named("fee_structures")),
		Students:      studentService.NewStudentService(st, log.Named("students")),
		Media:         studentService.NewMediaService(st, storage, cfg.OSS.PresignTTL, cfg.OSS.AvatarMaxSide, log.Named("media")),
		Recorder:      recorder,
		Receipts:      receiptService.NewReceiptService(st, log.Named("receipts")),
		Stock:         stockService.NewStockService(st, node, cfg.Ledger.StockReceiptPrefix, log.Named("stock")),
	}

	// ✅ MIDTRANS
	var reaperStop func() context.Context
	if cfg.Midtrans.ServerKey != "" {
		client := payService.NewSnapClient(cfg.Midtrans.ServerKey, cfg.Midtrans.Production)
		svc.Gateway = payService.NewGatewayService(st, recorder, client, cfg.Midtrans.ServerKey, cfg.Midtrans.CheckoutTTL, log.Named("midtrans"))
		reaper, err := payService.StartCheckoutReaper(cfg.Midtrans.ExpireCron, svc.Gateway, log.Named("reaper"))
		if err != nil {
			log.Fatal("checkout reaper", zap.Error(err))
		}
		reaperStop = reaper.Stop
	}

	routes.SetupRoutes(app, cfg, func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}, svc, log)

	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	port := cfg.Port
	go func() {
		log.Info("✅ listening", zap.String("port", port))
		if err := app.Listen("0.0.0.0:" + port); err != nil {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	if reaperStop != nil {
		select {
		case <-reaperStop().Done():
		case <-ctx.Done():
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
