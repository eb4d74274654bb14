package database

import (
	"context"
	"time"

	"schoolfee_backend/internals/configs"
	feeModel "schoolfee_backend/internals/features/finance/fee_structures/model"
	instModel "schoolfee_backend/internals/features/finance/institutions/model"
	payModel "schoolfee_backend/internals/features/finance/payments/model"
	stockModel "schoolfee_backend/internals/features/finance/stock/model"
	studentModel "schoolfee_backend/internals/features/finance/students/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func ConnectDB(cfg *configs.Config, log *zap.Logger) (*gorm.DB, error) {
	log.Info("🔌 connecting to PostgreSQL", zap.String("host", cfg.DB.Host), zap.String("db", cfg.DB.Name))

	level := gormLogger.Warn
	if !cfg.IsProduction() {
		level = gormLogger.Info
	}
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DB.DSN(),
		PreferSimpleProtocol: true, // PgBouncer transaction pooling
	}), &gorm.Config{
		Logger: configs.NewGormLogger(log, level),
	})
	if err != nil {
		return nil, err
	}
	log.Info("✅ DB connected")
	return db, nil
}

func TunePool(db *gorm.DB, cfg configs.DBConfig, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("pool tune", zap.Error(err))
		return
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

// WarmUp fills the pool in the background once the server is up.
func WarmUp(db *gorm.DB, log *zap.Logger) {
	go func() {
		time.Sleep(500 * time.Millisecond)
		sqlDB, err := db.DB()
		if err != nil {
			log.Warn("warm-up", zap.Error(err))
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(ctx); err != nil {
			log.Warn("warm-up ping", zap.Error(err))
		}
	}()
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&instModel.Institution{},
		&feeModel.FeeStructure{},
		&studentModel.Student{},
		&payModel.FeeTransaction{},
		&payModel.LedgerSequence{},
		&payModel.PaymentCheckout{},
		&stockModel.StockItem{},
		&stockModel.StockSale{},
	)
}
