package configs

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// =======================
// CONFIG
// =======================

type Config struct {
	AppEnv      string
	Port        string
	LogLevel    string
	CORSOrigins []string

	DB       DBConfig
	JWT      JWTConfig
	OSS      OSSConfig
	Midtrans MidtransConfig
	Ledger   LedgerConfig
}

type DBConfig struct {
	Host             string
	Port             string
	User             string
	Password         string
	Name             string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	StatementTimeout time.Duration
	AutoMigrate      bool
}

type JWTConfig struct {
	Secret string
}

type OSSConfig struct {
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	PublicBase      string
	PresignTTL      time.Duration
	AvatarMaxSide   int
}

type MidtransConfig struct {
	ServerKey   string
	Production  bool
	CheckoutTTL time.Duration
	ExpireCron  string
}

type LedgerConfig struct {
	SnowflakeNode int64
	TxRetries     int
	FeeCacheTTL   time.Duration
	ReceiptPrefix string

	StockReceiptPrefix string
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=schoolfee&options=-c statement_timeout=%d",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode, c.StatementTimeout.Milliseconds(),
	)
}

func (c Config) IsProduction() bool { return strings.EqualFold(c.AppEnv, "production") }

// =======================
// ENV LOADER
// =======================

// LoadEnv reads .env (outside Railway) and layers environment variables over the defaults.
func LoadEnv() *Config {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ .env not found, using system environment")
		} else {
			log.Println("✅ .env loaded")
		}
	} else {
		log.Println("🚀 Running in Railway, using system environment")
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.env", "development")
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("cors.origins", "http://localhost:5173,http://localhost:5177")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "schoolfee")
	v.SetDefault("db.sslmode", "require")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.statement_timeout", 3*time.Second)
	v.SetDefault("db.auto_migrate", true)

	v.SetDefault("jwt.secret", "")

	v.SetDefault("ali.oss.endpoint", "")
	v.SetDefault("ali.oss.access_key", "")
	v.SetDefault("ali.oss.secret_key", "")
	v.SetDefault("ali.oss.bucket", "")
	v.SetDefault("ali.oss.public_base", "")
	v.SetDefault("ali.oss.presign_ttl", 15*time.Minute)
	v.SetDefault("ali.oss.avatar_max_side", 512)

	v.SetDefault("midtrans.server_key", "")
	v.SetDefault("midtrans.production", false)
	v.SetDefault("midtrans.checkout_ttl", 24*time.Hour)
	v.SetDefault("midtrans.expire_cron", "@every 5m")

	v.SetDefault("ledger.snowflake_node", 1)
	v.SetDefault("ledger.tx_retries", 5)
	v.SetDefault("ledger.fee_cache_ttl", 5*time.Minute)
	v.SetDefault("ledger.receipt_prefix", "FEE")
	v.SetDefault("ledger.stock_receipt_prefix", "STK")

	v.AutomaticEnv()
	return v
}

func FromViper(v *viper.Viper) *Config {
	cfg := &Config{
		AppEnv:      v.GetString("app.env"),
		Port:        v.GetString("port"),
		LogLevel:    v.GetString("log.level"),
		CORSOrigins: splitList(v.GetString("cors.origins")),
		DB: DBConfig{
			Host:             v.GetString("db.host"),
			Port:             v.GetString("db.port"),
			User:             v.GetString("db.user"),
			Password:         v.GetString("db.password"),
			Name:             v.GetString("db.name"),
			SSLMode:          v.GetString("db.sslmode"),
			MaxOpenConns:     v.GetInt("db.max_open_conns"),
			MaxIdleConns:     v.GetInt("db.max_idle_conns"),
			StatementTimeout: v.GetDuration("db.statement_timeout"),
			AutoMigrate:      v.GetBool("db.auto_migrate"),
		},
		JWT: JWTConfig{Secret: v.GetString("jwt.secret")},
		OSS: OSSConfig{
			Endpoint:        v.GetString("ali.oss.endpoint"),
			AccessKeyID:     v.GetString("ali.oss.access_key"),
			AccessKeySecret: v.GetString("ali.oss.secret_key"),
			Bucket:          v.GetString("ali.oss.bucket"),
			PublicBase:      v.GetString("ali.oss.public_base"),
			PresignTTL:      v.GetDuration("ali.oss.presign_ttl"),
			AvatarMaxSide:   v.GetInt("ali.oss.avatar_max_side"),
		},
		Midtrans: MidtransConfig{
			ServerKey:   v.GetString("midtrans.server_key"),
			Production:  v.GetBool("midtrans.production"),
			CheckoutTTL: v.GetDuration("midtrans.checkout_ttl"),
			ExpireCron:  v.GetString("midtrans.expire_cron"),
		},
		Ledger: LedgerConfig{
			SnowflakeNode: v.GetInt64("ledger.snowflake_node"),
			TxRetries:     v.GetInt("ledger.tx_retries"),
			FeeCacheTTL:   v.GetDuration("ledger.fee_cache_ttl"),
			ReceiptPrefix: v.GetString("ledger.receipt_prefix"),

			StockReceiptPrefix: v.GetString("ledger.stock_receipt_prefix"),
		},
	}

	if cfg.JWT.Secret == "" {
		log.Println("❌ JWT_SECRET is not set!")
	} else {
		log.Println("✅ JWT_SECRET loaded.")
	}
	if cfg.Midtrans.ServerKey == "" {
		log.Println("⚠️ MIDTRANS_SERVER_KEY is not set, online checkout disabled")
	}
	return cfg
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
