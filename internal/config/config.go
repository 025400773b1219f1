package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/josh-kwaku/evend-recon/internal/domain"
	"github.com/josh-kwaku/evend-recon/internal/reconcile"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	JWTSecret         string        `env:"JWT_SECRET,required,notEmpty"`
	JWTTTL            time.Duration `env:"JWT_TTL" envDefault:"24h"`
	AdminUsername     string        `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPasswordHash string        `env:"ADMIN_PASSWORD_HASH,required,notEmpty"`

	BankFeedMode    string        `env:"BANK_FEED_MODE" envDefault:"http"`
	BankFeedURL     string        `env:"BANK_FEED_URL" envDefault:"http://mock-bankfeed:8081"`
	BankFeedDir     string        `env:"BANK_FEED_DIR" envDefault:"./statements"`
	BankFeedTimeout time.Duration `env:"BANK_FEED_TIMEOUT" envDefault:"5s"`
	DeliveryURL     string        `env:"DELIVERY_URL" envDefault:"http://mock-bankfeed:8081"`

	ReconCurrency        string        `env:"RECON_CURRENCY" envDefault:"USD"`
	AmountToleranceCents int64         `env:"AMOUNT_TOLERANCE_CENTS" envDefault:"0"`
	DateToleranceDays    int           `env:"DATE_TOLERANCE_DAYS" envDefault:"0"`
	PriorityHighCents    int64         `env:"PRIORITY_HIGH_CENTS" envDefault:"100000"`
	PriorityMediumCents  int64         `env:"PRIORITY_MEDIUM_CENTS" envDefault:"10000"`
	RunTimeout           time.Duration `env:"RUN_TIMEOUT" envDefault:"2m"`

	AutoReconcile         bool   `env:"AUTO_RECONCILE" envDefault:"true"`
	AutoReconcileSchedule string `env:"AUTO_RECONCILE_SCHEDULE" envDefault:"0 30 1 * * *"`
	StatementWorkers      int    `env:"STATEMENT_WORKERS" envDefault:"4"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
	DBConnectAttempts  int `env:"DB_CONNECT_ATTEMPTS" envDefault:"30"`
}

// Load reads the environment, after filling it from a .env file in the
// working directory when one exists. Variables already set win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.PriorityMediumCents > c.PriorityHighCents:
		return fmt.Errorf("PRIORITY_MEDIUM_CENTS %d above PRIORITY_HIGH_CENTS %d", c.PriorityMediumCents, c.PriorityHighCents)
	case !domain.Currency(c.ReconCurrency).IsValid():
		return fmt.Errorf("RECON_CURRENCY %q: %w", c.ReconCurrency, domain.ErrInvalidCurrency)
	case c.AmountToleranceCents < 0 || c.DateToleranceDays < 0:
		return fmt.Errorf("tolerances must not be negative")
	case c.DateToleranceDays > reconcile.MaxDateToleranceDays:
		return fmt.Errorf("DATE_TOLERANCE_DAYS %d above %d", c.DateToleranceDays, reconcile.MaxDateToleranceDays)
	case c.StatementWorkers < 1:
		return fmt.Errorf("STATEMENT_WORKERS must be at least 1")
	case c.RunTimeout <= 0:
		return fmt.Errorf("RUN_TIMEOUT must be positive")
	}
	return nil
}
