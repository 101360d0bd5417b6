package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads the yaml parameter file, then overlays secrets and
// connection settings from the environment. The returned Config is
// immutable for the process lifetime.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env is optional when the environment is already populated
		fmt.Println("no .env file found, using environment values")
	}

	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	cfg.Exchange = ExchangeConfig{
		APIKey:    os.Getenv("BINANCE_API_KEY"),
		SecretKey: os.Getenv("BINANCE_SECRET_KEY"),
	}
	cfg.Database = DatabaseConfig{
		Host:     os.Getenv("DB_HOST"),
		Port:     EnvtoInt(os.Getenv("DB_PORT")),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   os.Getenv("DB_NAME"),
	}
	if symbols := os.Getenv("TRADING_SYMBOLS"); symbols != "" {
		cfg.Trading.Symbols = strings.Split(symbols, ",")
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Trading: TradingConfig{
			Symbols:        []string{"BTCUSDT", "ETHUSDT"},
			Timeframe:      "5m",
			InitialBalance: 10000,
		},
		Risk: RiskConfig{
			MaxRiskPerTrade:      0.02,
			MaxLeverage:          1,
			MaxOpenPositions:     1,
			StopLossDistance:     0.02,
			TakeProfitDistance:   0.04,
			TrailingStopDistance: 0.01,
		},
		Strategy: StrategyConfig{
			Name:                "ppo",
			ConfidenceThreshold: 0.2,
			BaseSize:            0.1,
		},
		RL: RLConfig{
			LearningRate:    0.001,
			Gamma:           0.95,
			Epsilon:         0.1,
			BatchSize:       32,
			RetrainInterval: 3600,
			ModelPath:       "models/agent.json",
		},
	}
}

// helper env(string) to int
func EnvtoInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}
