package config

type Config struct {
	Exchange ExchangeConfig
	Database DatabaseConfig
	Trading  TradingConfig  `yaml:"trading"`
	Risk     RiskConfig     `yaml:"risk"`
	Strategy StrategyConfig `yaml:"strategy"`
	RL       RLConfig       `yaml:"rl"`
}

type ExchangeConfig struct {
	APIKey    string
	SecretKey string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

type TradingConfig struct {
	Symbols        []string `yaml:"symbols"`
	Timeframe      string   `yaml:"timeframe"`
	InitialBalance float64  `yaml:"initial_balance"`
}

// RiskConfig is loaded once at startup and read-only afterwards.
// Distances are fractions of entry price (0.02 = 2%).
type RiskConfig struct {
	MaxRiskPerTrade      float64 `yaml:"max_risk_per_trade"`
	MaxLeverage          float64 `yaml:"max_leverage"`
	MaxOpenPositions     int     `yaml:"max_open_positions"`
	StopLossDistance     float64 `yaml:"stop_loss_distance"`
	TakeProfitDistance   float64 `yaml:"take_profit_distance"`
	TrailingStopDistance float64 `yaml:"trailing_stop_distance"`
}

type StrategyConfig struct {
	Name                string  `yaml:"name"` // "ppo" or "default"
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	BaseSize            float64 `yaml:"base_size"`
}

type RLConfig struct {
	LearningRate    float64 `yaml:"learning_rate"`
	Gamma           float64 `yaml:"gamma"`
	Epsilon         float64 `yaml:"epsilon"`
	BatchSize       int     `yaml:"batch_size"`
	RetrainInterval int     `yaml:"retrain_interval"`
	ModelPath       string  `yaml:"model_path"`
}
