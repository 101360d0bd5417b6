package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"RLTradeBot/config"
	"RLTradeBot/internal/events"
	"RLTradeBot/internal/handlers"
	"RLTradeBot/internal/models"
	"RLTradeBot/internal/operations/backtest"
	"RLTradeBot/internal/operations/exchange"
	"RLTradeBot/internal/repositories"
	"RLTradeBot/internal/rl"
	"RLTradeBot/internal/services/indicators"
	"RLTradeBot/internal/services/market"
	"RLTradeBot/internal/services/risk"
	"RLTradeBot/internal/services/strategy"
	"RLTradeBot/pkg/utils"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const trainEpisodes = 10

func main() {
	mode := flag.String("mode", "backtest", "run mode: backtest, train, or paper")
	configPath := flag.String("config", "config.yaml", "path to the yaml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger := utils.NewLogger(os.Getenv("LOG_LEVEL"))

	db := setupDatabase(cfg.Database)
	candleRepo := repositories.NewCandleRepository(db)
	positionRepo := repositories.NewPositionRepository(db)
	tradeRepo := repositories.NewTradeRepository(db)

	source := exchange.NewBinanceSource(cfg.Exchange.APIKey, cfg.Exchange.SecretKey, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	seedCandles(ctx, source, candleRepo, cfg, logger)

	analyzer := market.NewAnalyzer()
	strat := strategy.New(cfg.Strategy.Name, cfg.Strategy.ConfidenceThreshold, cfg.Strategy.BaseSize)
	riskManager := risk.NewManager(cfg.Risk, cfg.Trading.InitialBalance, analyzer)
	engine := indicators.NewEngine()

	switch *mode {
	case "backtest":
		runBacktest(ctx, cfg, candleRepo, positionRepo, tradeRepo,
			strat, riskManager, analyzer, engine, logger)
	case "train":
		runTraining(ctx, cfg, candleRepo, riskManager, engine, logger)
	case "paper":
		runPaper(ctx, cfg, source, candleRepo, strat, riskManager, analyzer, engine, logger)
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}

func runBacktest(
	ctx context.Context,
	cfg *config.Config,
	candleRepo *repositories.CandleRepository,
	positionRepo *repositories.PositionRepository,
	tradeRepo *repositories.TradeRepository,
	strat strategy.Strategy,
	riskManager *risk.Manager,
	analyzer *market.Analyzer,
	engine *indicators.Engine,
	logger *utils.Logger,
) {
	backtestCfg := backtest.NewConfig()
	backtestCfg.Symbols = cfg.Trading.Symbols
	backtestCfg.TimeFrame = cfg.Trading.Timeframe
	backtestCfg.InitialBalance = cfg.Trading.InitialBalance

	runner := backtest.NewEngine(candleRepo, positionRepo, tradeRepo,
		strat, riskManager, analyzer, engine, logger, backtestCfg)
	results, err := runner.RunBacktest(ctx)
	if err != nil {
		log.Fatal("Backtest failed:", err)
	}

	fmt.Println("\n=== Backtest Results ===")
	fmt.Printf("Total Trades: %d\n", results.TotalTrades)
	fmt.Printf("Winning Trades: %d (%.2f%%)\n", results.WinningTrades, results.WinRate)
	fmt.Printf("Total PnL: $%.2f\n", results.TotalPnL)
	fmt.Printf("Average PnL: $%.2f\n", results.AveragePnL)
	fmt.Printf("Max Drawdown: %.2f%%\n", results.MaxDrawdown)
	fmt.Printf("Final Balance: $%.2f\n", results.FinalBalance)
	fmt.Printf("Sharpe Ratio: %.2f\n", results.SharpeRatio)
}

func runTraining(
	ctx context.Context,
	cfg *config.Config,
	candleRepo *repositories.CandleRepository,
	riskManager *risk.Manager,
	engine *indicators.Engine,
	logger *utils.Logger,
) {
	agent := rl.NewAgent(cfg.RL.LearningRate, cfg.RL.Gamma, cfg.RL.Epsilon,
		rand.New(rand.NewSource(time.Now().UnixNano())))
	env := rl.NewEnvironment(cfg.Trading.InitialBalance,
		rand.New(rand.NewSource(time.Now().UnixNano())))
	trainer := rl.NewTrainer(agent, env, engine, riskManager, rl.NewModelStore(),
		logger, cfg.RL.ModelPath, time.Duration(cfg.RL.RetrainInterval)*time.Second,
		cfg.RL.BatchSize)
	trainer.LoadModel()

	for _, symbol := range cfg.Trading.Symbols {
		candles, err := candleRepo.GetCandles(symbol, cfg.Trading.Timeframe, 1000)
		if err != nil {
			log.Fatal("Failed to load training candles:", err)
		}
		stats, err := trainer.Train(ctx, symbol, candles, trainEpisodes)
		if err != nil {
			log.Fatal("Training failed:", err)
		}
		fmt.Printf("%s: %d episodes, final balance %.2f, win rate %.2f, trades %d\n",
			symbol, stats.Episodes, stats.FinalBalance, stats.WinRate, stats.TradeCount)
	}
}

func runPaper(
	ctx context.Context,
	cfg *config.Config,
	source *exchange.BinanceSource,
	candleRepo *repositories.CandleRepository,
	strat strategy.Strategy,
	riskManager *risk.Manager,
	analyzer *market.Analyzer,
	engine *indicators.Engine,
	logger *utils.Logger,
) {
	paper := exchange.NewPaperExchange(cfg.Trading.InitialBalance, logger)

	emitter := events.NewEmitter()
	emitter.SubscribeSignal(func(event events.SignalEvent) {
		logger.Info("signal: %s %s conf %.2f at %.4f",
			event.Symbol, event.Action, event.Confidence, event.Price)
	})
	emitter.SubscribeMetrics(func(event events.MetricsEvent) {
		logger.Info("metrics: balance %.2f, drawdown %.4f, trades %d, win rate %.2f",
			event.Balance, event.Drawdown, event.TradeCount, event.WinRate)
	})

	bot := handlers.NewBotHandler(source, candleRepo, analyzer, engine,
		strat, riskManager, paper, emitter, logger,
		cfg.Trading.Symbols, cfg.Trading.Timeframe)

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("Paper trading stopped:", err)
	}
	logger.Info("shutdown complete, final balance %.2f", paper.Balance())
}

// seedCandles pulls recent history into the candle store so backtests
// and training have data to work with.
func seedCandles(ctx context.Context, source *exchange.BinanceSource, candleRepo *repositories.CandleRepository, cfg *config.Config, logger *utils.Logger) {
	for _, symbol := range cfg.Trading.Symbols {
		candles, err := source.GetHistoricalData(ctx, symbol, cfg.Trading.Timeframe, 1000)
		if err != nil {
			logger.Warn("seeding %s: %v", symbol, err)
			continue
		}
		if err := candleRepo.CreateBatch(candles); err != nil {
			logger.Warn("storing candles for %s: %v", symbol, err)
			continue
		}
		logger.Info("seeded %d candles for %s", len(candles), symbol)
	}
}

func setupDatabase(dbConfig config.DatabaseConfig) *gorm.DB {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Error),
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := db.AutoMigrate(&models.Candle{}, &models.Position{}, &models.TradeRecord{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	return db
}
