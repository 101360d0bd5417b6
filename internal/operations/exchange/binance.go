package exchange

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"RLTradeBot/internal/models"
	"RLTradeBot/pkg/utils"

	"github.com/adshao/go-binance/v2/futures"
	"golang.org/x/time/rate"
)

// BinanceSource serves candles from the Binance futures API behind a
// rate limiter with retrying requests.
type BinanceSource struct {
	client      *futures.Client
	rateLimiter *rate.Limiter
	logger      *utils.Logger
}

func NewBinanceSource(apiKey, secretKey string, logger *utils.Logger) *BinanceSource {
	httpClient := &http.Client{
		Timeout: time.Second * 10,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	futuresClient := futures.NewClient(apiKey, secretKey)
	futuresClient.HTTPClient = httpClient

	// 10 requests per second with burst of 20
	limiter := rate.NewLimiter(rate.Limit(10), 20)

	return &BinanceSource{
		client:      futuresClient,
		rateLimiter: limiter,
		logger:      logger,
	}
}

// FetchLatestCandle returns the most recent candle for the symbol, or
// nil when the exchange has none.
func (s *BinanceSource) FetchLatestCandle(ctx context.Context, symbol, interval string) (*models.Candle, error) {
	klines, err := s.klines(ctx, symbol, interval, 1)
	if err != nil {
		return nil, err
	}
	if len(klines) == 0 {
		return nil, nil
	}
	candle := toCandle(klines[0], symbol, interval)
	return &candle, nil
}

// GetHistoricalData returns up to limit candles in chronological order,
// deduplicated by open time.
func (s *BinanceSource) GetHistoricalData(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	klines, err := s.klines(ctx, symbol, interval, limit)
	if err != nil {
		return nil, err
	}

	candles := make([]models.Candle, 0, len(klines))
	seen := make(map[int64]bool, len(klines))
	for _, k := range klines {
		if seen[k.OpenTime] {
			continue
		}
		seen[k.OpenTime] = true
		candles = append(candles, toCandle(k, symbol, interval))
	}
	return candles, nil
}

// SubscribeToKline streams closed candles through onCandle and returns
// an unsubscribe function.
func (s *BinanceSource) SubscribeToKline(symbol, interval string, onCandle func(models.Candle)) (func(), error) {
	handler := func(event *futures.WsKlineEvent) {
		k := event.Kline
		if !k.IsFinal {
			return
		}
		onCandle(models.Candle{
			Symbol:    symbol,
			TimeFrame: interval,
			OpenTime:  time.Unix(k.StartTime/1000, 0),
			CloseTime: time.Unix(k.EndTime/1000, 0),
			Open:      parseFloat(k.Open),
			High:      parseFloat(k.High),
			Low:       parseFloat(k.Low),
			Close:     parseFloat(k.Close),
			Volume:    parseFloat(k.Volume),
		})
	}
	errHandler := func(err error) {
		s.logger.Warn("exchange: kline stream for %s: %v", symbol, err)
	}

	doneC, stopC, err := futures.WsKlineServe(symbol, interval, handler, errHandler)
	if err != nil {
		return nil, err
	}

	return func() {
		close(stopC)
		<-doneC
	}, nil
}

func (s *BinanceSource) klines(ctx context.Context, symbol, interval string, limit int) ([]*futures.Kline, error) {
	maxRetries := 3
	backoff := 100 * time.Millisecond

	var klines []*futures.Kline
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err = s.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		klines, err = s.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			Limit(limit).
			Do(ctx)
		if err == nil {
			return klines, nil
		}
		if attempt == maxRetries {
			return nil, err
		}

		waitTime := time.Duration(math.Pow(2, float64(attempt))) * backoff
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(waitTime):
		}
	}

	return klines, err
}

func toCandle(k *futures.Kline, symbol, interval string) models.Candle {
	return models.Candle{
		Symbol:    symbol,
		TimeFrame: interval,
		OpenTime:  time.Unix(k.OpenTime/1000, 0),
		CloseTime: time.Unix(k.CloseTime/1000, 0),
		Open:      parseFloat(k.Open),
		High:      parseFloat(k.High),
		Low:       parseFloat(k.Low),
		Close:     parseFloat(k.Close),
		Volume:    parseFloat(k.Volume),
	}
}

func parseFloat(value string) float64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}
