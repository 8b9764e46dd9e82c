package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/ido_api/dto"
	"github.com/lac-hong-legacy/ido_api/model"
	"github.com/lac-hong-legacy/ido_api/services/repositories"
	"github.com/lac-hong-legacy/ido_api/shared"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PRICE_SVC = "price_svc"

	defaultVsCurrency   = "usd"
	defaultPriceSymbols = 50
	maxPriceSymbols     = 100
	minCompareSymbols   = 2
	maxCompareSymbols   = 10
	maxTrendingPrices   = 50
	trendingPriceTTL    = 120 * time.Second
)

type PriceStore interface {
	GetPrice(ctx context.Context, symbol string) (*model.PriceCache, error)
	GetPrices(ctx context.Context, symbols []string) ([]model.PriceCache, error)
	TopSymbols(ctx context.Context, limit int) ([]string, error)
	TrendingPrices(ctx context.Context, limit int) ([]model.PriceCache, error)
	UpsertPrices(ctx context.Context, prices []model.PriceCache) error
}

// PriceFeed fetches quotes the price table does not have yet.
type PriceFeed interface {
	FetchPrices(ctx context.Context, symbols []string, vsCurrency string) ([]model.PriceCache, error)
}

// noopPriceFeed never knows any symbol. No external market data provider is wired.
type noopPriceFeed struct{}

func (noopPriceFeed) FetchPrices(context.Context, []string, string) ([]model.PriceCache, error) {
	return nil, nil
}

type PriceService struct {
	appContext.DefaultService

	store    PriceStore
	cache    CounterStore
	feed     PriceFeed
	priceTTL time.Duration
}

func NewPriceService(store PriceStore, cache CounterStore, feed PriceFeed, priceTTL time.Duration) *PriceService {
	if feed == nil {
		feed = noopPriceFeed{}
	}
	return &PriceService{store: store, cache: cache, feed: feed, priceTTL: priceTTL}
}

func (svc PriceService) Id() string {
	return PRICE_SVC
}

func (svc *PriceService) Configure(ctx *appContext.Context) error {
	cfg := ctx.Service(CONFIG_SVC).(*ConfigService).Config()
	svc.priceTTL = time.Duration(cfg.CacheTTLPrices) * time.Second
	svc.feed = noopPriceFeed{}
	return svc.DefaultService.Configure(ctx)
}

func (svc *PriceService) Start() error {
	svc.store = repositories.NewPriceRepository(svc.Service(POSTGRES_SVC).(*PostgresService).Db())
	svc.cache = svc.Service(REDIS_SVC).(*RedisService)
	return nil
}

// ParseSymbols splits a comma separated list into trimmed upper-case symbols.
func ParseSymbols(raw string) []string {
	parts := strings.Split(raw, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.ToUpper(strings.TrimSpace(p)); s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols
}

// GetPrices returns quotes keyed by lower-case symbol. Without symbols the top
// 50 by market cap are used.
func (svc *PriceService) GetPrices(ctx context.Context, q dto.PriceQuery) (map[string]dto.PriceData, bool, error) {
	vs := strings.ToLower(q.VsCurrency)
	if vs == "" {
		vs = defaultVsCurrency
	}

	var symbols []string
	if strings.TrimSpace(q.Symbols) != "" {
		symbols = ParseSymbols(q.Symbols)
	} else {
		top, err := svc.store.TopSymbols(ctx, defaultPriceSymbols)
		if err != nil {
			return nil, false, shared.NewInternalError(err, "Failed to load top symbols")
		}
		symbols = top
	}
	if len(symbols) > maxPriceSymbols {
		return nil, false, shared.NewValidationError(nil, "Maximum 100 symbols allowed per request")
	}

	sorted := append([]string(nil), symbols...)
	sort.Strings(sorted)
	key := fmt.Sprintf("prices:%s:%s:%t:%t:%t", strings.Join(sorted, ","), vs,
		q.Include24hrChange, q.Include24hrVol, q.IncludeMarketCap)

	var cached map[string]dto.PriceData
	if readCache(ctx, svc.cache, key, &cached) {
		return cached, true, nil
	}

	rows, err := svc.store.GetPrices(ctx, symbols)
	if err != nil {
		return nil, false, shared.NewInternalError(err, "Failed to load prices")
	}

	found := make(map[string]bool, len(rows))
	for _, row := range rows {
		found[row.Symbol] = true
	}
	var missing []string
	for _, s := range symbols {
		if !found[s] {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		rows = append(rows, svc.fetchMissing(ctx, missing, vs)...)
	}

	prices := make(map[string]dto.PriceData, len(rows))
	for _, row := range rows {
		data := toPriceData(row)
		if !q.Include24hrChange {
			data.Change24h = nil
		}
		if !q.Include24hrVol {
			data.Volume24h = nil
		}
		if !q.IncludeMarketCap {
			data.MarketCap = nil
		}
		prices[strings.ToLower(row.Symbol)] = data
	}

	writeCache(ctx, svc.cache, key, prices, svc.priceTTL)
	return prices, false, nil
}

func (svc *PriceService) GetPrice(ctx context.Context, symbol, vsCurrency string) (*dto.PriceData, bool, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, false, shared.NewValidationError(nil, "Invalid symbol format")
	}
	vs := strings.ToLower(vsCurrency)
	if vs == "" {
		vs = defaultVsCurrency
	}
	key := fmt.Sprintf("price:%s:%s", symbol, vs)

	var cached dto.PriceData
	if readCache(ctx, svc.cache, key, &cached) {
		return &cached, true, nil
	}

	row, err := svc.store.GetPrice(ctx, symbol)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, shared.NewInternalError(err, "Failed to load price")
	}
	if row == nil {
		fetched := svc.fetchMissing(ctx, []string{symbol}, vs)
		if len(fetched) == 0 {
			return nil, false, shared.NewNotFoundError(nil, fmt.Sprintf("Price data for %s not found", symbol))
		}
		row = &fetched[0]
	}

	data := toPriceData(*row)
	writeCache(ctx, svc.cache, key, data, svc.priceTTL)
	return &data, false, nil
}

// Compare returns the quotes for 2 to 10 symbols ordered by market cap, with
// the extremes of each metric.
func (svc *PriceService) Compare(ctx context.Context, raw string) (*dto.PriceComparison, error) {
	symbols := ParseSymbols(raw)
	if len(symbols) < minCompareSymbols {
		return nil, shared.NewValidationError(nil, "At least 2 symbols required for comparison")
	}
	if len(symbols) > maxCompareSymbols {
		return nil, shared.NewValidationError(nil, "Maximum 10 symbols allowed for comparison")
	}

	rows, err := svc.store.GetPrices(ctx, symbols)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load prices")
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].MarketCap.GreaterThan(rows[j].MarketCap)
	})

	prices := make([]dto.PriceData, 0, len(rows))
	for _, row := range rows {
		data := toPriceData(row)
		data.Source = ""
		prices = append(prices, data)
	}

	return &dto.PriceComparison{
		Symbols:  symbols,
		Prices:   prices,
		Analysis: analyzePrices(prices),
	}, nil
}

// Trending orders quotes by absolute 24h change; limit defaults to 20 and is capped at 50.
func (svc *PriceService) Trending(ctx context.Context, limit int, timeframe string) ([]dto.TrendingPrice, bool, error) {
	limit = clampLimit(limit, 20, maxTrendingPrices)
	if timeframe == "" {
		timeframe = "24h"
	}
	key := fmt.Sprintf("trending_prices:%d:%s", limit, timeframe)

	var cached []dto.TrendingPrice
	if readCache(ctx, svc.cache, key, &cached) {
		return cached, true, nil
	}

	rows, err := svc.store.TrendingPrices(ctx, limit)
	if err != nil {
		return nil, false, shared.NewInternalError(err, "Failed to load trending prices")
	}

	trending := make([]dto.TrendingPrice, 0, len(rows))
	for _, row := range rows {
		trend := "down"
		if row.Change24h.IsPositive() {
			trend = "up"
		}
		data := toPriceData(row)
		data.Source = ""
		trending = append(trending, dto.TrendingPrice{
			PriceData:  data,
			Trend:      trend,
			Volatility: row.Change24h.Abs(),
		})
	}

	writeCache(ctx, svc.cache, key, trending, trendingPriceTTL)
	return trending, false, nil
}

// fetchMissing asks the feed for unknown symbols and persists what it returns.
// Feed and persistence failures are logged and treated as no data.
func (svc *PriceService) fetchMissing(ctx context.Context, symbols []string, vs string) []model.PriceCache {
	fetched, err := svc.feed.FetchPrices(ctx, symbols, vs)
	if err != nil {
		log.Warn().Err(err).Strs("symbols", symbols).Msg("Price feed request failed")
		return nil
	}
	if len(fetched) == 0 {
		return nil
	}
	if err := svc.store.UpsertPrices(ctx, fetched); err != nil {
		log.Warn().Err(err).Strs("symbols", symbols).Msg("Failed to persist fetched prices")
	}
	return fetched
}

func toPriceData(row model.PriceCache) dto.PriceData {
	change, volume, marketCap := row.Change24h, row.Volume24h, row.MarketCap
	return dto.PriceData{
		Symbol:      row.Symbol,
		Price:       row.Price,
		PriceUsd:    row.PriceUsd,
		Change24h:   &change,
		Volume24h:   &volume,
		MarketCap:   &marketCap,
		LastUpdated: row.LastUpdated,
		Source:      row.Source,
	}
}

func analyzePrices(prices []dto.PriceData) dto.PriceAnalysis {
	analysis := dto.PriceAnalysis{TotalMarketCap: decimal.Zero}
	if len(prices) == 0 {
		return analysis
	}

	value := func(d *decimal.Decimal) decimal.Decimal {
		if d == nil {
			return decimal.Zero
		}
		return *d
	}

	hp, lp, hc, lc, hv := &prices[0], &prices[0], &prices[0], &prices[0], &prices[0]
	for i := range prices {
		p := &prices[i]
		if p.Price.GreaterThan(hp.Price) {
			hp = p
		}
		if p.Price.LessThan(lp.Price) {
			lp = p
		}
		if value(p.Change24h).GreaterThan(value(hc.Change24h)) {
			hc = p
		}
		if value(p.Change24h).LessThan(value(lc.Change24h)) {
			lc = p
		}
		if value(p.Volume24h).GreaterThan(value(hv.Volume24h)) {
			hv = p
		}
		analysis.TotalMarketCap = analysis.TotalMarketCap.Add(value(p.MarketCap))
	}

	analysis.HighestPrice = hp
	analysis.LowestPrice = lp
	analysis.HighestChange = hc
	analysis.LowestChange = lc
	analysis.HighestVolume = hv
	return analysis
}
