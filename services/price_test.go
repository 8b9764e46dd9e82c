package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/ido_api/dto"
	"github.com/lac-hong-legacy/ido_api/model"
	"github.com/lac-hong-legacy/ido_api/services/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFeed struct {
	prices []model.PriceCache
	err    error
	asked  [][]string
}

func (s *stubFeed) FetchPrices(_ context.Context, symbols []string, _ string) ([]model.PriceCache, error) {
	s.asked = append(s.asked, symbols)
	return s.prices, s.err
}

func newPriceFixture(t *testing.T, feed PriceFeed) (*PriceService, *repositories.PriceRepository, *memoryStore) {
	t.Helper()
	db := newTestPostgres(t)
	repo := repositories.NewPriceRepository(db.Db())
	require.NoError(t, repo.UpsertPrices(context.Background(), []model.PriceCache{
		{Symbol: "BTC", Price: dec("65000"), PriceUsd: dec("65000"), Change24h: dec("2.5"), Volume24h: dec("30000000000"), MarketCap: dec("1280000000000"), LastUpdated: 1, Source: "seed"},
		{Symbol: "ETH", Price: dec("3200"), PriceUsd: dec("3200"), Change24h: dec("-4.1"), Volume24h: dec("15000000000"), MarketCap: dec("385000000000"), LastUpdated: 1, Source: "seed"},
		{Symbol: "SOL", Price: dec("150"), PriceUsd: dec("150"), Change24h: dec("7.2"), Volume24h: dec("2500000000"), MarketCap: dec("68000000000"), LastUpdated: 1, Source: "seed"},
	}))
	cache := newMemoryStore()
	return NewPriceService(repo, cache, feed, 30*time.Second), repo, cache
}

func TestParseSymbols(t *testing.T) {
	assert.Equal(t, []string{"BTC", "ETH"}, ParseSymbols(" btc, ,eth "))
	assert.Empty(t, ParseSymbols(""))
}

func TestGetPricesFiltersOptionalFields(t *testing.T) {
	svc, _, cache := newPriceFixture(t, nil)
	ctx := context.Background()

	prices, hit, err := svc.GetPrices(ctx, dto.PriceQuery{Symbols: "eth,btc", Include24hrChange: true})
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, prices, 2)
	require.NotNil(t, prices["btc"].Change24h)
	assert.True(t, dec("2.5").Equal(*prices["btc"].Change24h))
	assert.Nil(t, prices["btc"].Volume24h)
	assert.Nil(t, prices["eth"].MarketCap)
	assert.Equal(t, 30*time.Second, cache.ttls["prices:BTC,ETH:usd:true:false:false"])

	_, hit, err = svc.GetPrices(ctx, dto.PriceQuery{Symbols: "BTC,ETH", Include24hrChange: true})
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestGetPricesDefaultsToTopSymbols(t *testing.T) {
	svc, _, _ := newPriceFixture(t, nil)

	prices, _, err := svc.GetPrices(context.Background(), dto.PriceQuery{})
	require.NoError(t, err)
	assert.Len(t, prices, 3)
}

func TestGetPricesRejectsTooManySymbols(t *testing.T) {
	svc, _, _ := newPriceFixture(t, nil)

	raw := ""
	for i := 0; i < 101; i++ {
		raw += "S" + string(rune('A'+i%26)) + string(rune('A'+i/26)) + ","
	}
	_, _, err := svc.GetPrices(context.Background(), dto.PriceQuery{Symbols: raw})
	requireAppError(t, err, fiber.StatusBadRequest, "Maximum 100 symbols allowed per request")
}

func TestGetPriceUsesFeedForUnknownSymbols(t *testing.T) {
	feed := &stubFeed{prices: []model.PriceCache{{Symbol: "ARB", Price: dec("1.1"), PriceUsd: dec("1.1"), Source: "feed"}}}
	svc, repo, _ := newPriceFixture(t, feed)
	ctx := context.Background()

	price, hit, err := svc.GetPrice(ctx, "arb", "")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "ARB", price.Symbol)
	assert.Equal(t, [][]string{{"ARB"}}, feed.asked)

	stored, err := repo.GetPrice(ctx, "ARB")
	require.NoError(t, err)
	assert.Equal(t, "feed", stored.Source)
}

func TestGetPriceNotFound(t *testing.T) {
	svc, _, _ := newPriceFixture(t, nil)
	_, _, err := svc.GetPrice(context.Background(), "doge", "usd")
	requireAppError(t, err, fiber.StatusNotFound, "Price data for DOGE not found")

	failing, _, _ := newPriceFixture(t, &stubFeed{err: errors.New("timeout")})
	_, _, err = failing.GetPrice(context.Background(), "doge", "usd")
	requireAppError(t, err, fiber.StatusNotFound, "Price data for DOGE not found")
}

func TestComparePrices(t *testing.T) {
	svc, _, _ := newPriceFixture(t, nil)
	ctx := context.Background()

	_, err := svc.Compare(ctx, "BTC")
	requireAppError(t, err, fiber.StatusBadRequest, "At least 2 symbols required for comparison")
	_, err = svc.Compare(ctx, "A,B,C,D,E,F,G,H,I,J,K")
	requireAppError(t, err, fiber.StatusBadRequest, "Maximum 10 symbols allowed for comparison")

	cmp, err := svc.Compare(ctx, "sol,btc,eth")
	require.NoError(t, err)
	assert.Equal(t, []string{"SOL", "BTC", "ETH"}, cmp.Symbols)
	require.Len(t, cmp.Prices, 3)
	assert.Equal(t, "BTC", cmp.Prices[0].Symbol, "ordered by market cap")
	assert.Equal(t, "BTC", cmp.Analysis.HighestPrice.Symbol)
	assert.Equal(t, "SOL", cmp.Analysis.LowestPrice.Symbol)
	assert.Equal(t, "SOL", cmp.Analysis.HighestChange.Symbol)
	assert.Equal(t, "ETH", cmp.Analysis.LowestChange.Symbol)
	assert.Equal(t, "BTC", cmp.Analysis.HighestVolume.Symbol)
	assert.True(t, dec("1733000000000").Equal(cmp.Analysis.TotalMarketCap))
}

func TestTrendingPrices(t *testing.T) {
	svc, _, cache := newPriceFixture(t, nil)

	trending, hit, err := svc.Trending(context.Background(), 500, "")
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, trending, 3)
	assert.Equal(t, "SOL", trending[0].Symbol)
	assert.Equal(t, "up", trending[0].Trend)
	assert.Equal(t, "ETH", trending[1].Symbol)
	assert.Equal(t, "down", trending[1].Trend)
	assert.True(t, dec("4.1").Equal(trending[1].Volatility))
	assert.Equal(t, trendingPriceTTL, cache.ttls["trending_prices:50:24h"])
}
