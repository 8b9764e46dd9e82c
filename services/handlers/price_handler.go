package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/ido_api/dto"
	"github.com/lac-hong-legacy/ido_api/shared"
)

type PriceHandler struct {
	priceSvc PriceServiceInterface
}

func NewPriceHandler(priceSvc PriceServiceInterface) *PriceHandler {
	return &PriceHandler{
		priceSvc: priceSvc,
	}
}

// @Summary Get prices
// @Description Quotes keyed by lower-case symbol. Without symbols the top 50 by market cap are returned.
// @Tags prices
// @Produce json
// @Param symbols query string false "Comma separated symbols (max 100)"
// @Param vs_currency query string false "Quote currency" default(usd)
// @Param include_24hr_change query bool false "Include 24h change"
// @Param include_24hr_vol query bool false "Include 24h volume"
// @Param include_market_cap query bool false "Include market cap"
// @Success 200 {object} shared.Response{data=map[string]dto.PriceData}
// @Header 200 {string} X-Cache "HIT or MISS"
// @Failure 400 {object} shared.ErrorResponse
// @Router /api/prices [get]
func (h *PriceHandler) GetPrices(c *fiber.Ctx) error {
	var q dto.PriceQuery
	if err := parseQuery(c, &q); err != nil {
		return err
	}

	prices, hit, err := h.priceSvc.GetPrices(c.UserContext(), q)
	if err != nil {
		return err
	}

	setCacheHeader(c, hit)
	return shared.ResponseOK(c, prices)
}

// @Summary Compare prices
// @Tags prices
// @Produce json
// @Param symbols query string true "Comma separated symbols (2 to 10)"
// @Success 200 {object} shared.Response{data=dto.PriceComparison}
// @Failure 400 {object} shared.ErrorResponse
// @Router /api/prices/compare [get]
func (h *PriceHandler) Compare(c *fiber.Ctx) error {
	comparison, err := h.priceSvc.Compare(c.UserContext(), c.Query("symbols"))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, comparison)
}

// @Summary Trending prices
// @Description Quotes ordered by absolute 24h change
// @Tags prices
// @Produce json
// @Param limit query int false "Number of quotes (max 50)" default(20)
// @Param timeframe query string false "Timeframe" default(24h)
// @Success 200 {object} shared.Response{data=[]dto.TrendingPrice}
// @Header 200 {string} X-Cache "HIT or MISS"
// @Router /api/prices/trending [get]
func (h *PriceHandler) Trending(c *fiber.Ctx) error {
	prices, hit, err := h.priceSvc.Trending(c.UserContext(), c.QueryInt("limit"), c.Query("timeframe"))
	if err != nil {
		return err
	}

	setCacheHeader(c, hit)
	return shared.ResponseOK(c, prices)
}

// @Summary Get price
// @Tags prices
// @Produce json
// @Param symbol path string true "Symbol"
// @Param vs_currency query string false "Quote currency" default(usd)
// @Success 200 {object} shared.Response{data=dto.PriceData}
// @Header 200 {string} X-Cache "HIT or MISS"
// @Failure 404 {object} shared.ErrorResponse
// @Router /api/prices/{symbol} [get]
func (h *PriceHandler) GetPrice(c *fiber.Ctx) error {
	price, hit, err := h.priceSvc.GetPrice(c.UserContext(), c.Params("symbol"), c.Query("vs_currency"))
	if err != nil {
		return err
	}

	setCacheHeader(c, hit)
	return shared.ResponseOK(c, price)
}
