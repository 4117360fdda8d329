// Package binance implements broker.Gateway for Binance USDⓈ-M futures.
// Importing it registers the "binance" gateway.
package binance

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"golang.org/x/time/rate"

	"github.com/rustyeddy/futbot/broker"
	"github.com/rustyeddy/futbot/market"
)

func init() {
	broker.Register("binance", func(o broker.Options) (broker.Gateway, error) {
		return New(o)
	})
}

const (
	defaultRate  = 10
	defaultBurst = 20
)

// Gateway talks to the futures REST API through go-binance. Every call waits
// on a shared limiter first.
type Gateway struct {
	client  *futures.Client
	limiter *rate.Limiter
}

var _ broker.Gateway = (*Gateway)(nil)

func New(opts broker.Options) (*Gateway, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	futures.UseTestnet = opts.Testnet
	client := futures.NewClient(opts.APIKey, opts.APISecret)
	client.HTTPClient = httpClient
	if opts.BaseURL != "" {
		client.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}

	r, burst := opts.RateLimit, opts.Burst
	if r <= 0 {
		r = defaultRate
	}
	if burst <= 0 {
		burst = defaultBurst
	}

	return &Gateway{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(r), burst),
	}, nil
}

// Symbol converts "BTC/USDT" or "BTC/USDT:USDT" to the venue's "BTCUSDT".
func Symbol(s string) string {
	if i := strings.Index(s, ":"); i >= 0 {
		s = s[:i]
	}
	return strings.ToUpper(strings.ReplaceAll(s, "/", ""))
}

func (g *Gateway) wait(ctx context.Context) error {
	return g.limiter.Wait(ctx)
}

func (g *Gateway) Configure(ctx context.Context, s broker.Setup) error {
	sym := Symbol(s.Symbol)

	if s.MarginType != "" {
		mt, err := marginType(s.MarginType)
		if err != nil {
			return err
		}
		if err := g.wait(ctx); err != nil {
			return err
		}
		err = g.client.NewChangeMarginTypeService().Symbol(sym).MarginType(mt).Do(ctx)
		if err != nil && !broker.IsAlreadySet(err) {
			return fmt.Errorf("set margin type %s: %w", mt, err)
		}
	}

	if s.Leverage > 0 {
		if err := g.wait(ctx); err != nil {
			return err
		}
		_, err := g.client.NewChangeLeverageService().Symbol(sym).Leverage(s.Leverage).Do(ctx)
		if err != nil && !broker.IsAlreadySet(err) {
			return fmt.Errorf("set leverage %d: %w", s.Leverage, err)
		}
	}
	return nil
}

func marginType(s string) (futures.MarginType, error) {
	switch strings.ToLower(s) {
	case "isolated":
		return futures.MarginTypeIsolated, nil
	case "cross", "crossed":
		return futures.MarginTypeCrossed, nil
	}
	return "", fmt.Errorf("unknown margin type %q", s)
}

func (g *Gateway) FetchOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]market.Candle, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	klines, err := g.client.NewKlinesService().
		Symbol(Symbol(symbol)).
		Interval(timeframe).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch klines %s %s: %w", symbol, timeframe, err)
	}

	out := make([]market.Candle, 0, len(klines))
	for _, k := range klines {
		c, err := toCandle(k)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func toCandle(k *futures.Kline) (market.Candle, error) {
	var c market.Candle
	fields := []struct {
		dst *float64
		src string
	}{
		{&c.Open, k.Open},
		{&c.High, k.High},
		{&c.Low, k.Low},
		{&c.Close, k.Close},
		{&c.Volume, k.Volume},
	}
	for _, f := range fields {
		v, err := strconv.ParseFloat(f.src, 64)
		if err != nil {
			return market.Candle{}, fmt.Errorf("parse kline %d: %w", k.OpenTime, err)
		}
		*f.dst = v
	}
	c.Time = time.UnixMilli(k.OpenTime).UTC()
	return c, nil
}

func (g *Gateway) FetchServerTime(ctx context.Context) (time.Time, error) {
	if err := g.wait(ctx); err != nil {
		return time.Time{}, err
	}
	ms, err := g.client.NewServerTimeService().Do(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("fetch server time: %w", err)
	}
	return time.UnixMilli(ms).UTC(), nil
}

func (g *Gateway) FetchTicker(ctx context.Context, symbol string) (float64, error) {
	if err := g.wait(ctx); err != nil {
		return 0, err
	}
	sym := Symbol(symbol)
	prices, err := g.client.NewListPricesService().Symbol(sym).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch ticker %s: %w", sym, err)
	}
	for _, p := range prices {
		if p.Symbol == sym {
			return strconv.ParseFloat(p.Price, 64)
		}
	}
	return 0, fmt.Errorf("no ticker for %s", sym)
}

func (g *Gateway) FetchPosition(ctx context.Context, symbol string) (broker.Position, error) {
	if err := g.wait(ctx); err != nil {
		return broker.Position{}, err
	}
	sym := Symbol(symbol)
	risks, err := g.client.NewGetPositionRiskService().Symbol(sym).Do(ctx)
	if err != nil {
		return broker.Position{}, fmt.Errorf("fetch position %s: %w", sym, err)
	}

	// One-way mode reports a single BOTH row; sum in case of hedge mode.
	pos := broker.Position{Symbol: sym}
	for _, r := range risks {
		if r.Symbol != sym {
			continue
		}
		amt, err := strconv.ParseFloat(r.PositionAmt, 64)
		if err != nil {
			return broker.Position{}, fmt.Errorf("parse position amount %q: %w", r.PositionAmt, err)
		}
		if amt == 0 {
			continue
		}
		pos.Amount += amt
		pos.EntryPrice, _ = strconv.ParseFloat(r.EntryPrice, 64)
		upl, _ := strconv.ParseFloat(r.UnRealizedProfit, 64)
		pos.UnrealizedPL += upl
	}
	return pos, nil
}

func (g *Gateway) SubmitMarketOrder(ctx context.Context, symbol string, side market.Side, amount float64) (broker.OrderResult, error) {
	return g.submit(ctx, symbol, side, amount, false)
}

func (g *Gateway) SubmitReduceOnlyOrder(ctx context.Context, symbol string, side market.Side, amount float64) (broker.OrderResult, error) {
	return g.submit(ctx, symbol, side, amount, true)
}

func (g *Gateway) submit(ctx context.Context, symbol string, side market.Side, amount float64, reduceOnly bool) (broker.OrderResult, error) {
	bs, err := orderSide(side)
	if err != nil {
		return broker.OrderResult{}, err
	}
	if err := g.wait(ctx); err != nil {
		return broker.OrderResult{}, err
	}

	sym := Symbol(symbol)
	svc := g.client.NewCreateOrderService().
		Symbol(sym).
		Side(bs).
		Type(futures.OrderTypeMarket).
		Quantity(market.FormatAmount(amount)).
		NewOrderResponseType(futures.NewOrderRespTypeRESULT)
	if reduceOnly {
		svc = svc.ReduceOnly(true)
	}

	resp, err := svc.Do(ctx)
	if err != nil {
		return broker.OrderResult{}, fmt.Errorf("submit %s %s %s: %w", side, market.FormatAmount(amount), sym, err)
	}

	res := broker.OrderResult{
		ID:         strconv.FormatInt(resp.OrderID, 10),
		Symbol:     sym,
		Side:       side,
		Amount:     amount,
		Status:     string(resp.Status),
		ReduceOnly: reduceOnly,
		Time:       time.UnixMilli(resp.UpdateTime).UTC(),
	}
	if q, err := strconv.ParseFloat(resp.ExecutedQuantity, 64); err == nil && q > 0 {
		res.Amount = q
	}
	if p, err := strconv.ParseFloat(resp.AvgPrice, 64); err == nil {
		res.AvgPrice = p
	}
	return res, nil
}

func orderSide(s market.Side) (futures.SideType, error) {
	switch s {
	case market.Long:
		return futures.SideTypeBuy, nil
	case market.Short:
		return futures.SideTypeSell, nil
	}
	return "", fmt.Errorf("invalid side %q", s)
}
