package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"EtfSentry/internal/model"
)

const defaultEastMoneyBaseURL = "https://push2his.eastmoney.com"

// EastMoney fetches forward-adjusted daily klines from the EastMoney
// push2his endpoint. Requests are rate-limited so a pool-wide evaluation
// stays polite to the public API.
type EastMoney struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewEastMoney builds the fetcher. proxyURL and baseURL may be empty.
func NewEastMoney(baseURL, proxyURL string, timeout time.Duration, perSecond float64, log zerolog.Logger) *EastMoney {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = defaultEastMoneyBaseURL
	}
	if perSecond <= 0 {
		perSecond = 2
	}
	return &EastMoney{
		client:  &http.Client{Timeout: timeout, Transport: transport},
		baseURL: strings.TrimRight(baseURL, "/"),
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		log:     log.With().Str("provider", "eastmoney").Logger(),
	}
}

func (f *EastMoney) Name() string { return "eastmoney" }

// secid prefixes the exchange market code: Shanghai-listed funds start
// with 5, everything else in the pool trades in Shenzhen.
func secid(symbol string) string {
	if strings.HasPrefix(symbol, "5") || strings.HasPrefix(symbol, "6") {
		return "1." + symbol
	}
	return "0." + symbol
}

// klineResponse is the push2his kline payload. Each kline is a
// comma-separated string: date,open,close,high,low,volume,amount,...
type klineResponse struct {
	Data *struct {
		Code   string   `json:"code"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

func (f *EastMoney) Fetch(ctx context.Context, symbol string, lookbackBars int) (*model.MarketSnapshot, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("eastmoney %s: rate wait: %w: %v", symbol, model.ErrDataUnavailable, err)
	}

	q := url.Values{}
	q.Set("secid", secid(symbol))
	q.Set("fields1", "f1,f2,f3,f4,f5,f6")
	q.Set("fields2", "f51,f52,f53,f54,f55,f56,f57")
	q.Set("klt", "101") // daily
	q.Set("fqt", "1")   // forward adjusted
	q.Set("lmt", strconv.Itoa(lookbackBars))
	q.Set("end", "20500101")
	u := f.baseURL + "/api/qt/stock/kline/get?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("eastmoney %s: build request: %w", symbol, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("eastmoney %s: %w: %v", symbol, model.ErrDataUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("eastmoney %s: read body: %w: %v", symbol, model.ErrDataUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("eastmoney %s: status %d: %w", symbol, resp.StatusCode, model.ErrDataUnavailable)
	}

	var kr klineResponse
	if err := json.Unmarshal(body, &kr); err != nil {
		return nil, fmt.Errorf("eastmoney %s: decode: %w: %v", symbol, model.ErrDataUnavailable, err)
	}
	if kr.Data == nil || len(kr.Data.Klines) == 0 {
		return nil, fmt.Errorf("eastmoney %s: empty kline set: %w", symbol, model.ErrDataUnavailable)
	}

	bars := make([]model.OHLCV, 0, len(kr.Data.Klines))
	for _, line := range kr.Data.Klines {
		bar, err := parseKline(line)
		if err != nil {
			f.log.Warn().Str("symbol", symbol).Str("kline", line).Err(err).Msg("skipping malformed kline")
			continue
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("eastmoney %s: no parseable klines: %w", symbol, model.ErrDataUnavailable)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	if len(bars) > lookbackBars {
		bars = bars[len(bars)-lookbackBars:]
	}

	f.log.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("fetched daily klines")
	return &model.MarketSnapshot{Symbol: symbol, Bars: bars, FetchedAt: time.Now()}, nil
}

func parseKline(line string) (model.OHLCV, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 6 {
		return model.OHLCV{}, fmt.Errorf("kline has %d fields", len(fields))
	}
	ts, err := time.Parse("2006-01-02", fields[0])
	if err != nil {
		return model.OHLCV{}, fmt.Errorf("kline date %q: %w", fields[0], err)
	}
	vals := make([]float64, 5)
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return model.OHLCV{}, fmt.Errorf("kline field %d %q: %w", i+1, fields[i+1], err)
		}
		vals[i] = v
	}
	// Field order after the date: open, close, high, low, volume.
	return model.OHLCV{
		Time:   ts,
		Open:   vals[0],
		Close:  vals[1],
		High:   vals[2],
		Low:    vals[3],
		Volume: vals[4],
	}, nil
}
