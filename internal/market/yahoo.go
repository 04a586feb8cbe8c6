package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"OptionPilot/internal/model"
)

// YahooSource implements Source using the Yahoo Finance public API. All
// requests go through a shared rate limiter so batch scans don't hammer the
// venue.
type YahooSource struct {
	Client  *http.Client
	Limiter *rate.Limiter
}

// NewYahooSource creates a Yahoo Finance source with optional proxy support.
func NewYahooSource(proxyURL string) *YahooSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooSource{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		Limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 2),
	}
}

func (f *YahooSource) Name() string { return "yahoo" }

// yahooChart is the response structure from the Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// yahooOptions is the response structure from the Yahoo Finance options API.
type yahooOptions struct {
	OptionChain struct {
		Result []struct {
			ExpirationDates []int64 `json:"expirationDates"`
			Options         []struct {
				Calls []yahooContract `json:"calls"`
				Puts  []yahooContract `json:"puts"`
			} `json:"options"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"optionChain"`
}

type yahooContract struct {
	ContractSymbol    string  `json:"contractSymbol"`
	Strike            float64 `json:"strike"`
	Expiration        int64   `json:"expiration"`
	Bid               float64 `json:"bid"`
	Ask               float64 `json:"ask"`
	LastPrice         float64 `json:"lastPrice"`
	ImpliedVolatility float64 `json:"impliedVolatility"`
	Volume            float64 `json:"volume"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func (f *YahooSource) getJSON(ctx context.Context, u string, out interface{}) error {
	if err := f.Limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("yahoo decode: %w", err)
	}
	return nil
}

func (f *YahooSource) fetchChart(ctx context.Context, symbol, interval, rng string) ([]model.OHLCV, error) {
	u := fmt.Sprintf("https://query1.finance.yahoo.com/v8/finance/chart/%s?interval=%s&range=%s",
		url.PathEscape(symbol), interval, rng)

	var chart yahooChart
	if err := f.getJSON(ctx, u, &chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o := toFloat(quote.Open[i])
		h := toFloat(quote.High[i])
		l := toFloat(quote.Low[i])
		c := toFloat(quote.Close[i])
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: toFloat(quote.Volume[i]),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// GetBars fetches daily bars covering roughly lookbackDays, trimmed to the
// requested count.
func (f *YahooSource) GetBars(ctx context.Context, symbol string, lookbackDays int) ([]model.OHLCV, error) {
	// Yahoo range buckets; max "2y" for daily interval.
	rng := "2y"
	if lookbackDays <= 30 {
		rng = "1mo"
	} else if lookbackDays <= 90 {
		rng = "3mo"
	} else if lookbackDays <= 180 {
		rng = "6mo"
	} else if lookbackDays <= 365 {
		rng = "1y"
	}
	bars, err := f.fetchChart(ctx, symbol, "1d", rng)
	if err != nil {
		return nil, err
	}
	if len(bars) > lookbackDays {
		bars = bars[len(bars)-lookbackDays:]
	}
	return bars, nil
}

// GetLatestBar fetches the most recent daily bar.
func (f *YahooSource) GetLatestBar(ctx context.Context, symbol string) (model.OHLCV, error) {
	bars, err := f.fetchChart(ctx, symbol, "1d", "5d")
	if err != nil {
		return model.OHLCV{}, err
	}
	if len(bars) == 0 {
		return model.OHLCV{}, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	return bars[len(bars)-1], nil
}

// GetExpiries lists the available option expiry dates for a symbol.
func (f *YahooSource) GetExpiries(ctx context.Context, symbol string) ([]time.Time, error) {
	u := fmt.Sprintf("https://query1.finance.yahoo.com/v7/finance/options/%s", url.PathEscape(symbol))

	var chain yahooOptions
	if err := f.getJSON(ctx, u, &chain); err != nil {
		return nil, err
	}
	if chain.OptionChain.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chain.OptionChain.Error.Description)
	}
	if len(chain.OptionChain.Result) == 0 || len(chain.OptionChain.Result[0].ExpirationDates) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}

	dates := chain.OptionChain.Result[0].ExpirationDates
	out := make([]time.Time, len(dates))
	for i, ts := range dates {
		out[i] = time.Unix(ts, 0).UTC()
	}
	return out, nil
}

// GetOptionChain fetches the single-expiry chain for one side.
func (f *YahooSource) GetOptionChain(ctx context.Context, symbol string, expiry time.Time, dir model.Direction) ([]model.OptionContract, error) {
	u := fmt.Sprintf("https://query1.finance.yahoo.com/v7/finance/options/%s?date=%d",
		url.PathEscape(symbol), expiry.Unix())

	var chain yahooOptions
	if err := f.getJSON(ctx, u, &chain); err != nil {
		return nil, err
	}
	if chain.OptionChain.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chain.OptionChain.Error.Description)
	}
	if len(chain.OptionChain.Result) == 0 || len(chain.OptionChain.Result[0].Options) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}

	side := chain.OptionChain.Result[0].Options[0].Calls
	if dir == model.DirectionPut {
		side = chain.OptionChain.Result[0].Options[0].Puts
	}
	if len(side) == 0 {
		return nil, fmt.Errorf("%s %s: %w", symbol, dir, ErrNoData)
	}

	out := make([]model.OptionContract, 0, len(side))
	for _, c := range side {
		out = append(out, model.OptionContract{
			ContractSymbol:    c.ContractSymbol,
			Strike:            c.Strike,
			Expiry:            time.Unix(c.Expiration, 0).UTC(),
			Bid:               c.Bid,
			Ask:               c.Ask,
			LastPrice:         c.LastPrice,
			ImpliedVolatility: c.ImpliedVolatility,
			Volume:            c.Volume,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Strike < out[j].Strike })
	return out, nil
}
