package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"OptionPilot/internal/model"
)

// DefaultAlpacaBaseURL points at the paper-trading environment.
const DefaultAlpacaBaseURL = "https://paper-api.alpaca.markets"

// AlpacaClient implements Broker against the Alpaca v2 REST API.
type AlpacaClient struct {
	BaseURL   string
	KeyID     string
	SecretKey string
	Client    *http.Client
}

// NewAlpacaClient creates a client with optional proxy support. An empty
// baseURL falls back to the paper-trading endpoint.
func NewAlpacaClient(baseURL, keyID, secretKey, proxyURL string) *AlpacaClient {
	if baseURL == "" {
		baseURL = DefaultAlpacaBaseURL
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &AlpacaClient{
		BaseURL:   baseURL,
		KeyID:     keyID,
		SecretKey: secretKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (a *AlpacaClient) Name() string { return "alpaca" }

// alpacaOrder is the wire representation; Alpaca sends numbers as strings.
type alpacaOrder struct {
	ID             string     `json:"id"`
	Symbol         string     `json:"symbol"`
	Side           string     `json:"side"`
	Qty            string     `json:"qty"`
	FilledQty      string     `json:"filled_qty"`
	Type           string     `json:"type"`
	LimitPrice     *string    `json:"limit_price"`
	TimeInForce    string     `json:"time_in_force"`
	Status         string     `json:"status"`
	FilledAvgPrice *string    `json:"filled_avg_price"`
	CreatedAt      time.Time  `json:"created_at"`
	FilledAt       *time.Time `json:"filled_at"`
}

type alpacaPosition struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	AvgEntryPrice string `json:"avg_entry_price"`
	CurrentPrice  string `json:"current_price"`
	UnrealizedPL  string `json:"unrealized_pl"`
}

type alpacaAccount struct {
	Equity      string `json:"equity"`
	Cash        string `json:"cash"`
	BuyingPower string `json:"buying_power"`
	LastEquity  string `json:"last_equity"`
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func parseInt(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func (o alpacaOrder) toModel() model.Order {
	out := model.Order{
		ID:          o.ID,
		Symbol:      o.Symbol,
		Side:        model.OrderSide(o.Side),
		Qty:         parseInt(o.Qty),
		FilledQty:   parseInt(o.FilledQty),
		Type:        model.OrderType(o.Type),
		TimeInForce: model.TimeInForce(o.TimeInForce),
		Status:      model.OrderStatus(o.Status),
		CreatedAt:   o.CreatedAt,
	}
	if o.LimitPrice != nil {
		out.LimitPrice = parseFloat(*o.LimitPrice)
	}
	if o.FilledAvgPrice != nil {
		out.FilledAvgPrice = parseFloat(*o.FilledAvgPrice)
	}
	if o.FilledAt != nil {
		out.FilledAt = *o.FilledAt
	}
	return out
}

func (a *AlpacaClient) do(ctx context.Context, op, method, path string, payload interface{}) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("APCA-API-KEY-ID", a.KeyID)
	req.Header.Set("APCA-API-SECRET-KEY", a.SecretKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, &BrokerError{Op: op, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &BrokerError{Op: op, Message: "read response: " + err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &BrokerError{Op: op, Message: fmt.Sprintf("status %d: %s", resp.StatusCode, string(respBody))}
	}
	return respBody, nil
}

func (a *AlpacaClient) SubmitOrder(ctx context.Context, req OrderRequest) (model.Order, error) {
	payload := map[string]string{
		"symbol":        req.Symbol,
		"side":          string(req.Side),
		"qty":           strconv.Itoa(req.Qty),
		"type":          string(req.Type),
		"time_in_force": string(req.TimeInForce),
	}
	if req.Type == model.TypeLimit {
		payload["limit_price"] = strconv.FormatFloat(req.LimitPrice, 'f', 2, 64)
	}

	body, err := a.do(ctx, "submit order", "POST", "/v2/orders", payload)
	if err != nil {
		return model.Order{}, err
	}
	var o alpacaOrder
	if err := json.Unmarshal(body, &o); err != nil {
		return model.Order{}, &BrokerError{Op: "submit order", Message: "decode response: " + err.Error()}
	}
	return o.toModel(), nil
}

func (a *AlpacaClient) GetOrder(ctx context.Context, id string) (model.Order, error) {
	body, err := a.do(ctx, "get order", "GET", "/v2/orders/"+url.PathEscape(id), nil)
	if err != nil {
		return model.Order{}, err
	}
	var o alpacaOrder
	if err := json.Unmarshal(body, &o); err != nil {
		return model.Order{}, &BrokerError{Op: "get order", Message: "decode response: " + err.Error()}
	}
	return o.toModel(), nil
}

func (a *AlpacaClient) CancelOrder(ctx context.Context, id string) (bool, error) {
	_, err := a.do(ctx, "cancel order", "DELETE", "/v2/orders/"+url.PathEscape(id), nil)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (a *AlpacaClient) ListOpenOrders(ctx context.Context, symbol string) ([]model.Order, error) {
	path := "/v2/orders?status=open"
	if symbol != "" {
		path += "&symbols=" + url.QueryEscape(symbol)
	}
	body, err := a.do(ctx, "list open orders", "GET", path, nil)
	if err != nil {
		return nil, err
	}
	var raw []alpacaOrder
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &BrokerError{Op: "list open orders", Message: "decode response: " + err.Error()}
	}
	out := make([]model.Order, len(raw))
	for i, o := range raw {
		out[i] = o.toModel()
	}
	return out, nil
}

func (a *AlpacaClient) ListPositions(ctx context.Context) ([]model.Position, error) {
	body, err := a.do(ctx, "list positions", "GET", "/v2/positions", nil)
	if err != nil {
		return nil, err
	}
	var raw []alpacaPosition
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &BrokerError{Op: "list positions", Message: "decode response: " + err.Error()}
	}
	out := make([]model.Position, len(raw))
	for i, p := range raw {
		out[i] = model.Position{
			Symbol:        p.Symbol,
			Qty:           parseInt(p.Qty),
			AvgEntryPrice: parseFloat(p.AvgEntryPrice),
			CurrentPrice:  parseFloat(p.CurrentPrice),
			UnrealizedPL:  parseFloat(p.UnrealizedPL),
		}
	}
	return out, nil
}

func (a *AlpacaClient) GetAccount(ctx context.Context) (model.Account, error) {
	body, err := a.do(ctx, "get account", "GET", "/v2/account", nil)
	if err != nil {
		return model.Account{}, err
	}
	var acct alpacaAccount
	if err := json.Unmarshal(body, &acct); err != nil {
		return model.Account{}, &BrokerError{Op: "get account", Message: "decode response: " + err.Error()}
	}
	return model.Account{
		Equity:      parseFloat(acct.Equity),
		Cash:        parseFloat(acct.Cash),
		BuyingPower: parseFloat(acct.BuyingPower),
		LastEquity:  parseFloat(acct.LastEquity),
	}, nil
}
