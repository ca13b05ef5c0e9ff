package kis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kr-equities/aegis-quant/pkg/config"
	"github.com/kr-equities/aegis-quant/pkg/logger"
)

// WSClient is the vendor's real-time tick stream. It is never the
// authoritative price source (the REST poller is); it exists only as
// an advisory secondary feed that the realtime package may cross-check
// against cache staleness.
const (
	WSURLReal = "ws://ops.koreainvestment.com:21000/"
	WSURLDemo = "ws://ops.koreainvestment.com:31000/"

	TRIDTickReal = "H0STCNT0"

	MaxSubscriptionsPerSession = 41

	PingInterval          = 30 * time.Second
	ReconnectInitialDelay = 1 * time.Second
	ReconnectMaxDelay     = 30 * time.Second
	MaxReconnectAttempts  = 10
)

// TickData represents a single real-time price tick from the vendor stream.
type TickData struct {
	Symbol     string    `json:"symbol"`
	Price      int64     `json:"price"`
	Change     int64     `json:"change"`
	ChangeRate float64   `json:"change_rate"`
	Volume     int64     `json:"volume"`
	AccVolume  int64     `json:"acc_volume"`
	TradeTime  string    `json:"trade_time"`
	ReceivedAt time.Time `json:"received_at"`
}

// WSClient handles the KIS tick WebSocket connection.
type WSClient struct {
	cfg         config.KISConfig
	logger      *logger.Logger
	approvalKey string

	conn      *websocket.Conn
	connMu    sync.Mutex
	connected bool

	subscriptions map[string]bool
	subMu         sync.RWMutex

	onTick       func(*TickData)
	onError      func(error)
	onConnected  func()
	onDisconnect func()

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewWSClient creates a new WebSocket client.
func NewWSClient(cfg config.KISConfig, log *logger.Logger) *WSClient {
	return &WSClient{
		cfg:           cfg,
		logger:        log,
		subscriptions: make(map[string]bool),
		stopCh:        make(chan struct{}),
	}
}

func (c *WSClient) OnTick(fn func(*TickData))    { c.onTick = fn }
func (c *WSClient) OnError(fn func(error))       { c.onError = fn }
func (c *WSClient) OnConnected(fn func())        { c.onConnected = fn }
func (c *WSClient) OnDisconnect(fn func())       { c.onDisconnect = fn }

// Connect establishes the WebSocket connection and starts its loops.
func (c *WSClient) Connect(ctx context.Context) error {
	if err := c.getApprovalKey(ctx); err != nil {
		return fmt.Errorf("get approval key: %w", err)
	}

	if err := c.connect(ctx); err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	c.logger.Info("KIS tick WebSocket connected")
	return nil
}

func (c *WSClient) getApprovalKey(ctx context.Context) error {
	url := c.cfg.BaseURL + "/oauth2/Approval"
	body := map[string]string{
		"grant_type": "client_credentials",
		"appkey":     c.cfg.AppKey,
		"secretkey":  c.cfg.AppSecret,
	}

	bodyBytes, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(bodyBytes)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var result struct {
		ApprovalKey string `json:"approval_key"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return err
	}

	c.approvalKey = result.ApprovalKey
	return nil
}

func (c *WSClient) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	wsURL := WSURLReal
	if c.cfg.IsVirtual {
		wsURL = WSURLDemo
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return err
	}

	c.conn = conn
	c.connected = true

	if c.onConnected != nil {
		c.onConnected()
	}
	return nil
}

// Disconnect closes the connection and waits for its loops to exit.
func (c *WSClient) Disconnect() error {
	close(c.stopCh)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.connected = false
	}
	c.connMu.Unlock()

	c.wg.Wait()

	if c.onDisconnect != nil {
		c.onDisconnect()
	}
	c.logger.Info("KIS tick WebSocket disconnected")
	return nil
}

func (c *WSClient) IsConnected() bool {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.connected
}

// Subscribe adds tick-data subscriptions for the given symbols.
func (c *WSClient) Subscribe(symbols ...string) error {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	for _, symbol := range symbols {
		if c.subscriptions[symbol] {
			continue
		}
		if len(c.subscriptions) >= MaxSubscriptionsPerSession {
			return fmt.Errorf("max subscriptions reached (%d)", MaxSubscriptionsPerSession)
		}
		if err := c.sendSubscribe(symbol, "1"); err != nil {
			return fmt.Errorf("subscribe %s: %w", symbol, err)
		}
		c.subscriptions[symbol] = true
	}
	return nil
}

// Unsubscribe removes tick-data subscriptions for the given symbols.
func (c *WSClient) Unsubscribe(symbols ...string) error {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	for _, symbol := range symbols {
		if !c.subscriptions[symbol] {
			continue
		}
		if err := c.sendSubscribe(symbol, "2"); err != nil {
			return fmt.Errorf("unsubscribe %s: %w", symbol, err)
		}
		delete(c.subscriptions, symbol)
	}
	return nil
}

func (c *WSClient) sendSubscribe(symbol, trType string) error {
	msg := wsMessage{
		Header: wsHeader{ApprovalKey: c.approvalKey, Custtype: "P", TrType: trType, ContentType: "utf-8"},
		Body:   wsBody{Input: wsInput{TrID: TRIDTickReal, TrKey: symbol}},
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteJSON(msg)
}

func (c *WSClient) GetSubscriptions() []string {
	c.subMu.RLock()
	defer c.subMu.RUnlock()

	symbols := make([]string, 0, len(c.subscriptions))
	for symbol := range c.subscriptions {
		symbols = append(symbols, symbol)
	}
	return symbols
}

func (c *WSClient) SubscriptionCount() int {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return len(c.subscriptions)
}

func (c *WSClient) readLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopCh:
			return
		default:
		}

		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			if c.onError != nil {
				c.onError(fmt.Errorf("read error: %w", err))
			}
			c.handleDisconnect()
			return
		}

		c.handleMessage(message)
	}
}

func (c *WSClient) handleMessage(data []byte) {
	if strings.Contains(string(data), "PINGPONG") {
		c.connMu.Lock()
		if c.conn != nil {
			c.conn.WriteMessage(websocket.TextMessage, data)
		}
		c.connMu.Unlock()
		return
	}

	// KIS format: encrypted|TR_ID|count|data
	parts := strings.Split(string(data), "|")
	if len(parts) < 4 {
		return // JSON response (subscription confirmation)
	}

	trID := parts[1]
	body := parts[3]

	if trID == TRIDTickReal {
		tick := c.parseTickData(body)
		if tick != nil && c.onTick != nil {
			c.onTick(tick)
		}
	}
}

// parseTickData parses tick data from KIS's caret-delimited format.
// Fields: symbol^time^price^sign^change^changeRate^...^volume^accVolume^...
func (c *WSClient) parseTickData(body string) *TickData {
	fields := strings.Split(body, "^")
	if len(fields) < 14 {
		return nil
	}

	price, _ := strconv.ParseInt(fields[2], 10, 64)
	change, _ := strconv.ParseInt(fields[4], 10, 64)
	changeRate, _ := strconv.ParseFloat(fields[5], 64)
	volume, _ := strconv.ParseInt(fields[12], 10, 64)
	accVolume, _ := strconv.ParseInt(fields[13], 10, 64)

	return &TickData{
		Symbol:     fields[0],
		Price:      price,
		Change:     change,
		ChangeRate: changeRate,
		Volume:     volume,
		AccVolume:  accVolume,
		TradeTime:  fields[1],
		ReceivedAt: time.Now(),
	}
}

func (c *WSClient) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					c.connMu.Unlock()
					if c.onError != nil {
						c.onError(fmt.Errorf("ping error: %w", err))
					}
					c.handleDisconnect()
					return
				}
			}
			c.connMu.Unlock()
		}
	}
}

func (c *WSClient) handleDisconnect() {
	c.connMu.Lock()
	c.connected = false
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	if c.onDisconnect != nil {
		c.onDisconnect()
	}
}

// Reconnect retries the connection with exponential backoff and restores subscriptions.
func (c *WSClient) Reconnect(ctx context.Context) error {
	delay := ReconnectInitialDelay

	for attempt := 1; attempt <= MaxReconnectAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		if err := c.getApprovalKey(ctx); err != nil {
			delay = minDuration(delay*2, ReconnectMaxDelay)
			continue
		}

		if err := c.connect(ctx); err != nil {
			delay = minDuration(delay*2, ReconnectMaxDelay)
			continue
		}

		c.subMu.RLock()
		symbols := make([]string, 0, len(c.subscriptions))
		for symbol := range c.subscriptions {
			symbols = append(symbols, symbol)
		}
		c.subMu.RUnlock()

		c.subMu.Lock()
		c.subscriptions = make(map[string]bool)
		c.subMu.Unlock()

		for _, symbol := range symbols {
			c.Subscribe(symbol)
		}

		c.stopCh = make(chan struct{})
		c.wg.Add(2)
		go c.readLoop()
		go c.pingLoop()

		c.logger.Info("KIS tick WebSocket reconnected")
		return nil
	}

	return fmt.Errorf("max reconnect attempts reached")
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

type wsMessage struct {
	Header wsHeader `json:"header"`
	Body   wsBody   `json:"body,omitempty"`
}

type wsHeader struct {
	ApprovalKey string `json:"approval_key,omitempty"`
	Custtype    string `json:"custtype,omitempty"`
	TrType      string `json:"tr_type,omitempty"`
	ContentType string `json:"content-type,omitempty"`
}

type wsBody struct {
	Input wsInput `json:"input,omitempty"`
}

type wsInput struct {
	TrID  string `json:"tr_id"`
	TrKey string `json:"tr_key"`
}
