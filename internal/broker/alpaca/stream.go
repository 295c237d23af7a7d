package alpaca

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"TradeDesk/internal/domain/models"
	"TradeDesk/pkg/logger"
)

// StreamConfig holds websocket settings for the market-data stream.
type StreamConfig struct {
	URL          string // e.g. wss://stream.data.alpaca.markets/v2/iex
	Key          string
	Secret       string
	PingInterval time.Duration
}

// Stream implements repository.QuoteStream over Alpaca's data websocket.
type Stream struct {
	cfg StreamConfig
	log *logger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

func NewStream(cfg StreamConfig, log *logger.Logger) *Stream {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	return &Stream{cfg: cfg, log: log}
}

// Connect dials the websocket and authenticates.
func (s *Stream) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("stream connect: %w", err)
	}

	auth := map[string]string{"action": "auth", "key": s.cfg.Key, "secret": s.cfg.Secret}
	if err := conn.WriteJSON(auth); err != nil {
		conn.Close()
		return fmt.Errorf("stream auth: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()

	s.log.Info("quote stream connected", logger.String("url", s.cfg.URL))
	return nil
}

// Subscribe requests quote updates for symbols.
func (s *Stream) Subscribe(_ context.Context, symbols []string) error {
	return s.send(map[string]interface{}{"action": "subscribe", "quotes": symbols})
}

// Unsubscribe stops quote updates for symbols.
func (s *Stream) Unsubscribe(_ context.Context, symbols []string) error {
	return s.send(map[string]interface{}{"action": "unsubscribe", "quotes": symbols})
}

func (s *Stream) send(msg interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil || !s.connected {
		return fmt.Errorf("stream not connected")
	}
	return s.conn.WriteJSON(msg)
}

type wireStreamMessage struct {
	Type      string    `json:"T"`
	Symbol    string    `json:"S"`
	BidPrice  float64   `json:"bp"`
	AskPrice  float64   `json:"ap"`
	BidSize   int64     `json:"bs"`
	AskSize   int64     `json:"as"`
	Timestamp time.Time `json:"t"`
	Message   string    `json:"msg"`
}

// Read streams quote events and errors until the context is cancelled or
// the connection drops. Quotes are dropped on backpressure rather than
// blocking the read loop.
func (s *Stream) Read(ctx context.Context) (<-chan *models.Quote, <-chan error) {
	quotes := make(chan *models.Quote, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(s.cfg.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.mu.Lock()
				conn := s.conn
				s.mu.Unlock()
				if conn != nil {
					_ = conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(quotes)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			s.mu.Lock()
			conn := s.conn
			s.mu.Unlock()
			if conn == nil {
				errs <- fmt.Errorf("stream connection gone")
				return
			}

			_, payload, err := conn.ReadMessage()
			if err != nil {
				errs <- fmt.Errorf("stream read: %w", err)
				return
			}

			var msgs []wireStreamMessage
			if err := json.Unmarshal(payload, &msgs); err != nil {
				// ignore non-array control frames
				continue
			}
			for _, m := range msgs {
				switch m.Type {
				case "q":
					quote := &models.Quote{
						Symbol:    m.Symbol,
						BidPrice:  m.BidPrice,
						AskPrice:  m.AskPrice,
						BidSize:   m.BidSize,
						AskSize:   m.AskSize,
						Timestamp: m.Timestamp,
					}
					select {
					case quotes <- quote:
					default:
						// drop on backpressure
					}
				case "error":
					s.log.Warn("quote stream server error", logger.String("msg", m.Message))
				}
			}
		}
	}()

	return quotes, errs
}

// Close shuts the connection down.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}

// IsConnected reports connection status.
func (s *Stream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}
