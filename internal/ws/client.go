package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

const (
	maxReconnectDelay = 30 * time.Second
	readLimit         = 1 << 20
)

type Options struct {
	URL            string
	ReconnectDelay time.Duration
	PingInterval   time.Duration
	// Ping is sent as JSON every PingInterval. Nil disables application pings.
	Ping any
	// OnReconnect runs before every redial after a dropped connection.
	OnReconnect func()
}

// Client is a JSON websocket client that redials forever and replays its
// subscriptions on every new connection.
type Client struct {
	opts Options
	log  *zap.Logger

	mu   sync.Mutex
	conn *websocket.Conn
	subs []any
}

func New(opts Options, log *zap.Logger) *Client {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{opts: opts, log: log}
}

func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return nil
	}
	conn, _, err := websocket.Dial(ctx, c.opts.URL, nil)
	if err != nil {
		return err
	}
	conn.SetReadLimit(readLimit)
	c.conn = conn
	return nil
}

// Subscribe records sub for replay and sends it if connected.
func (c *Client) Subscribe(ctx context.Context, sub any) error {
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	return writeJSON(ctx, conn, sub)
}

// Run reads messages until ctx is done. Dial and read failures are logged
// and retried with capped exponential backoff.
func (c *Client) Run(ctx context.Context, handler func([]byte)) error {
	delay := c.opts.ReconnectDelay
	first := true
	for {
		if !first && c.opts.OnReconnect != nil {
			c.opts.OnReconnect()
		}
		first = false

		err := c.ensureConnected(ctx)
		if err == nil {
			delay = c.opts.ReconnectDelay
			err = c.session(ctx, handler)
		}
		if ctx.Err() != nil {
			c.resetConn()
			return ctx.Err()
		}
		c.logSessionError(err)
		c.resetConn()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

func (c *Client) session(ctx context.Context, handler func([]byte)) error {
	pingCtx, cancel := context.WithCancel(ctx)
	pingDone := make(chan struct{})
	go func() {
		defer close(pingDone)
		c.pingLoop(pingCtx)
	}()
	err := c.readLoop(ctx, handler)
	cancel()
	<-pingDone
	return err
}

func (c *Client) ensureConnected(ctx context.Context) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	conn := c.conn
	subs := append([]any(nil), c.subs...)
	c.mu.Unlock()
	for _, sub := range subs {
		if err := writeJSON(ctx, conn, sub); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) readLoop(ctx context.Context, handler func([]byte)) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("ws not connected")
	}
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if handler != nil {
			handler(data)
		}
	}
}

func (c *Client) pingLoop(ctx context.Context) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil || c.opts.Ping == nil || c.opts.PingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := writeJSON(ctx, conn, c.opts.Ping); err != nil {
				return
			}
		}
	}
}

func (c *Client) logSessionError(err error) {
	if err == nil {
		return
	}
	if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
		var closeErr websocket.CloseError
		if errors.As(err, &closeErr) {
			c.log.Info("ws session ended", zap.String("url", c.opts.URL), zap.Int("status", int(closeErr.Code)), zap.String("reason", closeErr.Reason))
			return
		}
	}
	c.log.Warn("ws session ended", zap.String("url", c.opts.URL), zap.Error(err))
}

func (c *Client) resetConn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusNormalClosure, "reset")
		c.conn = nil
	}
}

func writeJSON(ctx context.Context, conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}
