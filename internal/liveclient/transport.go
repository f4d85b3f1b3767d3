package liveclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shandysiswandi/levelup/internal/pkg/realtime"
)

var (
	// ErrRejected means the server refused the credential. It is never retried.
	ErrRejected = errors.New("liveclient: handshake rejected")
	// ErrNoAck means the first frame after the upgrade was not a connect envelope.
	ErrNoAck = errors.New("liveclient: missing connect acknowledgement")
)

// Conn is one live socket. ReadEnvelope is called from a single goroutine; WriteEnvelope
// and Close may be called from any goroutine.
type Conn interface {
	ReadEnvelope() (realtime.Envelope, error)
	WriteEnvelope(env realtime.Envelope) error
	Close() error
}

// Transport opens sockets authenticated with token.
type Transport interface {
	Dial(ctx context.Context, token string) (Conn, error)
}

// WebsocketTransport dials the realtime endpoint with gorilla/websocket.
type WebsocketTransport struct {
	url    string
	dialer *websocket.Dialer
	// readWait must exceed the server ping period.
	readWait  time.Duration
	writeWait time.Duration
}

// NewWebsocketTransport accepts an http(s) or ws(s) base URL and the socket path.
func NewWebsocketTransport(baseURL, path string, handshakeTimeout time.Duration) (*WebsocketTransport, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("liveclient: parse url: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("liveclient: unsupported url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + path

	if handshakeTimeout <= 0 {
		handshakeTimeout = 10 * time.Second
	}

	return &WebsocketTransport{
		url: u.String(),
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
		readWait:  75 * time.Second,
		writeWait: 10 * time.Second,
	}, nil
}

func (t *WebsocketTransport) Dial(ctx context.Context, token string) (Conn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	ws, resp, err := t.dialer.DialContext(ctx, t.url, header)
	if resp != nil && resp.Body != nil {
		//nolint:errcheck // handshake body is not used
		_ = resp.Body.Close()
	}
	if err != nil {
		if errors.Is(err, websocket.ErrBadHandshake) && resp != nil &&
			(resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: status %d: %w", ErrRejected, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("liveclient: dial: %w", err)
	}

	c := &wsConn{ws: ws, readWait: t.readWait, writeWait: t.writeWait}
	ws.SetPingHandler(func(data string) error {
		//nolint:errcheck // a failed deadline surfaces on the next read
		_ = ws.SetReadDeadline(time.Now().Add(c.readWait))
		err := ws.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(c.writeWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})
	return c, nil
}

type wsConn struct {
	ws        *websocket.Conn
	readWait  time.Duration
	writeWait time.Duration

	writeMu sync.Mutex
	once    sync.Once
}

func (c *wsConn) ReadEnvelope() (realtime.Envelope, error) {
	//nolint:errcheck // a failed deadline surfaces on the read
	_ = c.ws.SetReadDeadline(time.Now().Add(c.readWait))

	var env realtime.Envelope
	if err := c.ws.ReadJSON(&env); err != nil {
		return realtime.Envelope{}, err
	}
	return env, nil
}

func (c *wsConn) WriteEnvelope(env realtime.Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	//nolint:errcheck // a failed deadline surfaces on the write
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeWait))
	return c.ws.WriteJSON(env)
}

func (c *wsConn) Close() error {
	var err error
	c.once.Do(func() {
		//nolint:errcheck // peer may already be gone
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		err = c.ws.Close()
	})
	return err
}
