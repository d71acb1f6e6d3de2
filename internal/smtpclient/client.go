// Package smtpclient performs the single best-effort SMTP conversation the
// deliverability probe is allowed per request. Connections are scoped to
// one call: dialed, driven through the handshake, then QUIT and closed on
// every exit path, including cancellation.
package smtpclient

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// Config configures the client. HeloDomain and MailFrom identify the
// probing side; servers increasingly reject anonymous-looking probes.
type Config struct {
	HeloDomain     string
	MailFrom       string
	Port           string        // default "25"
	ConnectTimeout time.Duration // default 6s
	CommandTimeout time.Duration // default 10s

	// Socks5Addr routes probes through a SOCKS5 proxy when set
	// (host:port). Optional authentication via Socks5User/Socks5Pass.
	Socks5Addr string
	Socks5User string
	Socks5Pass string

	// DialContext is injectable for testing. When nil, a dialer is built
	// from the settings above.
	DialContext func(ctx context.Context, network, address string) (net.Conn, error)
}

// Client issues probes. Safe for concurrent use; it holds no connection
// state between calls.
type Client struct {
	cfg  Config
	dial func(ctx context.Context, network, address string) (net.Conn, error)
}

// Reply is a parsed SMTP server response.
type Reply struct {
	Code int
	Text string
}

// ErrRejectedEarly is wrapped into errors returned when the server refuses
// the conversation before RCPT TO could be issued.
var ErrRejectedEarly = errors.New("smtp: server refused conversation")

// New builds a Client, applying defaults and constructing the dialer.
func New(cfg Config) (*Client, error) {
	if cfg.Port == "" {
		cfg.Port = "25"
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 6 * time.Second
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = 10 * time.Second
	}

	c := &Client{cfg: cfg, dial: cfg.DialContext}
	if c.dial == nil {
		d, err := buildDialer(cfg)
		if err != nil {
			return nil, err
		}
		c.dial = d
	}
	return c, nil
}

// buildDialer returns a direct or SOCKS5-proxied dial function.
func buildDialer(cfg Config) (func(ctx context.Context, network, address string) (net.Conn, error), error) {
	base := &net.Dialer{Timeout: cfg.ConnectTimeout}
	if cfg.Socks5Addr == "" {
		return base.DialContext, nil
	}

	var auth *proxy.Auth
	if cfg.Socks5User != "" {
		auth = &proxy.Auth{User: cfg.Socks5User, Password: cfg.Socks5Pass}
	}
	p, err := proxy.SOCKS5("tcp", cfg.Socks5Addr, auth, base)
	if err != nil {
		return nil, fmt.Errorf("socks5 proxy %s: %w", cfg.Socks5Addr, err)
	}
	cd, ok := p.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("socks5 proxy %s: dialer lacks context support", cfg.Socks5Addr)
	}
	return cd.DialContext, nil
}

// Connect opens and immediately closes a TCP connection to host. This is
// the whole of the basic-level probe: reachability of the mail port, no
// protocol traffic.
func (c *Client) Connect(ctx context.Context, host string) error {
	conn, err := c.dial(ctx, "tcp", net.JoinHostPort(host, c.cfg.Port))
	if err != nil {
		return err
	}
	return conn.Close()
}

// CheckRecipient runs banner, EHLO, MAIL FROM, RCPT TO against host and
// returns the RCPT TO reply. The reply is returned whatever its code; an
// error is returned only when no RCPT verdict could be obtained (dial or
// I/O failure, or the server refusing an earlier command).
func (c *Client) CheckRecipient(ctx context.Context, host, recipient string) (Reply, error) {
	conn, err := c.dial(ctx, "tcp", net.JoinHostPort(host, c.cfg.Port))
	if err != nil {
		return Reply{}, fmt.Errorf("connect to %s: %w", host, err)
	}

	// Caller disconnect must release the socket immediately, not at the
	// next deadline tick.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer func() { _ = conn.Close() }()

	deadline := time.Now().Add(c.cfg.CommandTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return Reply{}, fmt.Errorf("set deadline: %w", err)
	}

	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)

	banner, err := readReply(r)
	if err != nil {
		return Reply{}, fmt.Errorf("read banner: %w", err)
	}
	if banner.Code != 220 {
		return Reply{}, fmt.Errorf("%w: banner %d %s", ErrRejectedEarly, banner.Code, banner.Text)
	}

	reply, err := command(r, w, "EHLO "+c.cfg.HeloDomain)
	if err != nil {
		return Reply{}, fmt.Errorf("EHLO: %w", err)
	}
	if reply.Code >= 400 {
		// Some ancient servers only speak HELO.
		reply, err = command(r, w, "HELO "+c.cfg.HeloDomain)
		if err != nil {
			return Reply{}, fmt.Errorf("HELO: %w", err)
		}
		if reply.Code >= 400 {
			quit(conn, w)
			return Reply{}, fmt.Errorf("%w: HELO %d %s", ErrRejectedEarly, reply.Code, reply.Text)
		}
	}

	reply, err = command(r, w, fmt.Sprintf("MAIL FROM:<%s>", c.cfg.MailFrom))
	if err != nil {
		return Reply{}, fmt.Errorf("MAIL FROM: %w", err)
	}
	if reply.Code >= 400 {
		quit(conn, w)
		return Reply{}, fmt.Errorf("%w: MAIL FROM %d %s", ErrRejectedEarly, reply.Code, reply.Text)
	}

	reply, err = command(r, w, fmt.Sprintf("RCPT TO:<%s>", recipient))
	if err != nil {
		return Reply{}, fmt.Errorf("RCPT TO: %w", err)
	}

	quit(conn, w)
	return reply, nil
}

// command sends one SMTP command line and reads the response.
func command(r *bufio.Reader, w *bufio.Writer, line string) (Reply, error) {
	if _, err := w.WriteString(line + "\r\n"); err != nil {
		return Reply{}, err
	}
	if err := w.Flush(); err != nil {
		return Reply{}, err
	}
	return readReply(r)
}

// quit sends QUIT best-effort; the deferred Close still runs regardless.
func quit(conn net.Conn, w *bufio.Writer) {
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))
	_, _ = w.WriteString("QUIT\r\n")
	_ = w.Flush()
}

// readReply reads a possibly multi-line SMTP response.
func readReply(r *bufio.Reader) (Reply, error) {
	var lines []string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return Reply{}, fmt.Errorf("read reply: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if len(line) < 3 {
			return Reply{}, errors.New("reply line too short")
		}
		lines = append(lines, line)
		// A '-' after the code marks a continuation line.
		if len(line) < 4 || line[3] != '-' {
			break
		}
	}

	last := lines[len(lines)-1]
	var code int
	if _, err := fmt.Sscanf(last[:3], "%d", &code); err != nil {
		return Reply{}, fmt.Errorf("invalid reply code %q: %w", last[:3], err)
	}
	return Reply{Code: code, Text: strings.Join(lines, " | ")}, nil
}
