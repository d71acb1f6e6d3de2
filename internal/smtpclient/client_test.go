package smtpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedServer answers commands by prefix on one end of a net.Pipe.
func scriptedServer(server net.Conn, banner string, responses map[string]string) {
	defer func() { _ = server.Close() }()

	_, _ = fmt.Fprintf(server, "%s\r\n", banner)

	buf := make([]byte, 4096)
	for {
		n, err := server.Read(buf)
		if err != nil {
			return
		}
		cmd := string(buf[:n])

		if strings.HasPrefix(cmd, "QUIT") {
			_, _ = fmt.Fprintf(server, "221 Bye\r\n")
			return
		}
		for prefix, resp := range responses {
			if strings.HasPrefix(cmd, prefix) {
				_, _ = fmt.Fprintf(server, "%s\r\n", resp)
				break
			}
		}
	}
}

func pipeDialer(banner string, responses map[string]string) func(context.Context, string, string) (net.Conn, error) {
	return func(_ context.Context, _, _ string) (net.Conn, error) {
		client, server := net.Pipe()
		go scriptedServer(server, banner, responses)
		return client, nil
	}
}

func newTestClient(t *testing.T, dial func(context.Context, string, string) (net.Conn, error)) *Client {
	t.Helper()
	c, err := New(Config{
		HeloDomain:     "probe.test",
		MailFrom:       "verify@probe.test",
		CommandTimeout: 2 * time.Second,
		DialContext:    dial,
	})
	require.NoError(t, err)
	return c
}

func TestCheckRecipient_Accepted(t *testing.T) {
	c := newTestClient(t, pipeDialer("220 mx.example.com ESMTP", map[string]string{
		"EHLO":      "250 OK",
		"MAIL FROM": "250 OK",
		"RCPT TO":   "250 Accepted",
	}))

	reply, err := c.CheckRecipient(context.Background(), "mx.example.com", "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, 250, reply.Code)
	assert.Contains(t, reply.Text, "Accepted")
}

func TestCheckRecipient_Rejected550(t *testing.T) {
	c := newTestClient(t, pipeDialer("220 mx.example.com ESMTP", map[string]string{
		"EHLO":      "250 OK",
		"MAIL FROM": "250 OK",
		"RCPT TO":   "550 No such user",
	}))

	reply, err := c.CheckRecipient(context.Background(), "mx.example.com", "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, 550, reply.Code)
}

func TestCheckRecipient_MultilineReply(t *testing.T) {
	c := newTestClient(t, pipeDialer("220 mx.example.com ESMTP", map[string]string{
		"EHLO":      "250-mx.example.com\r\n250-SIZE 35882577\r\n250 SMTPUTF8",
		"MAIL FROM": "250 OK",
		"RCPT TO":   "250 OK",
	}))

	reply, err := c.CheckRecipient(context.Background(), "mx.example.com", "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, 250, reply.Code)
}

func TestCheckRecipient_HELOFallback(t *testing.T) {
	c := newTestClient(t, pipeDialer("220 old.example.com SMTP", map[string]string{
		"EHLO":      "502 Command not implemented",
		"HELO":      "250 old.example.com",
		"MAIL FROM": "250 OK",
		"RCPT TO":   "250 OK",
	}))

	reply, err := c.CheckRecipient(context.Background(), "old.example.com", "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, 250, reply.Code)
}

func TestCheckRecipient_EarlyRefusal(t *testing.T) {
	c := newTestClient(t, pipeDialer("220 mx.example.com ESMTP", map[string]string{
		"EHLO":      "250 OK",
		"MAIL FROM": "421 Too busy",
	}))

	_, err := c.CheckRecipient(context.Background(), "mx.example.com", "user@example.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRejectedEarly))
}

func TestCheckRecipient_BadBanner(t *testing.T) {
	c := newTestClient(t, pipeDialer("554 Go away", nil))

	_, err := c.CheckRecipient(context.Background(), "mx.example.com", "user@example.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRejectedEarly))
}

func TestCheckRecipient_DialFailure(t *testing.T) {
	c := newTestClient(t, func(_ context.Context, _, _ string) (net.Conn, error) {
		return nil, errors.New("connection refused")
	})

	_, err := c.CheckRecipient(context.Background(), "mx.example.com", "user@example.com")
	assert.Error(t, err)
}

func TestCheckRecipient_SilentServerHitsDeadline(t *testing.T) {
	c, err := New(Config{
		HeloDomain:     "probe.test",
		MailFrom:       "verify@probe.test",
		CommandTimeout: 100 * time.Millisecond,
		DialContext: func(_ context.Context, _, _ string) (net.Conn, error) {
			client, server := net.Pipe()
			// Server accepts the connection and says nothing.
			go func() {
				buf := make([]byte, 64)
				for {
					if _, err := server.Read(buf); err != nil {
						return
					}
				}
			}()
			return client, nil
		},
	})
	require.NoError(t, err)

	start := time.Now()
	_, err = c.CheckRecipient(context.Background(), "mx.example.com", "user@example.com")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestCheckRecipient_CancelReleasesConnection(t *testing.T) {
	closed := make(chan struct{})
	c := newTestClient(t, func(_ context.Context, _, _ string) (net.Conn, error) {
		client, server := net.Pipe()
		go func() {
			buf := make([]byte, 64)
			for {
				if _, err := server.Read(buf); err != nil {
					close(closed)
					return
				}
			}
		}()
		return client, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.CheckRecipient(ctx, "mx.example.com", "user@example.com")
	assert.Error(t, err)

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("connection was not released on cancellation")
	}
}

func TestConnect(t *testing.T) {
	dialed := false
	c := newTestClient(t, func(_ context.Context, _, addr string) (net.Conn, error) {
		dialed = true
		assert.Equal(t, "mx.example.com:25", addr)
		client, server := net.Pipe()
		go func() {
			buf := make([]byte, 16)
			_, _ = server.Read(buf)
			_ = server.Close()
		}()
		return client, nil
	})

	err := c.Connect(context.Background(), "mx.example.com")
	assert.NoError(t, err)
	assert.True(t, dialed)
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(Config{HeloDomain: "probe.test", MailFrom: "verify@probe.test"})
	require.NoError(t, err)
	assert.Equal(t, "25", c.cfg.Port)
	assert.Equal(t, 6*time.Second, c.cfg.ConnectTimeout)
	assert.Equal(t, 10*time.Second, c.cfg.CommandTimeout)
}
