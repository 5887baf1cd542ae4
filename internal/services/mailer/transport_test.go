package mailer

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSMTP accepts one session and records the envelope and body
type fakeSMTP struct {
	ln       net.Listener
	commands chan string
	body     chan string
}

func startFakeSMTP(t *testing.T) *fakeSMTP {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	f := &fakeSMTP{ln: ln, commands: make(chan string, 32), body: make(chan string, 1)}
	t.Cleanup(func() { ln.Close() })
	go f.serve()
	return f
}

func (f *fakeSMTP) port() int {
	return f.ln.Addr().(*net.TCPAddr).Port
}

func (f *fakeSMTP) serve() {
	conn, err := f.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	r := bufio.NewReader(conn)
	reply := func(s string) { conn.Write([]byte(s + "\r\n")) }
	reply("220 fake ESMTP")

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimSpace(line)
		f.commands <- cmd

		switch verb := strings.ToUpper(strings.SplitN(cmd, " ", 2)[0]); verb {
		case "EHLO":
			reply("250-fake")
			reply("250 8BITMIME")
		case "MAIL", "RCPT":
			reply("250 ok")
		case "DATA":
			reply("354 go ahead")
			var sb strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				sb.WriteString(l)
			}
			f.body <- sb.String()
			reply("250 queued")
		case "QUIT":
			reply("221 bye")
			return
		default:
			reply("502 not implemented")
		}
	}
}

func TestSMTPTransport_PlainDelivery(t *testing.T) {
	srv := startFakeSMTP(t)
	cfg := &Config{Host: "127.0.0.1", Port: srv.port(), From: "trips@example.com"}

	err := NewSMTPTransport().Send(context.Background(), cfg, []string{"guest@example.com"}, []byte("Subject: hi\r\n\r\nAyubowan\r\n"))
	require.NoError(t, err)

	assert.Contains(t, <-srv.body, "Ayubowan")
	close(srv.commands)
	var seen []string
	for c := range srv.commands {
		seen = append(seen, c)
	}
	assert.Contains(t, seen, "MAIL FROM:<trips@example.com> BODY=8BITMIME")
	assert.Contains(t, seen, "RCPT TO:<guest@example.com>")
}

func TestSMTPTransport_RequiresSTARTTLS(t *testing.T) {
	srv := startFakeSMTP(t)
	cfg := &Config{Host: "127.0.0.1", Port: srv.port(), From: "trips@example.com", UseTLS: true}

	err := NewSMTPTransport().Send(context.Background(), cfg, []string{"guest@example.com"}, []byte("x"))
	assert.ErrorIs(t, err, ErrNoSTARTTLS)
}

func TestSMTPTransport_ConnectFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	cfg := &Config{Host: "127.0.0.1", Port: port, From: "trips@example.com"}
	err = NewSMTPTransport().Send(context.Background(), cfg, []string{"guest@example.com"}, []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "127.0.0.1:"+strconv.Itoa(port))
}
