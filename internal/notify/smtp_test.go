package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

type fakeSMTP struct {
	host string
	port int
	data chan string
	auth chan string
}

// newFakeSMTP accepts a single plain-text session. extensions are advertised
// in the EHLO reply.
func newFakeSMTP(t *testing.T, extensions ...string) *fakeSMTP {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	f := &fakeSMTP{data: make(chan string, 1), auth: make(chan string, 1)}
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		tp := textproto.NewConn(conn)
		tp.PrintfLine("220 localhost ESMTP")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			fields := strings.Fields(line)
			if len(fields) == 0 {
				tp.PrintfLine("500 empty command")
				continue
			}
			switch strings.ToUpper(fields[0]) {
			case "EHLO", "HELO":
				if len(extensions) == 0 {
					tp.PrintfLine("250 localhost")
					continue
				}
				tp.PrintfLine("250-localhost")
				for i, ext := range extensions {
					if i == len(extensions)-1 {
						tp.PrintfLine("250 %s", ext)
					} else {
						tp.PrintfLine("250-%s", ext)
					}
				}
			case "AUTH":
				f.auth <- line
				tp.PrintfLine("235 2.7.0 Authentication successful")
			case "MAIL", "RCPT", "RSET", "NOOP":
				tp.PrintfLine("250 OK")
			case "DATA":
				tp.PrintfLine("354 go ahead")
				data, err := tp.ReadDotBytes()
				if err != nil {
					return
				}
				f.data <- string(data)
				tp.PrintfLine("250 queued")
			case "QUIT":
				tp.PrintfLine("221 bye")
				return
			default:
				tp.PrintfLine("502 unsupported")
			}
		}
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	f.host = host
	f.port, err = strconv.Atoi(portStr)
	require.NoError(t, err)
	return f
}

func (f *fakeSMTP) received(t *testing.T) string {
	t.Helper()
	select {
	case data := <-f.data:
		return data
	case <-time.After(5 * time.Second):
		t.Fatal("message not received")
		return ""
	}
}

func sendTimeout(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestSMTPSenderDeliversMessage(t *testing.T) {
	srv := newFakeSMTP(t)
	s := NewSMTPSender(SMTPConfig{Host: srv.host, Port: srv.port, From: "noreply@example.com"})

	require.NoError(t, s.SendEmail(sendTimeout(t), "alice@example.com", "New Task Assigned", "You have been assigned a new task: Ship it"))

	data := srv.received(t)
	assert.Contains(t, data, "To: <alice@example.com>")
	assert.Contains(t, data, "Subject: New Task Assigned")
	assert.Contains(t, data, "You have been assigned a new task: Ship it")
}

func TestSMTPSenderNormalizesLineEndings(t *testing.T) {
	srv := newFakeSMTP(t)
	s := NewSMTPSender(SMTPConfig{Host: srv.host, Port: srv.port, From: "noreply@example.com"})

	require.NoError(t, s.SendEmail(sendTimeout(t), "alice@example.com", "Task Due", "line1\r\nline2\rline3\nline4"))

	data := srv.received(t)
	assert.Contains(t, data, "line1\nline2\nline3\nline4")
	assert.NotContains(t, data, "\r")
	assert.NotContains(t, data, "=0D")
}

func TestSMTPSenderAuthenticatesWhenOffered(t *testing.T) {
	srv := newFakeSMTP(t, "AUTH PLAIN")
	s := NewSMTPSender(SMTPConfig{
		Host: srv.host, Port: srv.port, From: "noreply@example.com",
		Username: "mailer", Password: "secret",
	})

	require.NoError(t, s.SendEmail(sendTimeout(t), "alice@example.com", "Task Due", "soon"))

	select {
	case line := <-srv.auth:
		assert.Equal(t, "AUTH PLAIN "+base64.StdEncoding.EncodeToString([]byte("\x00mailer\x00secret")), line)
	default:
		t.Fatal("relay was not authenticated")
	}
	assert.Contains(t, srv.received(t), "soon")
}

func TestSMTPSenderRefusesRelayWithoutAuth(t *testing.T) {
	srv := newFakeSMTP(t)
	s := NewSMTPSender(SMTPConfig{
		Host: srv.host, Port: srv.port, From: "noreply@example.com",
		Username: "mailer", Password: "secret",
	})

	err := s.SendEmail(sendTimeout(t), "alice@example.com", "Task Due", "soon")

	require.Error(t, err)
	assert.ErrorIs(t, err, mail.ErrNoAuth)
	select {
	case <-srv.data:
		t.Fatal("message sent without authentication")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSMTPSenderStripsHeaderInjection(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{From: "noreply@example.com"})
	s.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }

	msg, err := s.buildMessage("bob@example.com", "hi\r\nBcc: evil@example.com", "line1\nline2")
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, "Subject: hiBcc: evil@example.com\r\n")
	assert.NotContains(t, out, "\r\nBcc:")
	assert.Contains(t, out, "Date: Wed, 01 May 2024 09:00:00 +0000\r\n")
	assert.Contains(t, out, "line1\r\nline2")
}

func TestSMTPSenderRejectsInvalidRecipient(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: 25, From: "noreply@example.com"})
	assert.Error(t, s.SendEmail(context.Background(), "not an address", "s", "b"))
}

func TestSMTPSenderUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)
	ln.Close()

	s := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: addr.Port, From: "noreply@example.com"})
	err = s.SendEmail(sendTimeout(t), "a@example.com", "s", "b")
	assert.Error(t, err)
}
