package mailer

import (
	"bufio"
	"context"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuild_PlainText(t *testing.T) {
	m := NewSMTP(Config{From: "site@folio.test", FromName: "Folio"}, nil)
	msg := string(m.build(Email{To: "me@folio.test", Subject: "Hi\r\nBcc: x@evil.test", TextBody: "hello"}, "B"))

	require.Contains(t, msg, "From: Folio <site@folio.test>\r\n")
	require.Contains(t, msg, "Subject: Hi  Bcc: x@evil.test\r\n")
	require.NotContains(t, msg, "\r\nBcc:")
	require.True(t, strings.HasSuffix(msg, "\r\n\r\nhello"))
}

func TestBuild_Multipart(t *testing.T) {
	m := NewSMTP(Config{From: "site@folio.test"}, nil)
	msg := string(m.build(Email{To: "me@folio.test", ReplyTo: "v@x.io", Subject: "s", TextBody: "t", HTMLBody: "<p>h</p>"}, "BOUND"))

	require.Contains(t, msg, "Reply-To: v@x.io\r\n")
	require.Contains(t, msg, `Content-Type: multipart/alternative; boundary="BOUND"`)
	require.Equal(t, 3, strings.Count(msg, "--BOUND"))
	require.True(t, strings.HasSuffix(msg, "--BOUND--\r\n"))
}

// fakeSMTP accepts one message and returns its DATA payload.
func fakeSMTP(t *testing.T) (string, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	got := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		tp := textproto.NewConn(conn)
		_ = tp.PrintfLine("220 fake ESMTP")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			switch cmd := strings.ToUpper(strings.SplitN(line, " ", 2)[0]); cmd {
			case "EHLO", "HELO":
				_ = tp.PrintfLine("250 fake")
			case "MAIL", "RCPT":
				_ = tp.PrintfLine("250 ok")
			case "DATA":
				_ = tp.PrintfLine("354 go ahead")
				data, _ := tp.ReadDotBytes()
				got <- string(data)
				_ = tp.PrintfLine("250 queued")
			case "QUIT":
				_ = tp.PrintfLine("221 bye")
				return
			default:
				_ = tp.PrintfLine("502 unsupported")
			}
		}
	}()
	return ln.Addr().String(), got
}

func TestSend_DeliversMessage(t *testing.T) {
	addr, got := fakeSMTP(t)
	host, portStr, _ := net.SplitHostPort(addr)
	port, _ := strconv.Atoi(portStr)

	m := NewSMTP(Config{Host: host, Port: port, From: "site@folio.test"}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Send(ctx, Email{To: "me@folio.test", Subject: "Hello", TextBody: "body"}))

	select {
	case data := <-got:
		r := textproto.NewReader(bufio.NewReader(strings.NewReader(data)))
		hdr, err := r.ReadMIMEHeader()
		require.NoError(t, err)
		require.Equal(t, "Hello", hdr.Get("Subject"))
		require.Contains(t, data, "body")
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
}

func TestSend_DialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)
	ln.Close()

	m := NewSMTP(Config{Host: "127.0.0.1", Port: addr.Port, From: "a@b.c"}, nil)
	require.Error(t, m.Send(context.Background(), Email{To: "x@y.z"}))
}

func TestContact_ValidateAndEmail(t *testing.T) {
	c := Contact{Name: " <b>Ann</b> ", Email: " ann@example.com ", Message: "Hi\nthere"}.Normalize()
	require.NoError(t, c.Validate())
	require.Equal(t, "Ann", c.Name)

	e := c.ToEmail("owner@folio.test")
	require.Equal(t, "owner@folio.test", e.To)
	require.Equal(t, "ann@example.com", e.ReplyTo)
	require.Equal(t, "[contact] New message", e.Subject)
	require.Contains(t, e.HTMLBody, "Hi<br>there")

	require.Error(t, Contact{Name: "A", Email: "bad", Message: "m"}.Validate())
	require.Error(t, Contact{Name: "A", Email: "a@b.io"}.Validate())
}
