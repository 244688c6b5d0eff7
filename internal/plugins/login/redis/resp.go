// internal/plugins/login/redis/resp.go
package redis

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

var errProtocol = errors.New("redis: protocol error")

// conn es una conexión RESP mínima: comandos como arrays de bulk strings y
// respuestas aplanadas a texto.
type conn struct {
	nc      net.Conn
	br      *bufio.Reader
	timeout time.Duration
}

func newConn(nc net.Conn, timeout time.Duration) *conn {
	return &conn{nc: nc, br: bufio.NewReader(nc), timeout: timeout}
}

func (c *conn) Close() error { return c.nc.Close() }

// Do envía un comando y devuelve la respuesta. Los errores RESP ("-ERR ...")
// se devuelven como texto, no como error: el llamador decide qué significan.
func (c *conn) Do(ctx context.Context, args ...string) (string, error) {
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.nc.SetDeadline(deadline); err != nil {
		return "", err
	}

	if _, err := c.nc.Write(encode(args)); err != nil {
		return "", fmt.Errorf("redis write: %w", err)
	}
	reply, err := readReply(c.br)
	if err != nil {
		return "", fmt.Errorf("redis read: %w", err)
	}
	return reply, nil
}

func encode(args []string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "*%d\r\n", len(args))
	for _, a := range args {
		fmt.Fprintf(&b, "$%d\r\n%s\r\n", len(a), a)
	}
	return []byte(b.String())
}

// readReply conserva el prefijo de tipo en status y errores ("+OK",
// "-NOAUTH ..."); bulk y enteros se devuelven como su valor y los arrays
// una línea por elemento.
func readReply(br *bufio.Reader) (string, error) {
	line, err := readLine(br)
	if err != nil {
		return "", err
	}
	if line == "" {
		return "", errProtocol
	}

	switch line[0] {
	case '+', '-':
		return line, nil
	case ':':
		return line[1:], nil
	case '$':
		n, err := strconv.Atoi(line[1:])
		if err != nil {
			return "", errProtocol
		}
		if n < 0 {
			return "(nil)", nil
		}
		buf := make([]byte, n+2)
		if _, err := io.ReadFull(br, buf); err != nil {
			return "", err
		}
		return string(buf[:n]), nil
	case '*':
		n, err := strconv.Atoi(line[1:])
		if err != nil {
			return "", errProtocol
		}
		if n < 0 {
			return "(nil)", nil
		}
		items := make([]string, 0, n)
		for i := 0; i < n; i++ {
			item, err := readReply(br)
			if err != nil {
				return "", err
			}
			items = append(items, item)
		}
		return strings.Join(items, "\n"), nil
	default:
		return "", fmt.Errorf("%w: unexpected %q", errProtocol, line)
	}
}

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
