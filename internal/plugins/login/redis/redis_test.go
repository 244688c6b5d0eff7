// internal/plugins/login/redis/redis_test.go
package redis

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"reconflow/internal/core/domain"
	"reconflow/internal/core/ports"
	"reconflow/internal/core/resulttree"
	"reconflow/internal/core/runstate"
	"reconflow/internal/platform/kit"
	"reconflow/internal/platform/logx"
	"reconflow/internal/platform/registry"
	"reconflow/internal/testutil"
)

// fakeRedis habla el subconjunto de RESP que usa el plugin.
type fakeRedis struct {
	ln       net.Listener
	password string // vacío: sin auth
	user     string

	mu   sync.Mutex
	auth int
}

func startFake(t *testing.T, user, password string) *fakeRedis {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	testutil.AssertNoError(t, err, "listen")
	f := &fakeRedis{ln: ln, user: user, password: password}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go f.serve(c)
		}
	}()
	return f
}

func (f *fakeRedis) port() int { return f.ln.Addr().(*net.TCPAddr).Port }

func (f *fakeRedis) authAttempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.auth
}

func (f *fakeRedis) serve(c net.Conn) {
	defer c.Close()
	br := bufio.NewReader(c)
	authed := f.password == ""

	for {
		args, err := readCommand(br)
		if err != nil {
			return
		}
		var reply string
		switch strings.ToUpper(args[0]) {
		case "PING":
			if authed {
				reply = "+PONG\r\n"
			} else {
				reply = "-NOAUTH Authentication required.\r\n"
			}
		case "AUTH":
			f.mu.Lock()
			f.auth++
			f.mu.Unlock()
			user, pass := "", args[len(args)-1]
			if len(args) == 3 {
				user = args[1]
			}
			if pass == f.password && user == f.user {
				authed = true
				reply = "+OK\r\n"
			} else {
				reply = "-WRONGPASS invalid username-password pair or user is disabled.\r\n"
			}
		case "GET":
			if !authed {
				reply = "-NOAUTH Authentication required.\r\n"
			} else {
				reply = "$5\r\nvalue\r\n"
			}
		case "KEYS":
			reply = "*2\r\n$1\r\na\r\n$1\r\nb\r\n"
		default:
			reply = fmt.Sprintf("-ERR unknown command '%s'\r\n", args[0])
		}
		if _, err := c.Write([]byte(reply)); err != nil {
			return
		}
	}
}

func readCommand(br *bufio.Reader) ([]string, error) {
	line, err := readLine(br)
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(strings.TrimPrefix(line, "*"))
	if err != nil || n <= 0 {
		return nil, errProtocol
	}
	args := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if _, err := readLine(br); err != nil {
			return nil, err
		}
		arg, err := readLine(br)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

func invoke(t *testing.T, key, value string, opts map[string]any) (*resulttree.Node, error) {
	t.Helper()
	p, err := New(ports.Descriptor{Name: Impl}, &kit.Kit{BatchWorkers: 2, Timeout: 2 * time.Second, Logger: logx.NewNop()})
	testutil.AssertNoError(t, err, "New")

	base := ports.CopyOptions(opts, Impl)
	return p.Invoke(context.Background(), key, &ports.JobContext{
		Options: base,
		Target:  domain.NewTarget(key, value),
		State:   runstate.New(),
		Logger:  logx.NewNop(),
	})
}

func TestRegistered(t *testing.T) {
	caps, ok := registry.Global().Capabilities(Impl)
	testutil.AssertTrue(t, ok, "redis registered on import")
	testutil.AssertSameElements(t, caps, []string{domain.KeyIP, domain.KeyURL}, "capabilities")
}

func TestRedis_Unauthenticated(t *testing.T) {
	f := startFake(t, "", "")

	result, err := invoke(t, domain.KeyIP, "127.0.0.1", map[string]any{"port": f.port()})
	testutil.AssertNoError(t, err, "Invoke")

	want := resulttree.Map().Set("LoginInfo", resulttree.Seq(resulttree.Map().
		Set("host", resulttree.String("127.0.0.1")).
		Set("port", resulttree.Int(int64(f.port()))).
		Set("server", resulttree.String("redis")).
		Set("username", resulttree.String("")).
		Set("password", resulttree.String(""))))
	testutil.AssertTrue(t, result.Equal(want), "open server reported with empty credentials: "+result.Text())
	testutil.AssertEqual(t, f.authAttempts(), 0, "no brute force on open server")
}

func TestRedis_WeakPassword(t *testing.T) {
	f := startFake(t, "", "123456")

	result, err := invoke(t, domain.KeyIP, "127.0.0.1", map[string]any{
		"port":     f.port(),
		"password": "redis,admin,123456,letmein",
	})
	testutil.AssertNoError(t, err, "Invoke")
	testutil.AssertDeepEqual(t, resulttree.ScalarTexts(resulttree.Extract(result, "password")), []string{"123456"}, "found password")
	testutil.AssertEqual(t, f.authAttempts(), 4, "every candidate tried")
}

func TestRedis_ACLUserFromURL(t *testing.T) {
	f := startFake(t, "ops", "s3cret")

	target := fmt.Sprintf("redis://127.0.0.1:%d", f.port())
	result, err := invoke(t, domain.KeyURL, target, map[string]any{
		"username": "default,ops",
		"password": "s3cret,nope",
	})
	testutil.AssertNoError(t, err, "Invoke")
	testutil.AssertDeepEqual(t, resulttree.ScalarTexts(resulttree.Extract(result, "username")), []string{"ops"}, "user")
	testutil.AssertDeepEqual(t, resulttree.ScalarTexts(resulttree.Extract(result, "port")), []string{strconv.Itoa(f.port())}, "port taken from url")
}

func TestRedis_NoMatch(t *testing.T) {
	f := startFake(t, "", "very-long-secret")

	result, err := invoke(t, domain.KeyIP, "127.0.0.1", map[string]any{"port": f.port(), "password": "a,b"})
	testutil.AssertNoError(t, err, "Invoke")
	testutil.AssertTrue(t, result == nil, "no result without valid credentials")
}

func TestRedis_ClosedPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	testutil.AssertNoError(t, err, "listen")
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	result, err := invoke(t, domain.KeyIP, "127.0.0.1", map[string]any{"port": port})
	testutil.AssertNoError(t, err, "closed port is not a job failure")
	testutil.AssertTrue(t, result == nil, "absent")
}

func TestEndpoint(t *testing.T) {
	tests := []struct {
		in   string
		host string
		port int
	}{
		{"10.0.0.5", "10.0.0.5", 6379},
		{"redis://cache.example.com:6380", "cache.example.com", 6380},
		{"http://cache.example.com/", "cache.example.com", 6379},
	}
	for _, tt := range tests {
		host, port, err := endpoint(tt.in, 6379)
		testutil.AssertNoError(t, err, tt.in)
		testutil.AssertEqual(t, host, tt.host, tt.in)
		testutil.AssertEqual(t, port, tt.port, tt.in)
	}

	_, _, err := endpoint("  ", 6379)
	testutil.AssertErrorIs(t, err, domain.ErrInvalidTarget, "empty target")
}

func TestReadReply(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"+OK\r\n", "+OK"},
		{"-NOAUTH Authentication required.\r\n", "-NOAUTH Authentication required."},
		{":42\r\n", "42"},
		{"$5\r\nhello\r\n", "hello"},
		{"$-1\r\n", "(nil)"},
		{"*2\r\n$1\r\na\r\n:7\r\n", "a\n7"},
	}
	for _, tt := range tests {
		got, err := readReply(bufio.NewReader(strings.NewReader(tt.raw)))
		testutil.AssertNoError(t, err, tt.raw)
		testutil.AssertEqual(t, got, tt.want, tt.raw)
	}

	_, err := readReply(bufio.NewReader(strings.NewReader("?what\r\n")))
	testutil.AssertErrorIs(t, err, errProtocol, "unknown type byte")
}

func TestShell(t *testing.T) {
	f := startFake(t, "", "pw")

	var out bytes.Buffer
	r := &Redis{
		timeout: 2 * time.Second,
		logger:  logx.NewNop(),
		in:      strings.NewReader("GET k\n\nKEYS *\nquit\nGET never\n"),
		out:     &out,
	}
	jc := &ports.JobContext{
		Options: ports.CopyOptions(map[string]any{"port": f.port(), "auth": "pw"}, Impl),
		Target:  domain.NewTarget(domain.KeyIP, "127.0.0.1"),
	}

	result, err := r.Shell(context.Background(), jc)
	testutil.AssertNoError(t, err, "Shell")
	testutil.AssertTrue(t, result == nil, "console returns no result")

	text := out.String()
	testutil.AssertContains(t, text, "+OK", "auth reply")
	testutil.AssertContains(t, text, "value", "GET reply")
	testutil.AssertContains(t, text, "a\nb", "KEYS reply")
	testutil.AssertEqual(t, strings.Count(text, "> "), 4, "prompt per line read until quit")
}
