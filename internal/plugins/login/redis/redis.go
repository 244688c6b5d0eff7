// internal/plugins/login/redis/redis.go
package redis

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"reconflow/internal/core/domain"
	"reconflow/internal/core/ports"
	"reconflow/internal/core/resulttree"
	"reconflow/internal/platform/kit"
	"reconflow/internal/platform/logx"
	"reconflow/internal/platform/registry"
	"reconflow/internal/platform/validator"
)

const Impl = "redis"

func init() {
	if err := registry.Global().Register(Impl, []string{domain.KeyIP, domain.KeyURL}, New); err != nil {
		logx.New().Warn("failed to register plugin", "plugin", Impl, "error", err.Error())
	}
}

var options = []kit.OptionSpec{
	{Name: "port", Desc: "Redis port", Default: 6379},
	{Name: "username", Desc: "ACL usernames, file or comma list (empty: legacy AUTH)", Default: ""},
	{Name: "password", Desc: "Passwords, file or comma list", Default: "redis,root,admin,123456,password,foobared"},
	{Name: "mode", Desc: "1 paired, 2 cross product", Default: kit.LoginCross},
	{Name: "maxfail", Desc: "Consecutive connection errors before giving up", Default: 5},
}

// Redis prueba acceso sin autenticación y credenciales débiles contra un
// servidor Redis. En modo consola abre una shell de comandos.
type Redis struct {
	kit     *kit.Kit
	workers int
	timeout time.Duration
	logger  logx.Logger

	in  io.Reader
	out io.Writer
}

func New(desc ports.Descriptor, k *kit.Kit) (ports.Plugin, error) {
	r := &Redis{
		kit:     k,
		workers: 10,
		timeout: 5 * time.Second,
		logger:  logx.NewNop(),
		in:      os.Stdin,
		out:     os.Stdout,
	}
	if k != nil {
		if k.BatchWorkers > 0 {
			r.workers = k.BatchWorkers
		}
		if k.Timeout > 0 {
			r.timeout = k.Timeout
		}
		if k.Logger != nil {
			r.logger = k.Logger
		}
	}
	r.logger = r.logger.With("plugin", desc.Name)

	return &ports.CodePlugin{
		Desc: desc,
		Table: ports.Table{
			domain.KeyIP:  r.Run,
			domain.KeyURL: r.Run,
		},
		Console: r.Shell,
	}, nil
}

// Run devuelve {"LoginInfo": [{"host", "port", "server", "username", "password"}]}.
// Un servidor sin contraseña aparece con credenciales vacías.
func (r *Redis) Run(ctx context.Context, jc *ports.JobContext) (*resulttree.Node, error) {
	opts := kit.ResolveOptions(jc, options)
	host, port, err := endpoint(jc.Target.Value, opts.Int("port", 6379))
	if err != nil {
		return nil, err
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	reply, err := r.command(ctx, addr, "PING")
	if err != nil {
		// puerto cerrado: no es un fallo del job
		r.logger.Debug("redis unreachable", "addr", addr, "error", err)
		return nil, nil
	}

	switch {
	case strings.HasPrefix(reply, "+PONG"):
		return loginList(host, port, []kit.Credential{{}}), nil
	case !needsAuth(reply):
		r.logger.Debug("not a redis service", "addr", addr, "reply", reply)
		return nil, nil
	}

	creds, err := kit.LoginPairs(opts.Int("mode", kit.LoginCross), opts.String("username"), opts.String("password"))
	if err != nil {
		return nil, err
	}

	found, err := kit.GuardedBatch(ctx, jc, r.workers, opts.Int("maxfail", 5), creds,
		func(ctx context.Context, c kit.Credential) (kit.Credential, bool, error) {
			reply, err := r.command(ctx, addr, authArgs(c)...)
			if err != nil {
				return c, false, err
			}
			return c, reply == "+OK", nil
		})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	return loginList(host, port, found), nil
}

// command abre una conexión por comando: AUTH fallido deja la conexión
// sin autenticar y algunos servidores la cierran tras varios intentos.
func (r *Redis) command(ctx context.Context, addr string, args ...string) (string, error) {
	c, err := r.dial(ctx, addr)
	if err != nil {
		return "", err
	}
	defer c.Close()
	return c.Do(ctx, args...)
}

func (r *Redis) dial(ctx context.Context, addr string) (*conn, error) {
	dctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	nc, err := r.kit.Dial(dctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return newConn(nc, r.timeout), nil
}

// endpoint extrae host y puerto del target; el puerto explícito de una URL
// tiene prioridad sobre la opción.
func endpoint(value string, defPort int) (string, int, error) {
	host := validator.HostOf(value)
	if host == "" {
		return "", 0, fmt.Errorf("%w: %s", domain.ErrInvalidTarget, value)
	}
	port := defPort
	if validator.IsURL(value) {
		if u, err := url.Parse(value); err == nil && u.Port() != "" {
			if n, err := strconv.Atoi(u.Port()); err == nil {
				port = n
			}
		}
	}
	return host, port, nil
}

func needsAuth(reply string) bool {
	r := strings.ToUpper(reply)
	return strings.HasPrefix(r, "-NOAUTH") || (strings.HasPrefix(r, "-") && strings.Contains(r, "AUTH"))
}

func authArgs(c kit.Credential) []string {
	if c.Username == "" {
		return []string{"AUTH", c.Password}
	}
	return []string{"AUTH", c.Username, c.Password}
}

func loginList(host string, port int, creds []kit.Credential) *resulttree.Node {
	sort.Slice(creds, func(i, j int) bool {
		if creds[i].Username != creds[j].Username {
			return creds[i].Username < creds[j].Username
		}
		return creds[i].Password < creds[j].Password
	})

	list := resulttree.Seq()
	for _, c := range creds {
		list.Append(resulttree.Map().
			Set("host", resulttree.String(host)).
			Set("port", resulttree.Int(int64(port))).
			Set("server", resulttree.String("redis")).
			Set("username", resulttree.String(c.Username)).
			Set("password", resulttree.String(c.Password)))
	}
	return resulttree.Map().Set("LoginInfo", list)
}
