// internal/plugins/login/redis/shell.go
package redis

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"reconflow/internal/core/ports"
	"reconflow/internal/core/resulttree"
	"reconflow/internal/platform/kit"
)

var shellOptions = []kit.OptionSpec{
	{Name: "port", Desc: "Redis port", Default: 6379},
	{Name: "auth", Desc: "Credentials sent before the prompt, password or user:password", Default: ""},
}

// Shell es el modo consola: lee comandos línea a línea y muestra la
// respuesta cruda. "quit" o EOF terminan la sesión.
func (r *Redis) Shell(ctx context.Context, jc *ports.JobContext) (*resulttree.Node, error) {
	opts := kit.ResolveOptions(jc, shellOptions)
	host, port, err := endpoint(jc.Target.Value, opts.Int("port", 6379))
	if err != nil {
		return nil, err
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	c, err := r.dial(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("redis shell %s: %w", addr, err)
	}
	defer c.Close()

	if auth := opts.String("auth"); auth != "" {
		cred := kit.Credential{Password: auth}
		if user, pass, ok := strings.Cut(auth, ":"); ok {
			cred = kit.Credential{Username: user, Password: pass}
		}
		reply, err := c.Do(ctx, authArgs(cred)...)
		if err != nil {
			return nil, err
		}
		fmt.Fprintln(r.out, reply)
	}

	sc := bufio.NewScanner(r.in)
	for {
		fmt.Fprintf(r.out, "%s> ", addr)
		if !sc.Scan() {
			fmt.Fprintln(r.out)
			break
		}
		args := strings.Fields(sc.Text())
		if len(args) == 0 {
			continue
		}
		if cmd := strings.ToLower(args[0]); cmd == "quit" || cmd == "exit" {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		reply, err := c.Do(ctx, args...)
		if err != nil {
			return nil, err
		}
		fmt.Fprintln(r.out, reply)
	}
	return nil, sc.Err()
}
