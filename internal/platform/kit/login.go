package kit

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Modos de generación de credenciales.
const (
	LoginPaired = 1 // usuario[i] con password[i]
	LoginCross  = 2 // producto cartesiano
)

// Credential es un par usuario/password a probar.
type Credential struct {
	Username string
	Password string
}

// Wordlist lee value como fichero (una entrada por línea) si existe;
// si no, lo interpreta como lista separada por comas.
func Wordlist(value string) ([]string, error) {
	if info, err := os.Stat(value); err == nil && !info.IsDir() {
		f, err := os.Open(value)
		if err != nil {
			return nil, fmt.Errorf("open wordlist: %w", err)
		}
		defer f.Close()

		var out []string
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				out = append(out, line)
			}
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read wordlist %s: %w", value, err)
		}
		return out, nil
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		out = append(out, strings.TrimSpace(item))
	}
	return out, nil
}

// LoginPairs construye el diccionario de credenciales.
func LoginPairs(mode int, usernames, passwords string) ([]Credential, error) {
	users, err := Wordlist(usernames)
	if err != nil {
		return nil, err
	}
	pass, err := Wordlist(passwords)
	if err != nil {
		return nil, err
	}

	switch mode {
	case LoginPaired:
		if len(users) != len(pass) {
			return nil, fmt.Errorf("paired mode: %d usernames but %d passwords", len(users), len(pass))
		}
		out := make([]Credential, len(users))
		for i := range users {
			out[i] = Credential{Username: users[i], Password: pass[i]}
		}
		return out, nil
	case LoginCross:
		if len(users) == 0 {
			users = []string{"admin"}
		}
		if len(pass) == 0 {
			pass = []string{"admin"}
		}
		out := make([]Credential, 0, len(users)*len(pass))
		for _, u := range users {
			for _, p := range pass {
				out = append(out, Credential{Username: u, Password: p})
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown login mode %d", mode)
	}
}
