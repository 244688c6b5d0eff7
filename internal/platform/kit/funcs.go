package kit

import (
	"fmt"
	"strconv"
	"strings"
)

// Func es un helper invocable por nombre desde plugins declarativos.
type Func func(args ...string) (string, error)

// Funcs devuelve los helpers disponibles para las variables de las reglas.
func Funcs() map[string]Func {
	return map[string]Func{
		"randomStr":       lengthFunc(RandomString),
		"randomLowercase": lengthFunc(RandomLowercase),
		"randomUppercase": lengthFunc(RandomUppercase),
		"randomInt": func(args ...string) (string, error) {
			lo, hi := 8, 16
			var err error
			if len(args) > 0 {
				if lo, err = strconv.Atoi(args[0]); err != nil {
					return "", fmt.Errorf("randomInt: %w", err)
				}
			}
			if len(args) > 1 {
				if hi, err = strconv.Atoi(args[1]); err != nil {
					return "", fmt.Errorf("randomInt: %w", err)
				}
			}
			return strconv.Itoa(RandomInt(lo, hi)), nil
		},
		"md5": func(args ...string) (string, error) {
			return MD5(strings.Join(args, "")), nil
		},
		"base64Encode": func(args ...string) (string, error) {
			return Base64Encode(strings.Join(args, "")), nil
		},
		"base64Decode": func(args ...string) (string, error) {
			return Base64Decode(strings.Join(args, ""))
		},
	}
}

func lengthFunc(fn func(int) string) Func {
	return func(args ...string) (string, error) {
		n := 8
		if len(args) > 0 {
			v, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil {
				return "", fmt.Errorf("length %q: %w", args[0], err)
			}
			n = v
		}
		return fn(n), nil
	}
}
