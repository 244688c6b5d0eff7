package kit

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	lowerLetters = "abcdefghijklmnopqrstuvwxyz"
	upperLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// MD5 devuelve el hash md5 en hexadecimal.
func MD5(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// RandomString devuelve n letras (mayúsculas y minúsculas).
func RandomString(n int) string { return randomFrom(lowerLetters+upperLetters, n) }

// RandomLowercase devuelve n letras minúsculas.
func RandomLowercase(n int) string { return randomFrom(lowerLetters, n) }

// RandomUppercase devuelve n letras mayúsculas.
func RandomUppercase(n int) string { return randomFrom(upperLetters, n) }

func randomFrom(alphabet string, n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return string(b)
}

// RandomInt devuelve un entero en [lo, hi].
func RandomInt(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + rand.IntN(hi-lo+1)
}

func Base64Encode(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// Base64Decode acepta base64 estándar con o sin padding.
func Base64Decode(s string) (string, error) {
	s = strings.TrimSpace(s)
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
		if err != nil {
			return "", fmt.Errorf("base64 decode: %w", err)
		}
	}
	return string(data), nil
}

var jsonpBody = regexp.MustCompile(`(?s)^.*?(\{.*\}).*$`)

// JSONPToJSON extrae el objeto JSON de una respuesta JSONP (callback({...});).
func JSONPToJSON(s string) (string, error) {
	m := jsonpBody.FindStringSubmatch(s)
	if m == nil || !gjson.Valid(m[1]) {
		return "", fmt.Errorf("no json object in jsonp response")
	}
	return m[1], nil
}

var wafKeywords = []string{
	"安全拦截",
	"攻击行为",
	"安全威胁",
	"request blocked",
	"web application firewall",
}

// HasWAFKeyword indica si el contenido parece una página de bloqueo de WAF.
func HasWAFKeyword(content string) bool {
	lower := strings.ToLower(content)
	for _, kw := range wafKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ExpandRange convierte "1-3,8" en [1 2 3 8].
func ExpandRange(spec string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		start, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("range %q: %w", part, err)
		}
		end := start
		if isRange {
			if end, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil {
				return nil, fmt.Errorf("range %q: %w", part, err)
			}
		}
		if end < start {
			return nil, fmt.Errorf("range %q: end before start", part)
		}
		for i := start; i <= end; i++ {
			out = append(out, i)
		}
	}
	return out, nil
}
