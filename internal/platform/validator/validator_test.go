// internal/platform/validator/validator_test.go
package validator

import (
	"testing"

	"reconflow/internal/testutil"
)

func TestIsDomain(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"valid domain", "example.com", true},
		{"valid subdomain", "test.example.com", true},
		{"empty string", "", false},
		{"too long", string(make([]byte, 300)), false},
		{"ip address", "192.168.1.1", false},
		{"invalid chars", "exam ple.com", false},
		{"starts with hyphen", "-example.com", false},
		{"single label", "localhost", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, IsDomain(tt.input), tt.expected, "domain validation")
		})
	}
}

func TestIsSubdomain(t *testing.T) {
	testutil.AssertTrue(t, IsSubdomain("a.example.com", "example.com"), "direct child")
	testutil.AssertTrue(t, IsSubdomain("A.Example.com.", "example.com"), "case and trailing dot")
	testutil.AssertFalse(t, IsSubdomain("example.com", "example.com"), "same domain")
	testutil.AssertFalse(t, IsSubdomain("example.com.test", "example.com"), "suffix only")
}

func TestIsIP(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"valid ipv4", "192.168.1.1", true},
		{"valid ipv6", "2001:0db8:85a3:0000:0000:8a2e:0370:7334", true},
		{"invalid ip", "256.1.1.1", false},
		{"domain", "example.com", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, IsIP(tt.input), tt.expected, "ip validation")
		})
	}
}

func TestIsIPv4(t *testing.T) {
	testutil.AssertTrue(t, IsIPv4("10.0.0.5"), "ipv4")
	testutil.AssertTrue(t, IsIPv4("::ffff:10.0.0.5"), "mapped ipv4")
	testutil.AssertFalse(t, IsIPv4("2001:db8::1"), "ipv6")
}

func TestIsPort(t *testing.T) {
	testutil.AssertTrue(t, IsPort("6379"), "redis port")
	testutil.AssertFalse(t, IsPort("0"), "zero")
	testutil.AssertFalse(t, IsPort("65536"), "too high")
	testutil.AssertFalse(t, IsPort("abc"), "not a number")
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"HTTP://EXAMPLE.COM", "http://example.com"},
		{"http://example.com/", "http://example.com"},
		{"http://example.com:80/path", "http://example.com/path"},
		{"https://example.com:443", "https://example.com"},
	}

	for _, tt := range tests {
		testutil.AssertEqual(t, NormalizeURL(tt.input), tt.expected, tt.input)
	}
}

func TestHostOf(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"http://A.example.com:8080/x", "a.example.com"},
		{"10.0.0.5", "10.0.0.5"},
		{"10.0.0.5:6379", "10.0.0.5"},
		{"Example.COM.", "example.com"},
	}

	for _, tt := range tests {
		testutil.AssertEqual(t, HostOf(tt.input), tt.expected, tt.input)
	}
}
