// internal/testutil/fixtures.go
package testutil

// Fixture data para tests (valores primitivos solamente, sin dependencias de domain)

// FixtureIPs contiene IPs de prueba en dos /24 contiguos y uno aislado.
var FixtureIPs = []string{
	"10.0.0.5",
	"10.0.0.77",
	"10.0.1.9",
	"192.168.7.1",
}

// FixtureSubdomains contiene subdominios descubiertos de prueba.
var FixtureSubdomains = []string{
	"a.example.com",
	"b.example.com",
}

// FixtureRulePlugin es un plugin declarativo válido; {{path}} se reemplaza en tests.
const FixtureRulePlugin = `name: poc-example-banner
detail:
  author: tester
  links:
    - https://example.com/advisory
  description: banner disclosure
set:
  token: randomLowercase(8)
rules:
  r0:
    request:
      method: GET
      path: /banner?t={{token}}
    matchers:
      status: [200]
      words: ["Server-Banner"]
      regex: 'version=(?P<version>[0-9.]+)'
expression: r0()
output:
  version: "{{version}}"
`
