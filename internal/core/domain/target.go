// internal/core/domain/target.go
package domain

import (
	"fmt"
	"strings"

	"reconflow/internal/platform/validator"
)

// Well-known target keys. Any other key is accepted as long as some plugin
// declares a capability with that name.
const (
	KeyIP        = "ip"
	KeyDomain    = "domain"
	KeySubdomain = "subdomain"
	KeyURL       = "url"
)

// Target es la unidad de trabajo: una clave de capacidad y el dato literal.
// Es un tipo valor; la igualdad es por (Key, Value).
type Target struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// NewTarget crea un target normalizando la clave.
func NewTarget(key, value string) Target {
	return Target{
		Key:   strings.ToLower(strings.TrimSpace(key)),
		Value: strings.TrimSpace(value),
	}
}

// Validate verifica que el target sea utilizable.
func (t Target) Validate() error {
	if t.Value == "" {
		return ErrEmptyTarget
	}
	if t.Key == "" {
		return fmt.Errorf("%w: missing key for %q", ErrInvalidTarget, t.Value)
	}
	return nil
}

// String renders the target as key:value.
func (t Target) String() string {
	return t.Key + ":" + t.Value
}

// ParseTarget accepts "key:value" or a bare value whose key is inferred.
// URLs are detected before the key split so "http://x" is never read as key "http".
func ParseTarget(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, ErrEmptyTarget
	}

	if validator.IsURL(raw) {
		return NewTarget(KeyURL, raw), nil
	}

	if key, value, ok := strings.Cut(raw, ":"); ok && !validator.IsIP(raw) {
		t := NewTarget(key, value)
		return t, t.Validate()
	}

	return NewTarget(InferKey(raw), raw), nil
}

// InferKey guesses the capability key of a bare value.
func InferKey(value string) string {
	switch {
	case validator.IsIP(value):
		return KeyIP
	case validator.IsURL(value):
		return KeyURL
	default:
		return KeyDomain
	}
}

// TargetSet es un conjunto ordenado de targets (frontier y VisitedCache).
// No es thread-safe: el scheduler lo usa desde una sola goroutine.
type TargetSet struct {
	order []Target
	index map[Target]struct{}
}

// NewTargetSet crea un conjunto con los targets dados, sin duplicados.
func NewTargetSet(targets ...Target) *TargetSet {
	s := &TargetSet{index: make(map[Target]struct{}, len(targets))}
	for _, t := range targets {
		s.Add(t)
	}
	return s
}

// Add inserta t y reporta si era nuevo.
func (s *TargetSet) Add(t Target) bool {
	if _, ok := s.index[t]; ok {
		return false
	}
	s.index[t] = struct{}{}
	s.order = append(s.order, t)
	return true
}

// Has reporta si t pertenece al conjunto.
func (s *TargetSet) Has(t Target) bool {
	_, ok := s.index[t]
	return ok
}

// Len retorna el número de targets.
func (s *TargetSet) Len() int {
	return len(s.order)
}

// Items retorna los targets en orden de inserción.
func (s *TargetSet) Items() []Target {
	out := make([]Target, len(s.order))
	copy(out, s.order)
	return out
}
