// Package params provides an insertion-ordered string parameter list.
// Venue signatures are computed over a canonical parameter string, and
// url.Values cannot preserve the order a venue expects, so request
// building and signing both run on this type.
package params

import (
	"net/url"
	"sort"
	"strings"
)

// Pair is one key/value parameter.
type Pair struct {
	Key   string
	Value string
}

// Params is an ordered set of string parameters. Setting an existing key
// replaces the value in place, keeping its original position.
type Params struct {
	pairs []Pair
	index map[string]int
}

// New returns an empty parameter list.
func New() *Params {
	return &Params{index: make(map[string]int)}
}

// Set adds the pair or replaces the value of an existing key in place.
func (p *Params) Set(key, value string) *Params {
	if i, ok := p.index[key]; ok {
		p.pairs[i].Value = value
		return p
	}
	p.index[key] = len(p.pairs)
	p.pairs = append(p.pairs, Pair{Key: key, Value: value})
	return p
}

// SetIfAbsent adds the pair only when the key is not present, so defaults
// never clobber explicit values.
func (p *Params) SetIfAbsent(key, value string) *Params {
	if _, ok := p.index[key]; !ok {
		p.Set(key, value)
	}
	return p
}

// Get returns the value for key and whether it is present.
func (p *Params) Get(key string) (string, bool) {
	if i, ok := p.index[key]; ok {
		return p.pairs[i].Value, true
	}
	return "", false
}

// Value returns the value for key, empty when absent.
func (p *Params) Value(key string) string {
	v, _ := p.Get(key)
	return v
}

// Has reports whether key is present.
func (p *Params) Has(key string) bool {
	_, ok := p.index[key]
	return ok
}

// Delete removes key if present.
func (p *Params) Delete(key string) {
	i, ok := p.index[key]
	if !ok {
		return
	}
	p.pairs = append(p.pairs[:i], p.pairs[i+1:]...)
	delete(p.index, key)
	for j := i; j < len(p.pairs); j++ {
		p.index[p.pairs[j].Key] = j
	}
}

// Len returns the number of parameters.
func (p *Params) Len() int { return len(p.pairs) }

// Pairs returns a copy of the pairs in order.
func (p *Params) Pairs() []Pair {
	out := make([]Pair, len(p.pairs))
	copy(out, p.pairs)
	return out
}

// Clone returns an independent copy preserving order.
func (p *Params) Clone() *Params {
	c := New()
	for _, pair := range p.pairs {
		c.Set(pair.Key, pair.Value)
	}
	return c
}

// SortByKey reorders the parameters lexicographically, for venues that
// sign a sorted canonical string.
func (p *Params) SortByKey() *Params {
	sort.SliceStable(p.pairs, func(i, j int) bool { return p.pairs[i].Key < p.pairs[j].Key })
	for i, pair := range p.pairs {
		p.index[pair.Key] = i
	}
	return p
}

// Encode renders the URL-escaped query string in parameter order.
func (p *Params) Encode() string {
	var b strings.Builder
	for i, pair := range p.pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(pair.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(pair.Value))
	}
	return b.String()
}
