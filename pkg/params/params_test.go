package params

import "testing"

func TestSetPreservesInsertionOrder(t *testing.T) {
	p := New()
	p.Set("symbol", "BTCUSDT").Set("side", "BUY").Set("type", "LIMIT")
	p.Set("side", "SELL") // replace in place

	got := p.Encode()
	want := "symbol=BTCUSDT&side=SELL&type=LIMIT"
	if got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestSetIfAbsent(t *testing.T) {
	p := New()
	p.Set("recvWindow", "10000")
	p.SetIfAbsent("recvWindow", "5000")
	p.SetIfAbsent("timestamp", "123")

	if v := p.Value("recvWindow"); v != "10000" {
		t.Errorf("recvWindow = %q, want explicit value kept", v)
	}
	if v := p.Value("timestamp"); v != "123" {
		t.Errorf("timestamp = %q, want 123", v)
	}
}

func TestDeleteReindexes(t *testing.T) {
	p := New()
	p.Set("a", "1").Set("b", "2").Set("c", "3")
	p.Delete("b")

	if p.Has("b") || p.Len() != 2 {
		t.Fatalf("delete failed: %q", p.Encode())
	}
	if v, ok := p.Get("c"); !ok || v != "3" {
		t.Errorf("index broken after delete, c = %q", v)
	}
	if got := p.Encode(); got != "a=1&c=3" {
		t.Errorf("Encode() = %q, want a=1&c=3", got)
	}
}

func TestSortByKey(t *testing.T) {
	p := New()
	p.Set("b", "2").Set("a", "1").Set("c", "3")
	p.SortByKey()

	if got := p.Encode(); got != "a=1&b=2&c=3" {
		t.Errorf("Encode() = %q, want sorted order", got)
	}
	if v, ok := p.Get("b"); !ok || v != "2" {
		t.Errorf("index broken after sort, b = %q", v)
	}
}

func TestEncodeEscapes(t *testing.T) {
	p := New()
	p.Set("note", "a b&c")
	if got := p.Encode(); got != "note=a+b%26c" {
		t.Errorf("Encode() = %q", got)
	}
}
