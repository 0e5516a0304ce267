package enums

import (
	"errors"
	"testing"
)

func TestTranslateRoundTrip(t *testing.T) {
	venues := []Venue{VenueBinance, VenueCoinbase}
	axes := []Axis{AxisSide, AxisType, AxisTimeInForce, AxisInterval, AxisPositionSide, AxisMarginType}

	for _, venue := range venues {
		for _, axis := range axes {
			for _, canonical := range MappedValues(venue, axis) {
				wire, err := Translate(venue, axis, canonical)
				if err != nil {
					t.Fatalf("Translate(%s, %s, %s) error: %v", venue, axis, canonical, err)
				}
				back, err := ReverseTranslate(venue, axis, wire)
				if err != nil {
					t.Fatalf("ReverseTranslate(%s, %s, %s) error: %v", venue, axis, wire, err)
				}
				if back != canonical {
					t.Errorf("%s/%s: %q -> %q -> %q, want round-trip", venue, axis, canonical, wire, back)
				}
			}
		}
	}
}

func TestTranslateNoMapping(t *testing.T) {
	_, err := Translate(VenueCoinbase, AxisType, "TAKE_PROFIT")
	var nm *NoMappingError
	if !errors.As(err, &nm) {
		t.Fatalf("expected NoMappingError, got %v", err)
	}
	if nm.Venue != VenueCoinbase || nm.Axis != AxisType || nm.Value != "TAKE_PROFIT" {
		t.Errorf("unexpected error detail: %+v", nm)
	}
}

func TestComposedValuesHaveNoDirectWireValue(t *testing.T) {
	// LIMIT_MAKER is accepted on Coinbase through post_only composition,
	// so it counts as supported but refuses a direct translation.
	if !Supported(VenueCoinbase, AxisType, "LIMIT_MAKER") {
		t.Error("LIMIT_MAKER should be supported on Coinbase via composition")
	}
	if _, err := Translate(VenueCoinbase, AxisType, "LIMIT_MAKER"); err == nil {
		t.Error("Translate should refuse composed LIMIT_MAKER")
	}

	if !Supported(VenueBinance, AxisTimeInForce, "GTX") {
		t.Error("GTX should be supported on Binance via LIMIT_MAKER composition")
	}
}

func TestSupportedValues(t *testing.T) {
	tests := []struct {
		venue  Venue
		axis   Axis
		value  string
		expect bool
	}{
		{VenueBinance, AxisType, "LIMIT_MAKER", true},
		{VenueBinance, AxisInterval, "1M", true},
		{VenueCoinbase, AxisType, "STOP_LOSS", false},
		{VenueCoinbase, AxisType, "TAKE_PROFIT_LIMIT", false},
		{VenueCoinbase, AxisInterval, "3m", false},
		{VenueCoinbase, AxisPositionSide, "LONG", false},
		{VenueBinance, AxisPositionSide, "LONG", true},
	}
	for _, tt := range tests {
		if got := Supported(tt.venue, tt.axis, tt.value); got != tt.expect {
			t.Errorf("Supported(%s, %s, %s) = %v, want %v", tt.venue, tt.axis, tt.value, got, tt.expect)
		}
	}
}

func TestMarginTypeSpelling(t *testing.T) {
	wire, err := Translate(VenueBinance, AxisMarginType, "CROSS")
	if err != nil {
		t.Fatal(err)
	}
	if wire != "CROSSED" {
		t.Errorf("Binance CROSS margin wire value = %q, want CROSSED", wire)
	}
}
