// Package enums is the single source of truth for canonical trading
// enumerations and their per-venue wire spellings. Tables are built once
// at init and read-only afterwards, so concurrent readers need no locks.
package enums

import (
	"fmt"
	"sort"
)

// Venue identifies a supported exchange.
type Venue string

const (
	VenueBinance  Venue = "BINANCE"
	VenueCoinbase Venue = "COINBASE"
)

// Axis names one translatable enumeration.
type Axis string

const (
	AxisSide         Axis = "SIDE"
	AxisType         Axis = "TYPE"
	AxisTimeInForce  Axis = "TIME_IN_FORCE"
	AxisInterval     Axis = "INTERVAL"
	AxisPositionSide Axis = "POSITION_SIDE"
	AxisMarginType   Axis = "MARGIN_TYPE"
)

// NoMappingError reports a (venue, axis, value) triple with no wire
// translation. The gateway maps it to a VALIDATION failure.
type NoMappingError struct {
	Venue   Venue
	Axis    Axis
	Value   string
	Reverse bool
}

func (e *NoMappingError) Error() string {
	dir := "canonical"
	if e.Reverse {
		dir = "venue"
	}
	return fmt.Sprintf("no %s mapping for %s value %q on %s", e.Axis, dir, e.Value, e.Venue)
}

type axisTable struct {
	forward map[string]string // canonical -> venue
	reverse map[string]string // venue -> canonical
	// composed lists canonical values the venue accepts only through a
	// documented composition rule in its adapter (e.g. LIMIT_MAKER on
	// Coinbase becomes a limit order with post_only=true). They have no
	// direct wire value, so Translate refuses them.
	composed map[string]bool
}

var tables = map[Venue]map[Axis]*axisTable{}

func identity(values ...string) map[string]string {
	m := make(map[string]string, len(values))
	for _, v := range values {
		m[v] = v
	}
	return m
}

func newAxisTable(forward map[string]string, composed ...string) *axisTable {
	t := &axisTable{
		forward:  forward,
		reverse:  make(map[string]string, len(forward)),
		composed: make(map[string]bool, len(composed)),
	}
	for canonical, wire := range forward {
		if prev, dup := t.reverse[wire]; dup {
			panic(fmt.Sprintf("enum table not invertible: %q maps from both %q and %q", wire, prev, canonical))
		}
		t.reverse[wire] = canonical
	}
	for _, c := range composed {
		t.composed[c] = true
	}
	return t
}

func init() {
	tables[VenueBinance] = map[Axis]*axisTable{
		AxisSide: newAxisTable(identity("BUY", "SELL")),
		AxisType: newAxisTable(identity(
			"LIMIT", "MARKET", "STOP_LOSS", "STOP_LOSS_LIMIT",
			"TAKE_PROFIT", "TAKE_PROFIT_LIMIT", "LIMIT_MAKER",
		)),
		// Spot has no GTX wire value; post-only rides on the LIMIT_MAKER
		// type, composed by the adapter from LIMIT+GTX.
		AxisTimeInForce: newAxisTable(identity("GTC", "IOC", "FOK"), "GTX"),
		AxisInterval: newAxisTable(identity(
			"1m", "3m", "5m", "15m", "30m",
			"1h", "2h", "4h", "6h", "8h", "12h",
			"1d", "3d", "1w", "1M",
		)),
		AxisPositionSide: newAxisTable(identity("BOTH", "LONG", "SHORT")),
		AxisMarginType: newAxisTable(map[string]string{
			"ISOLATED": "ISOLATED",
			"CROSS":    "CROSSED",
		}),
	}

	tables[VenueCoinbase] = map[Axis]*axisTable{
		AxisSide: newAxisTable(identity("BUY", "SELL")),
		// Advanced Trade has no market-trigger or maker-only wire types.
		// LIMIT_MAKER is composed as limit + post_only by the adapter.
		AxisType: newAxisTable(map[string]string{
			"LIMIT":           "LIMIT",
			"MARKET":          "MARKET",
			"STOP_LOSS_LIMIT": "STOP_LIMIT",
		}, "LIMIT_MAKER"),
		AxisTimeInForce: newAxisTable(map[string]string{
			"GTC": "GOOD_UNTIL_CANCELLED",
			"IOC": "IMMEDIATE_OR_CANCEL",
			"FOK": "FILL_OR_KILL",
		}, "GTX"),
		AxisInterval: newAxisTable(map[string]string{
			"1m":  "ONE_MINUTE",
			"5m":  "FIVE_MINUTE",
			"15m": "FIFTEEN_MINUTE",
			"30m": "THIRTY_MINUTE",
			"1h":  "ONE_HOUR",
			"2h":  "TWO_HOUR",
			"6h":  "SIX_HOUR",
			"1d":  "ONE_DAY",
		}),
		// Spot venue: no position side or margin type support at all.
		AxisPositionSide: newAxisTable(map[string]string{}),
		AxisMarginType:   newAxisTable(map[string]string{}),
	}
}

func table(venue Venue, axis Axis) (*axisTable, error) {
	axes, ok := tables[venue]
	if !ok {
		return nil, fmt.Errorf("unknown venue %q", venue)
	}
	t, ok := axes[axis]
	if !ok {
		return nil, fmt.Errorf("unknown axis %q", axis)
	}
	return t, nil
}

// Translate maps a canonical value to the venue wire spelling.
func Translate(venue Venue, axis Axis, canonical string) (string, error) {
	t, err := table(venue, axis)
	if err != nil {
		return "", err
	}
	wire, ok := t.forward[canonical]
	if !ok {
		return "", &NoMappingError{Venue: venue, Axis: axis, Value: canonical}
	}
	return wire, nil
}

// ReverseTranslate maps a venue wire spelling back to the canonical value.
func ReverseTranslate(venue Venue, axis Axis, wire string) (string, error) {
	t, err := table(venue, axis)
	if err != nil {
		return "", err
	}
	canonical, ok := t.reverse[wire]
	if !ok {
		return "", &NoMappingError{Venue: venue, Axis: axis, Value: wire, Reverse: true}
	}
	return canonical, nil
}

// Supported reports whether the venue accepts the canonical value on the
// axis, directly or through its adapter's composition rule.
func Supported(venue Venue, axis Axis, canonical string) bool {
	t, err := table(venue, axis)
	if err != nil {
		return false
	}
	if _, ok := t.forward[canonical]; ok {
		return true
	}
	return t.composed[canonical]
}

// SupportedValues returns the sorted canonical values the venue accepts
// on the axis, letting callers reject unsupported combinations before
// any network call.
func SupportedValues(venue Venue, axis Axis) []string {
	t, err := table(venue, axis)
	if err != nil {
		return nil
	}
	values := make([]string, 0, len(t.forward)+len(t.composed))
	for v := range t.forward {
		values = append(values, v)
	}
	for v := range t.composed {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// MappedValues returns the sorted canonical values with a direct wire
// translation (the round-trippable subset of SupportedValues).
func MappedValues(venue Venue, axis Axis) []string {
	t, err := table(venue, axis)
	if err != nil {
		return nil
	}
	values := make([]string, 0, len(t.forward))
	for v := range t.forward {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
