// Package timeframe implements the closed enumeration of candle bar sizes
// (§3 of the spec) and the algebra for converting between the canonical
// wire string, the Timeframe value, and its duration.
package timeframe

import (
	"fmt"
	"time"
)

// Timeframe is a fixed bar size. The zero value is not valid; use one of
// the exported constants or Parse.
type Timeframe uint8

const (
	Second1 Timeframe = iota + 1
	Minute1
	Minute3
	Minute5
	Minute15
	Minute30
	Hour1
	Hour2
	Hour4
	Hour6
	Hour8
	Hour12
	Day1
	Day3
	Week1
	Month1
)

// monthMs treats 1M as a fixed 30-day duration, per spec §3.
const monthMs = 30 * 24 * int64(time.Hour/time.Millisecond)

var durations = map[Timeframe]time.Duration{
	Second1:  time.Second,
	Minute1:  time.Minute,
	Minute3:  3 * time.Minute,
	Minute5:  5 * time.Minute,
	Minute15: 15 * time.Minute,
	Minute30: 30 * time.Minute,
	Hour1:    time.Hour,
	Hour2:    2 * time.Hour,
	Hour4:    4 * time.Hour,
	Hour6:    6 * time.Hour,
	Hour8:    8 * time.Hour,
	Hour12:   12 * time.Hour,
	Day1:     24 * time.Hour,
	Day3:     3 * 24 * time.Hour,
	Week1:    7 * 24 * time.Hour,
	Month1:   time.Duration(monthMs) * time.Millisecond,
}

var tags = map[Timeframe]string{
	Second1:  "1s",
	Minute1:  "1m",
	Minute3:  "3m",
	Minute5:  "5m",
	Minute15: "15m",
	Minute30: "30m",
	Hour1:    "1h",
	Hour2:    "2h",
	Hour4:    "4h",
	Hour6:    "6h",
	Hour8:    "8h",
	Hour12:   "12h",
	Day1:     "1d",
	Day3:     "3d",
	Week1:    "1w",
	Month1:   "1M",
}

var byTag map[string]Timeframe

func init() {
	byTag = make(map[string]Timeframe, len(tags))
	for tf, tag := range tags {
		byTag[tag] = tf
	}
}

// ErrInvalidTimeframe is returned by Parse for unknown tags.
type ErrInvalidTimeframe struct {
	Tag string
}

func (e ErrInvalidTimeframe) Error() string {
	return fmt.Sprintf("timeframe: unknown tag %q", e.Tag)
}

// Parse resolves a canonical wire string (e.g. "1m", "1M") to a Timeframe.
func Parse(tag string) (Timeframe, error) {
	tf, ok := byTag[tag]
	if !ok {
		return 0, ErrInvalidTimeframe{Tag: tag}
	}
	return tf, nil
}

// String renders the canonical wire tag. A value outside the enumeration
// renders as "timeframe(N)" instead; construct Timeframe via Parse or the
// exported constants to get a real tag.
func (tf Timeframe) String() string {
	tag, ok := tags[tf]
	if !ok {
		return fmt.Sprintf("timeframe(%d)", uint8(tf))
	}
	return tag
}

// Duration returns the bar length. 1M is fixed at 30 days.
func (tf Timeframe) Duration() time.Duration {
	return durations[tf]
}

// Milliseconds returns Duration() in whole milliseconds.
func (tf Timeframe) Milliseconds() int64 {
	return tf.Duration().Milliseconds()
}

// Valid reports whether tf is one of the enumerated bar sizes.
func (tf Timeframe) Valid() bool {
	_, ok := tags[tf]
	return ok
}

// MarshalJSON renders the canonical tag as a JSON string.
func (tf Timeframe) MarshalJSON() ([]byte, error) {
	if !tf.Valid() {
		return nil, fmt.Errorf("timeframe: cannot marshal invalid value %d", uint8(tf))
	}
	return []byte(`"` + tf.String() + `"`), nil
}

// UnmarshalJSON parses the canonical tag from a JSON string.
func (tf *Timeframe) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*tf = parsed
	return nil
}

// MarshalText makes Timeframe usable as a JSON map key (map<Timeframe,string>
// in §6's /timeframes response) since encoding/json only accepts
// encoding.TextMarshaler for non-string map keys.
func (tf Timeframe) MarshalText() ([]byte, error) {
	if !tf.Valid() {
		return nil, fmt.Errorf("timeframe: cannot marshal invalid value %d", uint8(tf))
	}
	return []byte(tf.String()), nil
}

// UnmarshalText is the map-key counterpart to MarshalText.
func (tf *Timeframe) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*tf = parsed
	return nil
}

// All returns every enumerated Timeframe in ascending bar-size order.
func All() []Timeframe {
	return []Timeframe{
		Second1, Minute1, Minute3, Minute5, Minute15, Minute30,
		Hour1, Hour2, Hour4, Hour6, Hour8, Hour12,
		Day1, Day3, Week1, Month1,
	}
}
