package config

import "testing"

func TestOptionsAccessors(t *testing.T) {
	t.Parallel()

	o := Options{
		"flag":  true,
		"count": float64(7), // JSON numbers decode as float64
		"name":  "csv",
		"comma": ";",
		"tags":  map[string]any{"a": "1", "skip": 2},
	}

	if !o.Bool("flag", false) {
		t.Error("Bool(flag) = false")
	}
	if o.Bool("missing", true) != true {
		t.Error("Bool fallback not applied")
	}
	if got := o.Int("count", 0); got != 7 {
		t.Errorf("Int(count) = %d", got)
	}
	if got := o.Int("name", 3); got != 3 {
		t.Errorf("Int on wrong type must fall back, got %d", got)
	}
	if got := o.String("name", ""); got != "csv" {
		t.Errorf("String(name) = %q", got)
	}
	if got := o.Rune("comma", ','); got != ';' {
		t.Errorf("Rune(comma) = %q", got)
	}
	if got := o.Rune("missing", ','); got != ',' {
		t.Errorf("Rune fallback = %q", got)
	}
	m := o.StringMap("tags")
	if len(m) != 1 || m["a"] != "1" {
		t.Errorf("StringMap(tags) = %v", m)
	}
}

func TestOptions_NilReceiver(t *testing.T) {
	t.Parallel()

	var o Options
	if o.Bool("x", true) != true || o.Int("x", 5) != 5 || o.String("x", "d") != "d" || o.Rune("x", 'z') != 'z' {
		t.Error("nil Options must return fallbacks")
	}
	if m := o.StringMap("x"); m == nil || len(m) != 0 {
		t.Errorf("nil Options StringMap = %v", m)
	}
}
