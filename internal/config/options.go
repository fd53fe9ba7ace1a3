package config

// Options is a loosely-typed option bag carried by config sections whose
// knobs vary per backend (staging format tweaks, driver extras). Accessors
// return the fallback when the key is absent or has the wrong shape, so
// callers never branch on presence.
type Options map[string]any

func (o Options) Bool(key string, fallback bool) bool {
	if o == nil {
		return fallback
	}
	if v, ok := o[key].(bool); ok {
		return v
	}
	return fallback
}

func (o Options) Int(key string, fallback int) int {
	if o == nil {
		return fallback
	}
	switch v := o[key].(type) {
	case int:
		return v
	case float64:
		// encoding/json decodes all numbers into float64.
		return int(v)
	}
	return fallback
}

func (o Options) String(key string, fallback string) string {
	if o == nil {
		return fallback
	}
	if v, ok := o[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// Rune returns the first rune of the string stored under key.
func (o Options) Rune(key string, fallback rune) rune {
	if o == nil {
		return fallback
	}
	if v, ok := o[key].(string); ok && v != "" {
		return []rune(v)[0]
	}
	return fallback
}

func (o Options) StringMap(key string) map[string]string {
	out := map[string]string{}
	if o == nil {
		return out
	}
	raw, ok := o[key].(map[string]any)
	if !ok {
		return out
	}
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
