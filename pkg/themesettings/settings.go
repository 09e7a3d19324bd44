// Package themesettings holds the board's theme settings: a typed record
// merged over static defaults and a store that loads it once and publishes it
// to subscribers.
package themesettings

import (
	"encoding/json"
	"sort"
)

const (
	KeyDisplayFeedbackPublicly = "display-feedback-publicly"
	KeyEnableTranslations      = "enable-translations"
	KeyDisplayedStatuses       = "displayed-statuses-statuses"
)

// knownKinds lists the keys this package interprets and the shape each must have.
var knownKinds = map[string]Kind{
	KeyDisplayFeedbackPublicly: KindBool,
	KeyEnableTranslations:      KindBool,
	KeyDisplayedStatuses:       KindList,
}

// ThemeSettings maps setting keys to values. Keys this package does not know
// are kept as-is.
type ThemeSettings map[string]Value

// Response is the payload returned by the theme settings endpoint. Settings is
// kept raw because the server may omit it or send a non-object.
type Response struct {
	Success  bool            `json:"success"`
	Settings json.RawMessage `json:"settings,omitempty"`
}

// Defaults returns a fresh copy of the static defaults.
func Defaults() ThemeSettings {
	return ThemeSettings{
		KeyDisplayFeedbackPublicly: Bool(true),
		KeyEnableTranslations:      Bool(true),
	}
}

// Merge returns defaults overlaid with overrides key by key.
func Merge(defaults, overrides ThemeSettings) ThemeSettings {
	out := defaults.Clone()
	for k, v := range overrides {
		out[k] = v.clone()
	}
	return out
}

// Clone returns a deep copy.
func (s ThemeSettings) Clone() ThemeSettings {
	out := make(ThemeSettings, len(s))
	for k, v := range s {
		out[k] = v.clone()
	}
	return out
}

// Get returns the value stored at key.
func (s ThemeSettings) Get(key string) (Value, bool) {
	v, ok := s[key]
	return v, ok
}

func (s ThemeSettings) DisplayFeedbackPublicly() bool {
	return s.boolOr(KeyDisplayFeedbackPublicly, true)
}

func (s ThemeSettings) EnableTranslations() bool {
	return s.boolOr(KeyEnableTranslations, true)
}

// DisplayedStatuses returns the ordered list of statuses the board shows, if set.
func (s ThemeSettings) DisplayedStatuses() ([]string, bool) {
	v, ok := s[KeyDisplayedStatuses]
	if !ok {
		return nil, false
	}
	return v.AsStrings()
}

func (s ThemeSettings) boolOr(key string, fallback bool) bool {
	if v, ok := s[key]; ok {
		if b, ok := v.AsBool(); ok {
			return b
		}
	}
	return fallback
}

// Keys returns the keys in sorted order.
func (s ThemeSettings) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports deep equality.
func (s ThemeSettings) Equal(o ThemeSettings) bool {
	if len(s) != len(o) {
		return false
	}
	for k, v := range s {
		other, ok := o[k]
		if !ok || !v.Equal(other) {
			return false
		}
	}
	return true
}

// IsKnownKey reports whether key is interpreted by this package.
func IsKnownKey(key string) bool {
	_, ok := knownKinds[key]
	return ok
}

// classify splits settings keys into unknown keys and known keys whose value
// has the wrong shape. A known list key must also hold only strings.
func classify(s ThemeSettings) (unknown, mistyped []string) {
	for _, k := range s.Keys() {
		want, known := knownKinds[k]
		if !known {
			unknown = append(unknown, k)
			continue
		}
		v := s[k]
		if v.Kind() != want {
			mistyped = append(mistyped, k)
			continue
		}
		if want == KindList {
			if _, ok := v.AsStrings(); !ok {
				mistyped = append(mistyped, k)
			}
		}
	}
	return unknown, mistyped
}

// decodeSettings decodes raw into ThemeSettings. ok is false when raw is
// absent or not a JSON object.
func decodeSettings(raw json.RawMessage) (ThemeSettings, bool, error) {
	if len(raw) == 0 {
		return nil, false, nil
	}
	var v Value
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false, err
	}
	obj, ok := v.AsObject()
	if !ok {
		return nil, false, nil
	}
	return ThemeSettings(obj), true, nil
}
