package model

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// TitleKey is the label under which every RawRecord stores the wine title.
const TitleKey = "Title"

// Value is one scraped attribute value: a single string, or a list of
// strings for multi-valued attributes (grape lists).
type Value struct {
	items []string
	multi bool
}

// Text returns a single-valued Value.
func Text(s string) Value {
	return Value{items: []string{s}}
}

// List returns a multi-valued Value. The slice is copied.
func List(items ...string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{items: cp, multi: true}
}

// IsList reports whether the value is multi-valued.
func (v Value) IsList() bool { return v.multi }

// Items returns a copy of the list items. A single value yields one item.
func (v Value) Items() []string {
	cp := make([]string, len(v.items))
	copy(cp, v.items)
	return cp
}

// String returns the single value, or the persisted rendering of a list.
func (v Value) String() string {
	if v.multi {
		return FormatList(v.items)
	}
	if len(v.items) == 0 {
		return ""
	}
	return v.items[0]
}

// MarshalJSON encodes a list as a JSON array and a single value as a string.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.multi {
		items := v.items
		if items == nil {
			items = []string{}
		}
		return json.Marshal(items)
	}
	return json.Marshal(v.String())
}

// UnmarshalJSON accepts a string, an array of strings, or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*v = Text("")
		return nil
	case strings.HasPrefix(trimmed, "["):
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return eris.Wrap(err, "model: decode list value")
		}
		*v = List(items...)
		return nil
	default:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return eris.Wrap(err, "model: decode text value")
		}
		*v = Text(s)
		return nil
	}
}

// FormatList renders items the way the scraper has always persisted list
// cells: ['50% Merlot', 'Cabernet Franc']. Items containing a single quote
// and no double quote are wrapped in double quotes.
func FormatList(items []string) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteItem(item))
	}
	b.WriteByte(']')
	return b.String()
}

func quoteItem(s string) string {
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

// RawRecord is one scraped wine: label -> value, in insertion order.
// It is built once by an extractor and not mutated afterwards.
type RawRecord struct {
	keys   []string
	values map[string]Value
}

// NewRawRecord returns an empty record.
func NewRawRecord() *RawRecord {
	return &RawRecord{values: make(map[string]Value)}
}

// Set stores a value. Re-setting an existing label keeps its position.
func (r *RawRecord) Set(label string, v Value) {
	if _, ok := r.values[label]; !ok {
		r.keys = append(r.keys, label)
	}
	r.values[label] = v
}

// Get returns the value for a label.
func (r *RawRecord) Get(label string) (Value, bool) {
	v, ok := r.values[label]
	return v, ok
}

// Title returns the record title, or "" if none was set.
func (r *RawRecord) Title() string {
	v, _ := r.Get(TitleKey)
	return v.String()
}

// Keys returns the labels in insertion order.
func (r *RawRecord) Keys() []string {
	cp := make([]string, len(r.keys))
	copy(cp, r.keys)
	return cp
}

// Len returns the number of labels.
func (r *RawRecord) Len() int { return len(r.keys) }

// Merge copies every label of other into r, after r's existing labels.
func (r *RawRecord) Merge(other *RawRecord) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		r.Set(k, other.values[k])
	}
}

// MarshalJSON encodes the record as a JSON object in label order.
func (r *RawRecord) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, eris.Wrap(err, "model: encode label")
		}
		val, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, eris.Wrapf(err, "model: encode value for %q", k)
		}
		b.Write(key)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// UnmarshalJSON decodes a JSON object, keeping the key order of the input.
func (r *RawRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	tok, err := dec.Token()
	if err != nil {
		return eris.Wrap(err, "model: decode record")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return eris.New("model: record must be a JSON object")
	}

	*r = RawRecord{values: make(map[string]Value)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return eris.Wrap(err, "model: decode label")
		}
		label, ok := tok.(string)
		if !ok {
			return eris.Errorf("model: unexpected label token %v", tok)
		}
		var v Value
		if err := dec.Decode(&v); err != nil {
			return eris.Wrapf(err, "model: decode value for %q", label)
		}
		r.Set(label, v)
	}
	if _, err := dec.Token(); err != nil {
		return eris.Wrap(err, "model: decode record end")
	}
	return nil
}
