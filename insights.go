package leadgen

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// InsightsKind tags which variant an Insights value holds
type InsightsKind int32

const (
	InsightsAbsent InsightsKind = iota
	InsightsText
	InsightsObject
)

/*
Insights is whatever the analyze service returned for a request, narrowed down to what the
campaign planner can use. The service may answer with an object, a list, a plain string or
nothing at all; ParseInsights sorts that into one of three variants:

	InsightsAbsent  nothing (or JSON null) came back
	InsightsText    any non-object value, coerced to text
	InsightsObject  an object; recommendation, content and metrics are pulled out and coerced to text

Only InsightsObject carries fields the planner merges.
*/
type Insights struct {
	Kind InsightsKind

	Text string // InsightsText only

	Recommendation string
	Content        string
	Metrics        string

	// set when the field was sent with a truthy value, even one that renders as "" (e.g. [])
	HasRecommendation bool
	HasContent        bool

	raw json.RawMessage
}

func NoInsights() Insights {
	return Insights{Kind: InsightsAbsent}
}

func TextInsights(s string) Insights {
	return Insights{Kind: InsightsText, Text: s}
}

// ObjectInsights builds the structured variant directly; empty fields are treated as missing.
func ObjectInsights(recommendation, content, metrics string) Insights {
	return Insights{
		Kind:              InsightsObject,
		Recommendation:    recommendation,
		Content:           content,
		Metrics:           metrics,
		HasRecommendation: recommendation != "",
		HasContent:        content != "",
	}
}

// ParseInsights classifies a raw JSON value. It never fails: anything that isn't valid JSON is
// kept as text.
func ParseInsights(raw json.RawMessage) Insights {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return NoInsights()
	}

	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		d("insights are not valid json, keeping as text: %v", err)
		return TextInsights(string(trimmed))
	}

	obj, ok := v.(map[string]interface{})
	if !ok {
		in := TextInsights(CoerceText(v))
		in.raw = trimmed
		return in
	}

	in := Insights{Kind: InsightsObject, raw: trimmed}
	in.Recommendation, in.HasRecommendation = fieldText(obj, "recommendation")
	in.Content, in.HasContent = fieldText(obj, "content")
	in.Metrics, _ = fieldText(obj, "metrics")
	return in
}

// Raw returns the JSON the insights were parsed from, or nil when they were built in code.
func (in Insights) Raw() json.RawMessage {
	return in.raw
}

func (in Insights) MarshalJSON() ([]byte, error) {
	if in.raw != nil {
		return in.raw, nil
	}
	switch in.Kind {
	case InsightsText:
		return json.Marshal(in.Text)
	case InsightsObject:
		m := map[string]string{}
		if in.HasRecommendation {
			m["recommendation"] = in.Recommendation
		}
		if in.HasContent {
			m["content"] = in.Content
		}
		if in.Metrics != "" {
			m["metrics"] = in.Metrics
		}
		return json.Marshal(m)
	}
	return []byte("null"), nil
}

func (in *Insights) UnmarshalJSON(b []byte) error {
	*in = ParseInsights(append(json.RawMessage(nil), b...))
	return nil
}

// fieldText returns the coerced text of obj[key] and whether the field counts as present.
// Missing, null, false and "" are absent; lists and objects are present even when empty.
func fieldText(obj map[string]interface{}, key string) (string, bool) {
	v, ok := obj[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case bool:
		if !t {
			return "", false
		}
	case string:
		if t == "" {
			return "", false
		}
	}
	return CoerceText(v), true
}

// CoerceText renders a decoded JSON value as text: lists are comma joined element by element,
// objects become compact JSON.
func CoerceText(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, CoerceText(e))
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(t, ", ")
	}

	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
