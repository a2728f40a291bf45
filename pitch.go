package leadgen

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const defaultPitch = "Generated pitch for lead"

// PairPitches lines the analyze service's pitch output back up with the leads that were sent.
// The service may answer with a list (one entry per lead), an object holding a `pitches` list,
// or a single string used for every lead.
func PairPitches(leads []Lead, raw json.RawMessage) []PitchCard {
	var v interface{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &v); err != nil {
			v = string(raw)
		}
	}

	cards := make([]PitchCard, 0, len(leads))
	for i, l := range leads {
		cards = append(cards, PitchCard{
			Name:    l.Name,
			Company: l.Company,
			Title:   l.Title,
			Revenue: FormatRevenue(l.AnnualRevenue),
			Pitch:   pitchAt(v, i),
		})
	}
	return cards
}

func pitchAt(v interface{}, i int) string {
	switch t := v.(type) {
	case []interface{}:
		if i < len(t) {
			if p := pitchText(t[i]); p != "" {
				return p
			}
		}
	case map[string]interface{}:
		if list, ok := t["pitches"].([]interface{}); ok && i < len(list) {
			if p := pitchText(list[i]); p != "" {
				return p
			}
		}
	case string:
		if t != "" {
			return t
		}
	}
	return defaultPitch
}

// pitchText unwraps the {lead, pitch, variations} entries the local analyzer produces
func pitchText(v interface{}) string {
	if obj, ok := v.(map[string]interface{}); ok {
		if p, ok := obj["pitch"].(string); ok {
			return p
		}
	}
	return CoerceText(v)
}

// FormatRevenue renders revenue in millions, e.g. 2500000 -> "$2.5M"
func FormatRevenue(revenue int64) string {
	return fmt.Sprintf("$%.1fM", float64(revenue)/1_000_000)
}
