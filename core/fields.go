package core

import "strings"

// ResolveField extracts a value from a data payload using dot notation
// (e.g. "user.name"). Any missing intermediate key or non-map intermediate
// value resolves to not-found; the lookup never panics. Both engines share
// this resolver.
func ResolveField(data map[string]interface{}, path string) (interface{}, bool) {
	if data == nil || path == "" {
		return nil, false
	}

	parts := strings.Split(path, ".")
	current := data
	for i, part := range parts {
		val, ok := current[part]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return val, true
		}
		next, ok := val.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current = next
	}
	return nil, false
}

// EventFieldValue resolves a dotted path against an event, exposing the
// top-level envelope fields alongside the data payload the way rule authors
// expect ("type", "source", "data.user", or bare "user").
func EventFieldValue(event *Event, path string) (interface{}, bool) {
	if event == nil {
		return nil, false
	}

	switch path {
	case "id":
		return event.ID, true
	case "timestamp":
		return event.Timestamp, true
	case "type":
		return event.Type, true
	case "source":
		return event.Source, true
	}

	if rest, ok := strings.CutPrefix(path, "data."); ok {
		return ResolveField(event.Data, rest)
	}
	return ResolveField(event.Data, path)
}
