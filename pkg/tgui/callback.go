package tgui

import (
	"strings"
)

// Data formats inline callback data as "action:kind:id".
// Telegram caps callback_data at 64 bytes; keep ids short.
func Data(action, kind, id string) string {
	action = strings.TrimSpace(action)
	kind = strings.TrimSpace(kind)
	if id == "" {
		return action + ":" + kind
	}
	return action + ":" + kind + ":" + id
}

// SplitData is the inverse of Data. The id part may itself contain colons.
func SplitData(data string) (action, kind, id string) {
	parts := strings.SplitN(data, ":", 3)
	switch len(parts) {
	case 3:
		return parts[0], parts[1], parts[2]
	case 2:
		return parts[0], parts[1], ""
	default:
		return data, "", ""
	}
}
