package audit

import (
	"fmt"
	"sort"
	"strings"
)

// actorLabel names who acted: the joined name, the bare id when the user
// is gone, or "anónimo" for failed logins.
func actorLabel(e Entry) string {
	switch {
	case e.ActorID == 0:
		return "anónimo"
	case e.ActorName == "":
		return fmt.Sprintf("#%d", e.ActorID)
	default:
		return e.ActorName
	}
}

func targetLabel(e Entry) string {
	if e.TargetID == 0 {
		return ""
	}
	return fmt.Sprintf("#%d", e.TargetID)
}

// formatDetails renders details as "k=v" pairs in key order.
func formatDetails(details map[string]any) string {
	if len(details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, details[k]))
	}
	return strings.Join(parts, " ")
}
