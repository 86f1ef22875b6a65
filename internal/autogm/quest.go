package autogm

import "strings"

// Quest types and statuses accepted from narration output.
var (
	QuestTypes    = []string{"main quest", "side quest", "optional objective"}
	QuestStatuses = []string{"unknown", "rumored", "active", "completed", "failed", "abandoned"}
)

// Quest is one quest-log entry tracked across scenes.
type Quest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

// MergeQuests folds narration quest updates into an existing log. Updates
// match existing quests by case-insensitive name; matched quests are updated
// in place, unmatched ones append. The log order is preserved.
func MergeQuests(log []Quest, updates []Quest) []Quest {
	merged := append([]Quest{}, log...)
	for _, update := range updates {
		if strings.TrimSpace(update.Name) == "" {
			continue
		}
		found := false
		for i := range merged {
			if strings.EqualFold(merged[i].Name, update.Name) {
				if update.Type != "" {
					merged[i].Type = update.Type
				}
				if update.Status != "" {
					merged[i].Status = update.Status
				}
				if update.Description != "" {
					merged[i].Description = update.Description
				}
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, update)
		}
	}
	return merged
}
