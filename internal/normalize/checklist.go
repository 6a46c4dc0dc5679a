package normalize

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrEmptyChecklist signals that the checklist generation returned nothing
// usable.
var ErrEmptyChecklist = errors.New("checklist response is empty or not an object")

// ChecklistGroup is one normalized packing-list category from the generator.
// Required items are the ones the traveller should not leave without.
type ChecklistGroup struct {
	Category      string
	RequiredItems []string
	Items         []string
}

// ParseChecklist normalizes the checklist-generation payload
// {"checklist":[{"category","required_items","items"}]}. Groups without a
// category name are skipped, duplicate item names within a group collapse.
func ParseChecklist(raw []byte) ([]ChecklistGroup, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, ErrEmptyChecklist
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, ErrEmptyChecklist
	}

	groups := []ChecklistGroup{}
	rawGroups, ok := pick(payload, "checklist").([]interface{})
	if !ok {
		return groups, nil
	}

	for _, rawGroup := range rawGroups {
		entry, ok := rawGroup.(map[string]interface{})
		if !ok {
			continue
		}
		group := ChecklistGroup{
			Category:      String(pick(entry, "category")),
			RequiredItems: stringList(pick(entry, "required_items", "requiredItems")),
			Items:         stringList(pick(entry, "items")),
		}
		if group.Category == "" {
			continue
		}
		// The optional list sometimes repeats required entries.
		group.Items = subtract(group.Items, group.RequiredItems)
		groups = append(groups, group)
	}

	return groups, nil
}

func stringList(v interface{}) []string {
	out := []string{}
	list, ok := v.([]interface{})
	if !ok {
		return out
	}
	seen := map[string]bool{}
	for _, entry := range list {
		s := String(entry)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func subtract(items, exclude []string) []string {
	excluded := map[string]bool{}
	for _, s := range exclude {
		excluded[s] = true
	}
	out := []string{}
	for _, s := range items {
		if !excluded[s] {
			out = append(out, s)
		}
	}
	return out
}
