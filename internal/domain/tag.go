package domain

import (
	"sort"
	"strings"
)

// TagCategory classifies a tag
type TagCategory int

const (
	TagType TagCategory = iota
	TagFunctionality
	TagTranslation
	TagCustom
)

func (c TagCategory) String() string {
	switch c {
	case TagType:
		return "type"
	case TagFunctionality:
		return "functionality"
	case TagTranslation:
		return "translation"
	case TagCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// ParseTagCategory converts a string to TagCategory
func ParseTagCategory(s string) (TagCategory, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "type":
		return TagType, true
	case "functionality", "function":
		return TagFunctionality, true
	case "translation":
		return TagTranslation, true
	case "custom":
		return TagCustom, true
	default:
		return TagCustom, false
	}
}

// TagRef is a label attached to a mod identity
type TagRef struct {
	Category TagCategory
	Value    string
}

func (t TagRef) String() string {
	return t.Category.String() + ":" + t.Value
}

// ParseTagRef parses "category:value". A bare value is a custom tag.
func ParseTagRef(s string) (TagRef, bool) {
	cat, val, found := strings.Cut(s, ":")
	if !found {
		val = strings.TrimSpace(s)
		return TagRef{Category: TagCustom, Value: val}, val != ""
	}
	category, ok := ParseTagCategory(cat)
	val = strings.TrimSpace(val)
	if !ok || val == "" {
		return TagRef{}, false
	}
	return TagRef{Category: category, Value: val}, true
}

// SortTags orders tags by category, then value
func SortTags(tags []TagRef) {
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Category != tags[j].Category {
			return tags[i].Category < tags[j].Category
		}
		return tags[i].Value < tags[j].Value
	})
}
