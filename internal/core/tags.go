package core

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"
)

// TagStore holds tag definitions and their attachment to mod ids.
// It is not safe for concurrent use.
type TagStore struct {
	defined  map[domain.TagRef]struct{}
	attached map[string]map[domain.TagRef]struct{}
}

// NewTagStore creates an empty tag store
func NewTagStore() *TagStore {
	return &TagStore{
		defined:  make(map[domain.TagRef]struct{}),
		attached: make(map[string]map[domain.TagRef]struct{}),
	}
}

// Define adds a tag definition. Defining an existing tag is a no-op.
func (s *TagStore) Define(tag domain.TagRef) error {
	if tag.Value == "" {
		return errors.New("tag value cannot be empty")
	}
	s.defined[tag] = struct{}{}
	return nil
}

// Undefine removes a tag definition and detaches it from every mod
func (s *TagStore) Undefine(tag domain.TagRef) {
	delete(s.defined, tag)
	for modID, tags := range s.attached {
		delete(tags, tag)
		if len(tags) == 0 {
			delete(s.attached, modID)
		}
	}
}

// Defined returns every tag definition, sorted
func (s *TagStore) Defined() []domain.TagRef {
	tags := slices.Collect(maps.Keys(s.defined))
	domain.SortTags(tags)
	return tags
}

// IsDefined reports whether tag has a definition
func (s *TagStore) IsDefined(tag domain.TagRef) bool {
	_, ok := s.defined[tag]
	return ok
}

// Attach labels modID with a defined tag
func (s *TagStore) Attach(modID string, tag domain.TagRef) error {
	if !s.IsDefined(tag) {
		return fmt.Errorf("%w: %s", domain.ErrTagNotFound, tag)
	}
	tags, ok := s.attached[modID]
	if !ok {
		tags = make(map[domain.TagRef]struct{})
		s.attached[modID] = tags
	}
	tags[tag] = struct{}{}
	return nil
}

// Detach removes a tag from modID. Returns false if it was not attached.
func (s *TagStore) Detach(modID string, tag domain.TagRef) bool {
	tags, ok := s.attached[modID]
	if !ok {
		return false
	}
	if _, ok := tags[tag]; !ok {
		return false
	}
	delete(tags, tag)
	if len(tags) == 0 {
		delete(s.attached, modID)
	}
	return true
}

// Tags returns the tags attached to modID, sorted
func (s *TagStore) Tags(modID string) []domain.TagRef {
	tags := slices.Collect(maps.Keys(s.attached[modID]))
	if len(tags) == 0 {
		return nil
	}
	domain.SortTags(tags)
	return tags
}

// Apply sets each record's Tags from the store
func (s *TagStore) Apply(records []domain.ModRecord) {
	for i := range records {
		records[i].Tags = s.Tags(records[i].ModID)
	}
}
