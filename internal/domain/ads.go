package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SlotKey identifies one of the six fixed ad placements.
type SlotKey string

const (
	SlotLeft1  SlotKey = "left1"
	SlotLeft2  SlotKey = "left2"
	SlotRight1 SlotKey = "right1"
	SlotRight2 SlotKey = "right2"
	SlotTop    SlotKey = "top"
	SlotBottom SlotKey = "bottom"
)

// SlotKeys lists every placement in display order.
var SlotKeys = []SlotKey{SlotLeft1, SlotLeft2, SlotRight1, SlotRight2, SlotTop, SlotBottom}

var slotLabels = map[SlotKey]string{
	SlotLeft1:  "Left Ad 1",
	SlotLeft2:  "Left Ad 2",
	SlotRight1: "Right Ad 1",
	SlotRight2: "Right Ad 2",
	SlotTop:    "Mobile Top Ad",
	SlotBottom: "Mobile Bottom Ad",
}

// String returns the string representation of the SlotKey.
func (k SlotKey) String() string {
	return string(k)
}

// Label returns the operator-facing name of the placement.
func (k SlotKey) Label() string {
	return slotLabels[k]
}

// Valid reports whether k is one of the six known placements.
func (k SlotKey) Valid() bool {
	_, ok := slotLabels[k]
	return ok
}

// ParseSlotKey validates a raw placement identifier.
func ParseSlotKey(s string) (SlotKey, error) {
	k := SlotKey(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSlot, s)
	}
	return k, nil
}

// AdField names an editable attribute of an AdSlot.
type AdField string

const (
	FieldImageURL AdField = "imageUrl"
	FieldLinkURL  AdField = "linkUrl"
)

// AdSlot is a single image + click-through link pair.
type AdSlot struct {
	ImageURL string `json:"imageUrl"`
	LinkURL  string `json:"linkUrl"`
}

// AdSet holds the full six-slot ad configuration.
// It is always fetched and persisted wholesale.
type AdSet map[SlotKey]AdSlot

// NewAdSet returns an AdSet with all six slots present and empty.
func NewAdSet() AdSet {
	set := make(AdSet, len(SlotKeys))
	for _, k := range SlotKeys {
		set[k] = AdSlot{}
	}
	return set
}

// Slot returns the slot for key, or an empty slot if the key is absent.
func (s AdSet) Slot(key SlotKey) AdSlot {
	return s[key]
}

// HasImage reports whether the slot carries an image to render.
func (s AdSet) HasImage(key SlotKey) bool {
	return s[key].ImageURL != ""
}

// Clone returns an independent copy of the set.
func (s AdSet) Clone() AdSet {
	out := make(AdSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// With returns a copy of the set with one field of one slot replaced.
// The value is taken as-is; URL shape is not checked.
func (s AdSet) With(key SlotKey, field AdField, value string) (AdSet, error) {
	if !key.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSlot, key)
	}

	slot := s[key]
	switch field {
	case FieldImageURL:
		slot.ImageURL = value
	case FieldLinkURL:
		slot.LinkURL = value
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	out := s.Clone()
	out[key] = slot
	return out, nil
}

// UnmarshalJSON keeps the six known placements and ignores anything else the
// backend attaches to the document. Missing placements decode as empty. A
// null document leaves the set untouched.
func (s *AdSet) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	set := NewAdSet()
	for _, k := range SlotKeys {
		msg, ok := raw[k.String()]
		if !ok || string(msg) == "null" {
			continue
		}
		var slot AdSlot
		if err := json.Unmarshal(msg, &slot); err != nil {
			return fmt.Errorf("decode slot %s: %w", k, err)
		}
		set[k] = slot
	}

	*s = set
	return nil
}
