// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package models

import "time"

// Category defines the data structure of one class of observations within a
// project: an ordered list of typed fields plus presentation metadata.
type Category struct {
	ID            int64         `json:"id"`
	ProjectID     int64         `json:"-"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	Order         int           `json:"order"`
	Status        Status        `json:"status"`
	DefaultStatus DefaultStatus `json:"default_status"`

	// Colour and Transparency drive client-side rendering of the category's
	// observations. Transparency is a percentage from 0 to 100.
	Colour       string `json:"colour"`
	Transparency int    `json:"transparency"`

	// DisplayFieldID references the field whose value labels observations.
	// When nil, the first field by order is used.
	DisplayFieldID *int64 `json:"display_field,omitempty"`

	// ExpiryFieldID references a DateTime field whose value is copied to the
	// observation's expiry timestamp. Schema writes referencing a
	// non-DateTime field are rejected.
	ExpiryFieldID *int64 `json:"expiry_field,omitempty"`

	CreatorID int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`

	// Fields is the ordered field list of the category.
	Fields []Field `json:"fields"`
}

// Field returns the field with the given key, or nil if the category has no
// such field.
func (c *Category) Field(key string) *Field {
	for i := range c.Fields {
		if c.Fields[i].Key == key {
			return &c.Fields[i]
		}
	}
	return nil
}

// FieldByID returns the field with the given ID, or nil.
func (c *Category) FieldByID(id int64) *Field {
	for i := range c.Fields {
		if c.Fields[i].ID == id {
			return &c.Fields[i]
		}
	}
	return nil
}

// ActiveFields returns the fields with active status, preserving order.
func (c *Category) ActiveFields() []Field {
	active := make([]Field, 0, len(c.Fields))
	for _, f := range c.Fields {
		if f.Status == StatusActive {
			active = append(active, f)
		}
	}
	return active
}

// DisplayField returns the field that labels observations: the explicitly
// referenced display field when set, otherwise the first field by order.
// Returns nil for a category without fields.
func (c *Category) DisplayField() *Field {
	if c.DisplayFieldID != nil {
		if f := c.FieldByID(*c.DisplayFieldID); f != nil {
			return f
		}
	}
	var first *Field
	for i := range c.Fields {
		if first == nil || c.Fields[i].Order < first.Order {
			first = &c.Fields[i]
		}
	}
	return first
}

// ExpiryField returns the referenced expiry field if it is a DateTime field,
// otherwise nil.
func (c *Category) ExpiryField() *Field {
	if c.ExpiryFieldID == nil {
		return nil
	}
	f := c.FieldByID(*c.ExpiryFieldID)
	if f == nil || f.Type != FieldDateTime {
		return nil
	}
	return f
}
