// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package webhook notifies external subscribers about changes to the
// category tree. Events are signed with HMAC-SHA256 and delivered
// asynchronously with retries.
package webhook

import (
	"time"
)

// Event types.
const (
	EventCategoryCreated = "category.created"
	EventCategoryMoved   = "category.moved"
	EventCategoryDeleted = "category.deleted"
)

// Event represents a webhook event to be delivered.
type Event struct {
	Type      string     `json:"type"`
	Timestamp time.Time  `json:"timestamp"`
	Data      ChangeData `json:"data"`
}

// NewEvent creates a new webhook event.
func NewEvent(eventType string, data ChangeData) *Event {
	return &Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// ChangeData describes the category a change applied to.
type ChangeData struct {
	CategoryID int64  `json:"category_id"`
	ParentID   int64  `json:"parent_id"`
	Name       string `json:"name,omitempty"`
	Slug       string `json:"slug,omitempty"`
	// Revision is the tree revision the change produced, when known.
	Revision int64 `json:"revision,omitempty"`
}
