package domain

import (
	shared "github.com/felixgeelhaar/allie/internal/shared/domain"
)

const AggregateType = "inbox_item"

const (
	RoutingKeyClassified      = "inbox.item.classified"
	RoutingKeyClassifyFailed  = "inbox.item.classification_failed"
	RoutingKeyActionCompleted = "inbox.action.completed"
	RoutingKeyActionFailed    = "inbox.action.failed"
	RoutingKeyArchived        = "inbox.item.archived"
)

// ItemClassified is published after a classification result is written back.
type ItemClassified struct {
	shared.BaseEvent
	Collection  Collection `json:"collection"`
	ItemID      string     `json:"item_id"`
	FamilyID    string     `json:"family_id"`
	Status      Status     `json:"status"`
	Category    string     `json:"category"`
	ActionCount int        `json:"action_count"`
}

func NewItemClassified(item InboxItem) ItemClassified {
	category := ""
	if item.AIAnalysis != nil {
		category = item.AIAnalysis.Category
	}
	return ItemClassified{
		BaseEvent:   shared.NewBaseEvent(item.Key().String(), AggregateType, RoutingKeyClassified),
		Collection:  item.Source.Collection(),
		ItemID:      item.ID,
		FamilyID:    item.FamilyID,
		Status:      item.Status,
		Category:    category,
		ActionCount: len(item.SuggestedActions),
	}
}

// ClassificationFailed is published after a failure record is written back.
type ClassificationFailed struct {
	shared.BaseEvent
	Collection Collection `json:"collection"`
	ItemID     string     `json:"item_id"`
	FamilyID   string     `json:"family_id"`
	Reason     string     `json:"reason"`
}

func NewClassificationFailed(item InboxItem, reason string) ClassificationFailed {
	return ClassificationFailed{
		BaseEvent:  shared.NewBaseEvent(item.Key().String(), AggregateType, RoutingKeyClassifyFailed),
		Collection: item.Source.Collection(),
		ItemID:     item.ID,
		FamilyID:   item.FamilyID,
		Reason:     reason,
	}
}

// ActionApplied is published when a suggested action completes or fails.
type ActionApplied struct {
	shared.BaseEvent
	Collection  Collection   `json:"collection"`
	ItemID      string       `json:"item_id"`
	FamilyID    string       `json:"family_id"`
	ActionIndex int          `json:"action_index"`
	ActionType  ActionType   `json:"action_type"`
	Status      ActionStatus `json:"status"`
	ResultID    string       `json:"result_id,omitempty"`
	Error       string       `json:"error,omitempty"`
}

func NewActionApplied(item InboxItem, index int) ActionApplied {
	action := item.SuggestedActions[index]
	key := RoutingKeyActionCompleted
	if action.Status != ActionCompleted {
		key = RoutingKeyActionFailed
	}
	return ActionApplied{
		BaseEvent:   shared.NewBaseEvent(item.Key().String(), AggregateType, key),
		Collection:  item.Source.Collection(),
		ItemID:      item.ID,
		FamilyID:    item.FamilyID,
		ActionIndex: index,
		ActionType:  action.Type,
		Status:      action.Status,
		ResultID:    action.ResultID,
		Error:       action.Error,
	}
}

// ItemArchived is published when an item is archived.
type ItemArchived struct {
	shared.BaseEvent
	Collection Collection `json:"collection"`
	ItemID     string     `json:"item_id"`
	FamilyID   string     `json:"family_id"`
}

func NewItemArchived(item InboxItem) ItemArchived {
	return ItemArchived{
		BaseEvent:  shared.NewBaseEvent(item.Key().String(), AggregateType, RoutingKeyArchived),
		Collection: item.Source.Collection(),
		ItemID:     item.ID,
		FamilyID:   item.FamilyID,
	}
}
