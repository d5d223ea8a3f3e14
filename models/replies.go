package models

import (
	"context"

	"gorm.io/gorm"

	"github.com/cppla/weightloss/thread"
)

// ReplyExpander loads one level of replies per call from the table of
// model, which must have id and parent_id columns.
func ReplyExpander(db *gorm.DB, model interface{}) thread.ExpandFunc[uint] {
	return func(ctx context.Context, frontier []uint) ([]uint, error) {
		var ids []uint
		err := db.WithContext(ctx).Model(model).Where("parent_id IN ?", frontier).Pluck("id", &ids).Error
		return ids, err
	}
}

// CountReplies returns the number of replies below id at any depth.
func CountReplies(ctx context.Context, db *gorm.DB, model interface{}, id uint) (int, error) {
	return thread.CountDescendants(ctx, id, ReplyExpander(db, model))
}

// Node is implemented by every self-referencing comment model.
type Node interface {
	NodeID() uint
	NodeParent() *uint
}

// IndexOf builds an in-memory reply index from an already loaded list.
func IndexOf[T Node](items []T) *thread.Index[uint] {
	ix := thread.NewIndex[uint]()
	for _, it := range items {
		if p := it.NodeParent(); p != nil {
			ix.Add(it.NodeID(), *p, true)
		} else {
			ix.Add(it.NodeID(), 0, false)
		}
	}
	return ix
}
