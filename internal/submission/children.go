package submission

import (
	"context"

	"github.com/goliatone/go-cms-admin/internal/fieldarray"
)

// Children describes how the sub-records of a field array reach the backend.
type Children[T fieldarray.Item] struct {
	Resource string
	Create   func(ctx context.Context, key string, item T) error
	Update   func(ctx context.Context, key string, item T) error
	Delete   func(ctx context.Context, key string, id string) error
}

// AddChildren schedules one delete per pending id, one update per existing
// item and one create per added item.
func AddChildren[T fieldarray.Item](plan *Plan, arr *fieldarray.Array[T], children Children[T]) *Plan {
	if arr == nil {
		return plan
	}
	if children.Delete != nil {
		for _, id := range arr.PendingDeletions() {
			plan.Delete(children.Resource, id, func(ctx context.Context, key string) error {
				return children.Delete(ctx, key, id)
			})
		}
	}
	if children.Update != nil {
		for _, item := range arr.Existing() {
			plan.Add(Call{
				Kind:        KindUpdate,
				Resource:    children.Resource,
				ID:          item.ItemID(),
				Fingerprint: Fingerprint(item),
				Run: func(ctx context.Context, key string) error {
					return children.Update(ctx, key, item)
				},
			})
		}
	}
	if children.Create != nil {
		for _, item := range arr.Added() {
			plan.Create(children.Resource, func(ctx context.Context, key string) error {
				return children.Create(ctx, key, item)
			})
		}
	}
	return plan
}
