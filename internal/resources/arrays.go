package resources

import (
	"context"
	"fmt"
	"maps"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-cms-admin/internal/apiclient"
	"github.com/goliatone/go-cms-admin/internal/fieldarray"
	"github.com/goliatone/go-cms-admin/internal/forms"
	"github.com/goliatone/go-cms-admin/internal/submission"
)

// HeroButton is a call to action of the hero section.
type HeroButton struct {
	ID    string `json:"_id,omitempty" schema:"id"`
	Title string `json:"title" schema:"title"`
	Link  string `json:"link" schema:"link"`
}

func (b HeroButton) ItemID() string { return b.ID }

func (b HeroButton) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Title, forms.Text(1, 40)...),
		validation.Field(&b.Link, validation.Required, forms.Link),
	)
}

func (b HeroButton) values() map[string]string {
	return map[string]string{"title": b.Title, "link": b.Link}
}

func (b HeroButton) payload() map[string]any {
	return map[string]any{"title": b.Title, "link": b.Link}
}

// ListItem is an entry of a service sub-list: included services and the
// options of "what your client gets".
type ListItem struct {
	ID       string `json:"_id,omitempty" schema:"id"`
	Title    string `json:"title" schema:"title"`
	SubTitle string `json:"subTitle" schema:"subTitle"`
}

func (i ListItem) ItemID() string { return i.ID }

func (i ListItem) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Title, forms.Text(1, 120)...),
		validation.Field(&i.SubTitle, forms.OptionalText(300)...),
	)
}

func (i ListItem) values() map[string]string {
	return map[string]string{"title": i.Title, "subTitle": i.SubTitle}
}

func (i ListItem) payload() map[string]any {
	return map[string]any{"title": i.Title, "subTitle": i.SubTitle}
}

type child interface {
	fieldarray.Item
	values() map[string]string
	payload() map[string]any
}

// arrayBinding exposes one field array of a draft to the generic form.
type arrayBinding interface {
	name() string
	apply(op string, index int) error
	view(errs map[string]string) ArrayView
	schedule(plan *submission.Plan, parentID string)
	embed(data map[string]any)
}

// childArray binds a draft slice and its pending-deletion list to a
// sub-resource endpoint.
type childArray[T child] struct {
	field       string
	label       string
	columns     []Column
	items       *[]T
	deleted     *[]string
	minItems    int
	resource    *apiclient.Resource[T]
	parentField string
	// embedPath locates the items in a create payload; it defaults to the
	// field name.
	embedPath []string
}

func (c *childArray[T]) name() string {
	return c.field
}

func (c *childArray[T]) array() *fieldarray.Array[T] {
	return fieldarray.Restore(c.field, *c.items, *c.deleted, fieldarray.MinItems(c.minItems))
}

func (c *childArray[T]) apply(op string, index int) error {
	arr := c.array()
	switch op {
	case "append":
		arr.AppendBlank()
	case "remove":
		if _, err := arr.Remove(index); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAction, op)
	}
	*c.items = arr.Items()
	*c.deleted = arr.PendingDeletions()
	return nil
}

func (c *childArray[T]) view(errs map[string]string) ArrayView {
	arr := c.array()
	view := ArrayView{
		Name:      c.field,
		Label:     c.label,
		Columns:   c.columns,
		Deleted:   arr.PendingDeletions(),
		CanRemove: arr.CanRemove(),
		Error:     errs[c.field],
	}
	for i, item := range arr.Items() {
		values := item.values()
		row := ArrayItem{Index: i, ID: item.ItemID()}
		for _, col := range c.columns {
			name := fmt.Sprintf("%s.%d.%s", c.field, i, col.Name)
			row.Fields = append(row.Fields, Field{
				Name:  name,
				Label: col.Label,
				Kind:  col.Kind,
				Value: values[col.Name],
				Error: errs[name],
			})
		}
		view.Items = append(view.Items, row)
	}
	return view
}

func (c *childArray[T]) schedule(plan *submission.Plan, parentID string) {
	withParent := func(item T) map[string]any {
		data := maps.Clone(item.payload())
		if c.parentField != "" && parentID != "" {
			data[c.parentField] = parentID
		}
		return data
	}
	submission.AddChildren(plan, c.array(), submission.Children[T]{
		Resource: c.resource.Tag(),
		Create: func(ctx context.Context, key string, item T) error {
			_, err := c.resource.Create(ctx, apiclient.JSON(withParent(item)), key)
			return err
		},
		Update: func(ctx context.Context, key string, item T) error {
			_, err := c.resource.Update(ctx, item.ItemID(), apiclient.JSON(withParent(item)), key)
			return err
		},
		Delete: func(ctx context.Context, key, id string) error {
			return c.resource.Delete(ctx, id, key)
		},
	})
}

// embed writes the items into a create payload, which the backend stores
// together with the parent.
func (c *childArray[T]) embed(data map[string]any) {
	items := make([]map[string]any, 0, len(*c.items))
	for _, item := range *c.items {
		items = append(items, item.payload())
	}
	path := c.embedPath
	if len(path) == 0 {
		path = []string{c.field}
	}
	target := data
	for _, key := range path[:len(path)-1] {
		next, ok := target[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			target[key] = next
		}
		target = next
	}
	target[path[len(path)-1]] = items
}
