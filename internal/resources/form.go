package resources

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"mime/multipart"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/schema"

	"github.com/goliatone/go-cms-admin/internal/apiclient"
	"github.com/goliatone/go-cms-admin/internal/forms"
	"github.com/goliatone/go-cms-admin/internal/submission"
	"github.com/goliatone/go-cms-admin/internal/uploads"
)

const (
	tokenField    = "_token"
	maxTokenLen   = 64
	previewSuffix = "_preview"
	clearedSuffix = "_cleared"
	itemsSuffix   = "_items"

	msgInvalidForm   = "Please correct the highlighted fields"
	msgInvalidValue  = "is invalid"
	msgImageRequired = "an image is required"
	msgTooManyItems  = "has too many items"

	// maxArrayItems bounds the index of a posted field array row.
	maxArrayItems = 50
)

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	d.MaxSize(maxArrayItems)
	return d
}

// dropOversized removes keys whose array index is out of bounds so the
// decoder never grows a slice to a client chosen length. It returns the
// array field names that were cut.
func dropOversized(values url.Values) (url.Values, []string) {
	var cut []string
	kept := make(url.Values, len(values))
	for key, vals := range values {
		parts := strings.Split(key, ".")
		over := false
		for i, part := range parts[1:] {
			n, err := strconv.Atoi(part)
			if err == nil && (n < 0 || n >= maxArrayItems) {
				cut = append(cut, strings.Join(parts[:i+1], "."))
				over = true
				break
			}
		}
		if !over {
			kept[key] = vals
		}
	}
	return kept, cut
}

// submissionToken returns the posted token when it is well formed.
func submissionToken(values url.Values) string {
	token := strings.TrimSpace(values.Get(tokenField))
	if token == "" || len(token) > maxTokenLen {
		return ""
	}
	for _, r := range token {
		if !(r == '-' || r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return ""
		}
	}
	return token
}

// form is the add or edit form of one resource.
type form[R any, D forms.Draft] struct {
	mod        *module[R, D]
	id         string
	token      string
	ctrl       *forms.Controller[D]
	slots      []*uploads.Slot
	galleries  []*uploads.Gallery
	labels     map[string]string
	cleared    map[string]bool
	bindErrors map[string]string
}

func (m *module[R, D]) newForm(id string, draft D, rec *R) *form[R, D] {
	f := &form[R, D]{
		mod:   m,
		id:    id,
		token: uuid.NewString(),
		ctrl: forms.NewController(draft,
			forms.WithName(m.decl.def.Key),
			forms.WithLogger(m.deps.Logger),
			forms.WithValidationMessage(msgInvalidForm),
		),
		labels:     map[string]string{},
		cleared:    map[string]bool{},
		bindErrors: map[string]string{},
	}
	var media map[string][]string
	if rec != nil && m.decl.media != nil {
		media = m.decl.media(*rec)
	}
	for _, up := range m.decl.uploads {
		f.labels[up.Field] = up.Label
		if up.Gallery {
			g := uploads.NewGallery(up.Field,
				uploads.WithGalleryPolicy(m.deps.Policy),
				uploads.WithMaxItems(up.MaxItems),
			)
			g.Seed(media[up.Field]...)
			f.galleries = append(f.galleries, g)
			continue
		}
		opts := []uploads.SlotOption{uploads.WithPolicy(m.deps.Policy)}
		if up.Required || (up.RequiredOnCreate && id == "") {
			opts = append(opts, uploads.Required())
		}
		slot := uploads.NewSlot(up.Field, opts...)
		if urls := media[up.Field]; len(urls) > 0 {
			slot.Seed(urls[0])
		}
		f.slots = append(f.slots, slot)
	}
	return f
}

func (f *form[R, D]) Definition() Definition {
	return f.mod.decl.def
}

func (f *form[R, D]) ID() string {
	return f.id
}

func (f *form[R, D]) Editing() bool {
	return f.id != ""
}

func (f *form[R, D]) Bind(ctx context.Context, values url.Values, files map[string][]*multipart.FileHeader) error {
	draft := f.mod.decl.blank()
	f.bindErrors = map[string]string{}
	decoded, cut := dropOversized(values)
	for _, field := range cut {
		f.bindErrors[field] = msgTooManyItems
	}
	if err := decoder.Decode(&draft, decoded); err != nil {
		var multi schema.MultiError
		if !errors.As(err, &multi) {
			return err
		}
		for key := range multi {
			f.bindErrors[key] = msgInvalidValue
		}
	}
	f.ctrl.Set(func(d *D) { *d = draft })
	if token := submissionToken(values); token != "" {
		f.token = token
	}

	for _, slot := range f.slots {
		field := slot.Field()
		if headers := files[field]; len(headers) > 0 {
			file, err := uploads.FromMultipart(ctx, headers[len(headers)-1], slot.Policy())
			if err != nil {
				f.bindErrors[field] = err.Error()
				continue
			}
			if err := slot.Select(ctx, file); err != nil {
				f.bindErrors[field] = err.Error()
			}
			delete(f.cleared, field)
			continue
		}
		if values.Get(field+clearedSuffix) != "" {
			slot.Clear()
			f.cleared[field] = true
			continue
		}
		if err := slot.Restore(ctx, values.Get(field+previewSuffix)); err != nil {
			f.bindErrors[field] = err.Error()
		}
	}

	for _, g := range f.galleries {
		field := g.Field()
		if err := g.Restore(ctx, values[field+itemsSuffix]); err != nil {
			f.bindErrors[field] = err.Error()
			continue
		}
		for _, header := range files[field] {
			file, err := uploads.FromMultipart(ctx, header, f.mod.deps.Policy)
			if err == nil {
				err = g.Add(ctx, file)
			}
			if err != nil {
				f.bindErrors[field] = err.Error()
				break
			}
		}
	}
	return nil
}

func (f *form[R, D]) Do(action string) error {
	parts := strings.Split(strings.TrimSpace(action), ":")
	switch parts[0] {
	case "append", "remove":
		if len(parts) < 2 {
			return fmt.Errorf("%w: %s", ErrUnknownAction, action)
		}
		index := -1
		if parts[0] == "remove" {
			if len(parts) != 3 {
				return fmt.Errorf("%w: %s", ErrUnknownAction, action)
			}
			n, err := strconv.Atoi(parts[2])
			if err != nil {
				return fmt.Errorf("%w: %s", ErrUnknownAction, action)
			}
			index = n
		}
		var opErr error
		found := false
		f.ctrl.Set(func(d *D) {
			binding := f.binding(d, parts[1])
			if binding == nil {
				return
			}
			found = true
			opErr = binding.apply(parts[0], index)
		})
		if !found {
			return fmt.Errorf("%w: %s", ErrUnknownField, parts[1])
		}
		return opErr
	case "clear":
		if len(parts) != 2 {
			return fmt.Errorf("%w: %s", ErrUnknownAction, action)
		}
		slot := f.slot(parts[1])
		if slot == nil {
			return fmt.Errorf("%w: %s", ErrUnknownField, parts[1])
		}
		slot.Clear()
		f.cleared[parts[1]] = true
		return nil
	case "remove-image":
		if len(parts) != 3 {
			return fmt.Errorf("%w: %s", ErrUnknownAction, action)
		}
		g := f.gallery(parts[1])
		if g == nil {
			return fmt.Errorf("%w: %s", ErrUnknownField, parts[1])
		}
		n, err := strconv.Atoi(parts[2])
		if err != nil {
			return fmt.Errorf("%w: %s", ErrUnknownAction, action)
		}
		return g.Remove(n)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
}

func (f *form[R, D]) binding(d *D, name string) arrayBinding {
	if f.mod.decl.arrays == nil {
		return nil
	}
	for _, b := range f.mod.decl.arrays(d) {
		if b.name() == name {
			return b
		}
	}
	return nil
}

// seedImage presets an image slot with a stored URL, as loading a record
// does for an edit form.
func (f *form[R, D]) seedImage(field, url string) bool {
	slot := f.slot(field)
	if slot == nil {
		return false
	}
	slot.Seed(url)
	return true
}

func (f *form[R, D]) slot(field string) *uploads.Slot {
	for _, s := range f.slots {
		if s.Field() == field {
			return s
		}
	}
	return nil
}

func (f *form[R, D]) gallery(field string) *uploads.Gallery {
	for _, g := range f.galleries {
		if g.Field() == field {
			return g
		}
	}
	return nil
}

// Validate runs the draft rules, then checks required uploads and values
// that failed to decode.
func (f *form[R, D]) Validate() error {
	err := f.ctrl.Validate()
	if err != nil && len(f.ctrl.Errors()) == 0 {
		return err
	}
	extra := maps.Clone(f.bindErrors)
	for _, slot := range f.slots {
		if _, resolveErr := slot.Resolve(); errors.Is(resolveErr, uploads.ErrFileRequired) {
			if _, ok := extra[slot.Field()]; !ok {
				extra[slot.Field()] = msgImageRequired
			}
		}
	}
	f.ctrl.SetFieldErrors(extra)
	if all := f.ctrl.Errors(); len(all) > 0 {
		return forms.ValidationError(msgInvalidForm, all)
	}
	return nil
}

// Submit validates the form, then sends the parent record and every child
// mutation as one plan.
func (f *form[R, D]) Submit(ctx context.Context, orch *submission.Orchestrator, redirect string) (submission.Report, error) {
	if err := f.Validate(); err != nil {
		return submission.Report{}, err
	}
	var (
		report submission.Report
		saved  *R
	)
	err := f.ctrl.Submit(ctx, func(ctx context.Context, d D) error {
		plan, err := f.plan(d, &saved)
		if err != nil {
			return err
		}
		report = orch.Execute(ctx, plan.WithToken(f.token).WithRedirect(redirect))
		return report.Err
	})
	if err != nil {
		return report, err
	}
	f.token = uuid.NewString()
	if saved != nil {
		f.commit(*saved)
	}
	return report, nil
}

func (f *form[R, D]) plan(d D, saved **R) (*submission.Plan, error) {
	def := f.mod.decl.def
	data := f.mod.decl.payload(d)
	var files []apiclient.FilePart
	for _, slot := range f.slots {
		sel, err := slot.Resolve()
		if err != nil {
			return nil, err
		}
		if sel.Empty() && f.cleared[slot.Field()] {
			data[slot.Field()] = ""
		}
		files = append(files, sel.Apply(data)...)
	}
	for _, g := range f.galleries {
		files = append(files, g.Apply(data)...)
	}

	var bindings []arrayBinding
	if f.mod.decl.arrays != nil {
		bindings = f.mod.decl.arrays(&d)
	}
	payload := apiclient.Payload{Data: data, Files: files}
	api := f.mod.api
	plan := submission.NewPlan(def.Key)

	if !f.Editing() {
		for _, b := range bindings {
			b.embed(data)
		}
		plan.Create(def.Key, func(ctx context.Context, key string) error {
			rec, err := api.Create(ctx, payload, key)
			*saved = rec
			return err
		})
		return plan.WithSuccessMessage(def.Singular + " created successfully"), nil
	}

	for _, b := range bindings {
		b.schedule(plan, f.id)
	}
	plan.Add(submission.Call{
		Kind:        submission.KindParent,
		Resource:    def.Key,
		ID:          f.id,
		Fingerprint: submission.Fingerprint(payload),
		Run: func(ctx context.Context, key string) error {
			var (
				rec *R
				err error
			)
			if def.Replace {
				rec, err = api.Replace(ctx, f.id, payload, key)
			} else {
				rec, err = api.Update(ctx, f.id, payload, key)
			}
			*saved = rec
			return err
		},
	})
	return plan.WithSuccessMessage(def.Singular + " updated successfully"), nil
}

// commit swaps local previews for the URLs the backend stored.
func (f *form[R, D]) commit(rec R) {
	if f.id == "" {
		f.id = f.mod.decl.id(rec)
	}
	if f.mod.decl.media == nil {
		return
	}
	media := f.mod.decl.media(rec)
	for _, slot := range f.slots {
		if urls := media[slot.Field()]; len(urls) > 0 {
			slot.Commit(urls[0])
		}
		delete(f.cleared, slot.Field())
	}
	for _, g := range f.galleries {
		if urls, ok := media[g.Field()]; ok {
			g.Commit(urls)
		}
	}
}

func (f *form[R, D]) View() FormView {
	errs := f.ctrl.Errors()
	d := f.ctrl.Values()
	view := FormView{
		Resource: f.mod.decl.def,
		ID:       f.id,
		Token:    f.token,
		Editing:  f.Editing(),
		Errors:   errs,
	}
	for _, field := range f.mod.decl.fields(d) {
		if field.Error == "" {
			field.Error = errs[field.Name]
		}
		view.Fields = append(view.Fields, field)
	}
	for _, slot := range f.slots {
		view.Fields = append(view.Fields, Field{
			Name:     slot.Field(),
			Label:    f.labels[slot.Field()],
			Kind:     KindImage,
			Required: slot.IsRequired(),
			Preview:  slot.Preview(),
			Cleared:  f.cleared[slot.Field()],
			Error:    errs[slot.Field()],
		})
	}
	for _, g := range f.galleries {
		view.Fields = append(view.Fields, Field{
			Name:     g.Field(),
			Label:    f.labels[g.Field()],
			Kind:     KindGallery,
			Previews: g.Previews(),
			Error:    errs[g.Field()],
		})
	}
	if f.mod.decl.arrays != nil {
		for _, b := range f.mod.decl.arrays(&d) {
			view.Arrays = append(view.Arrays, b.view(errs))
		}
	}
	if len(errs) > 0 {
		view.Message = msgInvalidForm
	}
	return view
}
