package resources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-cms-admin/internal/markdown"
	"github.com/goliatone/go-cms-admin/internal/submission"
)

// DocumentValues maps a markdown document onto form values. Known front
// matter keys fill the common fields, scalar custom keys are passed through
// by name and the body becomes the description.
func DocumentValues(doc *markdown.Document) url.Values {
	values := url.Values{}
	if doc == nil {
		return values
	}
	fm := doc.FrontMatter
	for key, value := range fm.Custom {
		switch v := value.(type) {
		case string:
			values.Set(key, v)
		case int, int64, float64, bool:
			values.Set(key, fmt.Sprint(v))
		}
	}
	setIf := func(key, value string) {
		if strings.TrimSpace(value) != "" {
			values.Set(key, value)
		}
	}
	setIf("title", fm.Title)
	setIf("subTitle", fm.SubTitle)
	setIf("slug", fm.Slug)
	setIf("author", fm.Author)
	setIf("tags", strings.Join(fm.Tags, ", "))
	setIf("banner"+previewSuffix, fm.Banner)
	if !fm.Date.IsZero() {
		values.Set("date", fm.Date.Format("2006-01-02"))
	}
	values.Set("isVisible", strconv.FormatBool(visibleOf(fm.Visible)))
	setIf("description", string(doc.Body))
	return values
}

type imageSeeder interface {
	seedImage(field, url string) bool
}

// Import creates a record of m from doc through the add form, so drafts are
// validated exactly as they are in the dashboard.
func Import(ctx context.Context, m Module, orch *submission.Orchestrator, doc *markdown.Document) (submission.Report, error) {
	if m.Definition().Singleton {
		return submission.Report{}, ErrNotSupported
	}
	form := m.NewForm()
	if doc != nil && strings.TrimSpace(doc.FrontMatter.Banner) != "" {
		if s, ok := form.(imageSeeder); ok {
			s.seedImage("banner", strings.TrimSpace(doc.FrontMatter.Banner))
		}
	}
	if err := form.Bind(ctx, DocumentValues(doc), nil); err != nil {
		return submission.Report{}, err
	}
	return form.Submit(ctx, orch, "")
}
