package resources

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-cms-admin/internal/apiclient"
	"github.com/goliatone/go-cms-admin/internal/forms"
)

// Blog is a blog post as stored by the backend.
type Blog struct {
	ID          string   `json:"_id"`
	Title       string   `json:"title"`
	SubTitle    string   `json:"subTitle,omitempty"`
	Slug        string   `json:"slug,omitempty"`
	Author      string   `json:"author,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Description string   `json:"description"`
	Banner      string   `json:"banner,omitempty"`
	IsVisible   *bool    `json:"isVisible,omitempty"`
	CreatedAt   string   `json:"createdAt,omitempty"`
	UpdatedAt   string   `json:"updatedAt,omitempty"`
}

// BlogDraft is the editable state of the blog form.
type BlogDraft struct {
	Title       string `json:"title" schema:"title"`
	SubTitle    string `json:"subTitle" schema:"subTitle"`
	Slug        string `json:"slug" schema:"slug"`
	Author      string `json:"author" schema:"author"`
	Tags        string `json:"tags" schema:"tags"`
	Description string `json:"description" schema:"description"`
	Visible     bool   `json:"isVisible" schema:"isVisible"`
}

func (d BlogDraft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title, forms.Text(3, 160)...),
		validation.Field(&d.SubTitle, forms.OptionalText(240)...),
		validation.Field(&d.Slug, Slug),
		validation.Field(&d.Author, forms.OptionalText(80)...),
		validation.Field(&d.Description, validation.Required),
	)
}

func blogs(client *apiclient.Client, deps Deps) Module {
	return newModule(client, deps, decl[Blog, BlogDraft]{
		def: Definition{
			Key:        "blogs",
			Label:      "Blogs",
			Singular:   "Blog",
			Endpoint:   "/blogs",
			SoftDelete: true,
			Visibility: true,
			Encoding:   apiclient.EncodingMultipart,
			Columns: []Column{
				{Name: "author", Label: "Author"},
				{Name: "tags", Label: "Tags"},
				{Name: "createdAt", Label: "Published"},
			},
		},
		id:      func(b Blog) string { return b.ID },
		title:   func(b Blog) string { return b.Title },
		visible: func(b Blog) *bool { return b.IsVisible },
		row: func(b Blog) Row {
			return Row{Image: b.Banner, Cells: []string{b.Author, strings.Join(b.Tags, ", "), formatDate(b.CreatedAt)}}
		},
		details: func(b Blog, render renderFunc) []Entry {
			return []Entry{
				imageEntry("Banner", b.Banner),
				textEntry("Subtitle", b.SubTitle),
				textEntry("Slug", b.Slug),
				textEntry("Author", b.Author),
				listEntry("Tags", b.Tags...),
				{Label: "Description", HTML: render(b.Description)},
				textEntry("Published", formatDate(b.CreatedAt)),
			}
		},
		blank: func() BlogDraft { return BlogDraft{Visible: true} },
		draft: func(b Blog) BlogDraft {
			return BlogDraft{
				Title:       b.Title,
				SubTitle:    b.SubTitle,
				Slug:        b.Slug,
				Author:      b.Author,
				Tags:        strings.Join(b.Tags, ", "),
				Description: b.Description,
				Visible:     visibleOf(b.IsVisible),
			}
		},
		fields: func(d BlogDraft) []Field {
			return []Field{
				input(KindText, "title", "Title", d.Title).required(),
				input(KindText, "subTitle", "Subtitle", d.SubTitle),
				input(KindText, "slug", "Slug", d.Slug).help("Derived from the title when left blank"),
				input(KindText, "author", "Author", d.Author),
				input(KindTags, "tags", "Tags", d.Tags).help("Comma separated"),
				input(KindMarkdown, "description", "Description", d.Description).required(),
				checkbox("isVisible", "Visible", d.Visible),
			}
		},
		payload: func(d BlogDraft) map[string]any {
			return map[string]any{
				"title":       strings.TrimSpace(d.Title),
				"subTitle":    strings.TrimSpace(d.SubTitle),
				"slug":        slugOf(d.Slug, d.Title),
				"author":      strings.TrimSpace(d.Author),
				"tags":        splitTags(d.Tags),
				"description": d.Description,
				"isVisible":   d.Visible,
			}
		},
		uploads: []UploadSpec{{Field: "banner", Label: "Banner", RequiredOnCreate: true}},
		media:   func(b Blog) map[string][]string { return media("banner", b.Banner) },
	})
}
