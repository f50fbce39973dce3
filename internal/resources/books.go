package resources

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-cms-admin/internal/apiclient"
	"github.com/goliatone/go-cms-admin/internal/forms"
)

// Book is a book listed in the shop.
type Book struct {
	ID          string  `json:"_id"`
	Title       string  `json:"title"`
	Author      string  `json:"author,omitempty"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Link        string  `json:"link,omitempty"`
	Image       string  `json:"image,omitempty"`
}

// BookDraft is the editable state of the book form. Price is kept as typed.
type BookDraft struct {
	Title       string `json:"title" schema:"title"`
	Author      string `json:"author" schema:"author"`
	Description string `json:"description" schema:"description"`
	Price       string `json:"price" schema:"price"`
	Link        string `json:"link" schema:"link"`
}

func (d BookDraft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title, forms.Text(2, 160)...),
		validation.Field(&d.Author, forms.OptionalText(120)...),
		validation.Field(&d.Price, validation.Required, forms.NumericString, forms.NonNegative),
		validation.Field(&d.Link, forms.Link),
	)
}

func books(client *apiclient.Client, deps Deps) Module {
	return newModule(client, deps, decl[Book, BookDraft]{
		def: Definition{
			Key:      "books",
			Label:    "Books",
			Singular: "Book",
			Endpoint: "/books",
			Encoding: apiclient.EncodingMultipart,
			Columns: []Column{
				{Name: "author", Label: "Author"},
				{Name: "price", Label: "Price", Kind: KindNumber},
			},
		},
		id:    func(b Book) string { return b.ID },
		title: func(b Book) string { return b.Title },
		row: func(b Book) Row {
			return Row{Image: b.Image, Cells: []string{b.Author, formatNumber(b.Price)}}
		},
		details: func(b Book, render renderFunc) []Entry {
			return []Entry{
				imageEntry("Cover", b.Image),
				textEntry("Author", b.Author),
				textEntry("Price", formatNumber(b.Price)),
				textEntry("Link", b.Link),
				{Label: "Description", HTML: render(b.Description)},
			}
		},
		blank: func() BookDraft { return BookDraft{} },
		draft: func(b Book) BookDraft {
			return BookDraft{
				Title:       b.Title,
				Author:      b.Author,
				Description: b.Description,
				Price:       formatNumber(b.Price),
				Link:        b.Link,
			}
		},
		fields: func(d BookDraft) []Field {
			return []Field{
				input(KindText, "title", "Title", d.Title).required(),
				input(KindText, "author", "Author", d.Author),
				input(KindNumber, "price", "Price", d.Price).required(),
				input(KindURL, "link", "Purchase link", d.Link),
				input(KindMarkdown, "description", "Description", d.Description),
			}
		},
		payload: func(d BookDraft) map[string]any {
			return map[string]any{
				"title":       strings.TrimSpace(d.Title),
				"author":      strings.TrimSpace(d.Author),
				"description": d.Description,
				"price":       forms.Number(d.Price),
				"link":        strings.TrimSpace(d.Link),
			}
		},
		uploads: []UploadSpec{{Field: "image", Label: "Cover"}},
		media:   func(b Book) map[string][]string { return media("image", b.Image) },
	})
}
