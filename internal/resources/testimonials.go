package resources

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-cms-admin/internal/apiclient"
	"github.com/goliatone/go-cms-admin/internal/forms"
)

// Testimonial is a client review.
type Testimonial struct {
	ID          string  `json:"_id"`
	ClientName  string  `json:"clientName"`
	ClientTitle string  `json:"clientTitle,omitempty"`
	Review      string  `json:"review"`
	Rating      float64 `json:"rating,omitempty"`
	ClientPhoto string  `json:"clientPhoto,omitempty"`
	IsVisible   *bool   `json:"isVisible,omitempty"`
}

type TestimonialDraft struct {
	ClientName  string `json:"clientName" schema:"clientName"`
	ClientTitle string `json:"clientTitle" schema:"clientTitle"`
	Review      string `json:"review" schema:"review"`
	Rating      string `json:"rating" schema:"rating"`
	Visible     bool   `json:"isVisible" schema:"isVisible"`
}

func (d TestimonialDraft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.ClientName, forms.Text(2, 80)...),
		validation.Field(&d.ClientTitle, forms.OptionalText(80)...),
		validation.Field(&d.Review, forms.Text(10, 2000)...),
		validation.Field(&d.Rating, validation.Required, forms.Rating),
	)
}

func testimonials(client *apiclient.Client, deps Deps) Module {
	return newModule(client, deps, decl[Testimonial, TestimonialDraft]{
		def: Definition{
			Key:        "testimonials",
			Label:      "Testimonials",
			Singular:   "Testimonial",
			Endpoint:   "/testimonial",
			SoftDelete: true,
			Visibility: true,
			Encoding:   apiclient.EncodingMultipart,
			Columns: []Column{
				{Name: "clientTitle", Label: "Client"},
				{Name: "rating", Label: "Rating", Kind: KindNumber},
			},
		},
		id:      func(t Testimonial) string { return t.ID },
		title:   func(t Testimonial) string { return t.ClientName },
		visible: func(t Testimonial) *bool { return t.IsVisible },
		row: func(t Testimonial) Row {
			return Row{Image: t.ClientPhoto, Cells: []string{t.ClientTitle, formatNumber(t.Rating)}}
		},
		details: func(t Testimonial, _ renderFunc) []Entry {
			return []Entry{
				imageEntry("Photo", t.ClientPhoto),
				textEntry("Title", t.ClientTitle),
				textEntry("Rating", formatNumber(t.Rating)),
				textEntry("Review", t.Review),
			}
		},
		blank: func() TestimonialDraft { return TestimonialDraft{Rating: "5", Visible: true} },
		draft: func(t Testimonial) TestimonialDraft {
			return TestimonialDraft{
				ClientName:  t.ClientName,
				ClientTitle: t.ClientTitle,
				Review:      t.Review,
				Rating:      formatNumber(t.Rating),
				Visible:     visibleOf(t.IsVisible),
			}
		},
		fields: func(d TestimonialDraft) []Field {
			return []Field{
				input(KindText, "clientName", "Client name", d.ClientName).required(),
				input(KindText, "clientTitle", "Client title", d.ClientTitle),
				input(KindTextarea, "review", "Review", d.Review).required(),
				input(KindNumber, "rating", "Rating", d.Rating).required().help("From 1 to 5"),
				checkbox("isVisible", "Visible", d.Visible),
			}
		},
		payload: func(d TestimonialDraft) map[string]any {
			return map[string]any{
				"clientName":  strings.TrimSpace(d.ClientName),
				"clientTitle": strings.TrimSpace(d.ClientTitle),
				"review":      strings.TrimSpace(d.Review),
				"rating":      forms.Number(d.Rating),
				"isVisible":   d.Visible,
			}
		},
		uploads: []UploadSpec{{Field: "clientPhoto", Label: "Client photo"}},
		media:   func(t Testimonial) map[string][]string { return media("clientPhoto", t.ClientPhoto) },
	})
}
