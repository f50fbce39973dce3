package resources

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-cms-admin/internal/apiclient"
	"github.com/goliatone/go-cms-admin/internal/forms"
)

// Service is a composite record: a service with its included services and
// the options of what the client gets.
type Service struct {
	ID                 string     `json:"_id"`
	Title              string     `json:"title"`
	SubTitle           string     `json:"subTitle,omitempty"`
	Slug               string     `json:"slug,omitempty"`
	Description        string     `json:"description,omitempty"`
	Price              float64    `json:"price"`
	Image              string     `json:"image,omitempty"`
	IncludedServices   []ListItem `json:"includedServices,omitempty"`
	WhatYourClientGets ClientGets `json:"whatYourClientGets"`
}

// ClientGets is the titled option list of a service.
type ClientGets struct {
	Title   string     `json:"title"`
	Options []ListItem `json:"options,omitempty"`
}

type ServiceDraft struct {
	Title           string     `json:"title" schema:"title"`
	SubTitle        string     `json:"subTitle" schema:"subTitle"`
	Slug            string     `json:"slug" schema:"slug"`
	Description     string     `json:"description" schema:"description"`
	Price           string     `json:"price" schema:"price"`
	Included        []ListItem `json:"includedServices" schema:"includedServices"`
	IncludedDeleted []string   `json:"-" schema:"includedServices_deleted"`
	GetsTitle       string     `json:"clientGetsTitle" schema:"clientGetsTitle"`
	Options         []ListItem `json:"clientGetsOptions" schema:"clientGetsOptions"`
	OptionsDeleted  []string   `json:"-" schema:"clientGetsOptions_deleted"`
}

func (d ServiceDraft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title, forms.Text(2, 160)...),
		validation.Field(&d.SubTitle, forms.OptionalText(240)...),
		validation.Field(&d.Slug, Slug),
		validation.Field(&d.Price, validation.Required, forms.NumericString, forms.NonNegative),
		validation.Field(&d.Included, validation.Required),
		validation.Field(&d.GetsTitle, forms.OptionalText(160)...),
		validation.Field(&d.Options),
	)
}

func services(client *apiclient.Client, deps Deps) Module {
	included := apiclient.NewResource[ListItem](client, "/included-services", apiclient.WithRelatedTags("services"))
	options := apiclient.NewResource[ListItem](client, "/client-gets-options", apiclient.WithRelatedTags("services"))
	titles := func(items []ListItem) []string {
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, item.Title)
		}
		return out
	}
	return newModule(client, deps, decl[Service, ServiceDraft]{
		def: Definition{
			Key:      "services",
			Label:    "Services",
			Singular: "Service",
			Endpoint: "/services",
			Encoding: apiclient.EncodingMultipart,
			Columns: []Column{
				{Name: "subTitle", Label: "Subtitle"},
				{Name: "price", Label: "Price", Kind: KindNumber},
			},
		},
		id:    func(s Service) string { return s.ID },
		title: func(s Service) string { return s.Title },
		row: func(s Service) Row {
			return Row{Image: s.Image, Cells: []string{s.SubTitle, formatNumber(s.Price)}}
		},
		details: func(s Service, render renderFunc) []Entry {
			return []Entry{
				imageEntry("Image", s.Image),
				textEntry("Subtitle", s.SubTitle),
				textEntry("Slug", s.Slug),
				textEntry("Price", formatNumber(s.Price)),
				{Label: "Description", HTML: render(s.Description)},
				listEntry("Included services", titles(s.IncludedServices)...),
				listEntry(s.WhatYourClientGets.Title, titles(s.WhatYourClientGets.Options)...),
			}
		},
		blank: func() ServiceDraft { return ServiceDraft{Included: []ListItem{{}}} },
		draft: func(s Service) ServiceDraft {
			return ServiceDraft{
				Title:       s.Title,
				SubTitle:    s.SubTitle,
				Slug:        s.Slug,
				Description: s.Description,
				Price:       formatNumber(s.Price),
				Included:    s.IncludedServices,
				GetsTitle:   s.WhatYourClientGets.Title,
				Options:     s.WhatYourClientGets.Options,
			}
		},
		fields: func(d ServiceDraft) []Field {
			return []Field{
				input(KindText, "title", "Title", d.Title).required(),
				input(KindText, "subTitle", "Subtitle", d.SubTitle),
				input(KindText, "slug", "Slug", d.Slug).help("Derived from the title when left blank"),
				input(KindNumber, "price", "Price", d.Price).required(),
				input(KindMarkdown, "description", "Description", d.Description),
				input(KindText, "clientGetsTitle", "What your client gets", d.GetsTitle),
			}
		},
		payload: func(d ServiceDraft) map[string]any {
			return map[string]any{
				"title":       strings.TrimSpace(d.Title),
				"subTitle":    strings.TrimSpace(d.SubTitle),
				"slug":        slugOf(d.Slug, d.Title),
				"description": d.Description,
				"price":       forms.Number(d.Price),
				"whatYourClientGets": map[string]any{
					"title": strings.TrimSpace(d.GetsTitle),
				},
			}
		},
		uploads: []UploadSpec{{Field: "image", Label: "Image"}},
		media:   func(s Service) map[string][]string { return media("image", s.Image) },
		arrays: func(d *ServiceDraft) []arrayBinding {
			columns := []Column{
				{Name: "title", Label: "Title", Kind: KindText},
				{Name: "subTitle", Label: "Subtitle", Kind: KindText},
			}
			return []arrayBinding{
				&childArray[ListItem]{
					field:       "includedServices",
					label:       "Included services",
					columns:     columns,
					items:       &d.Included,
					deleted:     &d.IncludedDeleted,
					minItems:    1,
					resource:    included,
					parentField: "serviceId",
				},
				&childArray[ListItem]{
					field:       "clientGetsOptions",
					label:       "Options",
					columns:     columns,
					items:       &d.Options,
					deleted:     &d.OptionsDeleted,
					resource:    options,
					parentField: "serviceId",
					embedPath:   []string{"whatYourClientGets", "options"},
				},
			}
		},
	})
}
