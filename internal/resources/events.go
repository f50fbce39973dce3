package resources

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-cms-admin/internal/apiclient"
	"github.com/goliatone/go-cms-admin/internal/forms"
)

// Event is a scheduled class, seminar or competition.
type Event struct {
	ID          string   `json:"_id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
	Date        string   `json:"date,omitempty"`
	Time        string   `json:"time,omitempty"`
	Banner      string   `json:"banner,omitempty"`
	Images      []string `json:"images,omitempty"`
}

type EventDraft struct {
	Title       string `json:"title" schema:"title"`
	Description string `json:"description" schema:"description"`
	Location    string `json:"location" schema:"location"`
	Date        string `json:"date" schema:"date"`
	Time        string `json:"time" schema:"time"`
}

func (d EventDraft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title, forms.Text(3, 160)...),
		validation.Field(&d.Location, forms.OptionalText(160)...),
		validation.Field(&d.Date, validation.Required, validation.Date("2006-01-02")),
		validation.Field(&d.Time, validation.Date("15:04")),
	)
}

func events(client *apiclient.Client, deps Deps) Module {
	return newModule(client, deps, decl[Event, EventDraft]{
		def: Definition{
			Key:      "events",
			Label:    "Events",
			Singular: "Event",
			Endpoint: "/events",
			Encoding: apiclient.EncodingMultipart,
			Columns: []Column{
				{Name: "date", Label: "Date", Kind: KindDate},
				{Name: "location", Label: "Location"},
			},
		},
		id:    func(e Event) string { return e.ID },
		title: func(e Event) string { return e.Title },
		row: func(e Event) Row {
			return Row{Image: e.Banner, Cells: []string{formatDate(e.Date), e.Location}}
		},
		details: func(e Event, render renderFunc) []Entry {
			return []Entry{
				imageEntry("Banner", e.Banner),
				textEntry("Date", strings.TrimSpace(formatDate(e.Date)+" "+e.Time)),
				textEntry("Location", e.Location),
				{Label: "Description", HTML: render(e.Description)},
				{Label: "Gallery", Images: e.Images},
			}
		},
		blank: func() EventDraft { return EventDraft{} },
		draft: func(e Event) EventDraft {
			return EventDraft{
				Title:       e.Title,
				Description: e.Description,
				Location:    e.Location,
				Date:        dateOnly(e.Date),
				Time:        e.Time,
			}
		},
		fields: func(d EventDraft) []Field {
			return []Field{
				input(KindText, "title", "Title", d.Title).required(),
				input(KindDate, "date", "Date", d.Date).required(),
				input(KindTime, "time", "Time", d.Time),
				input(KindText, "location", "Location", d.Location),
				input(KindMarkdown, "description", "Description", d.Description),
			}
		},
		payload: func(d EventDraft) map[string]any {
			return map[string]any{
				"title":       strings.TrimSpace(d.Title),
				"description": d.Description,
				"location":    strings.TrimSpace(d.Location),
				"date":        d.Date,
				"time":        d.Time,
			}
		},
		uploads: []UploadSpec{
			{Field: "banner", Label: "Banner", RequiredOnCreate: true},
			{Field: "images", Label: "Gallery", Gallery: true, MaxItems: 12},
		},
		media: func(e Event) map[string][]string {
			out := media("banner", e.Banner)
			out["images"] = e.Images
			return out
		},
	})
}

// dateOnly trims a timestamp to the value a date input accepts.
func dateOnly(value string) string {
	if len(value) > len("2006-01-02") && value[4] == '-' {
		return value[:len("2006-01-02")]
	}
	return value
}
