package resources

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-cms-admin/internal/apiclient"
	"github.com/goliatone/go-cms-admin/internal/forms"
)

// Associate is a coach or partner shown on the site.
type Associate struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	Role      string `json:"role,omitempty"`
	Bio       string `json:"bio,omitempty"`
	Link      string `json:"link,omitempty"`
	Photo     string `json:"photo,omitempty"`
	IsVisible *bool  `json:"isVisible,omitempty"`
}

type AssociateDraft struct {
	Name    string `json:"name" schema:"name"`
	Role    string `json:"role" schema:"role"`
	Bio     string `json:"bio" schema:"bio"`
	Link    string `json:"link" schema:"link"`
	Visible bool   `json:"isVisible" schema:"isVisible"`
}

func (d AssociateDraft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, forms.Text(2, 80)...),
		validation.Field(&d.Role, forms.OptionalText(80)...),
		validation.Field(&d.Bio, forms.OptionalText(2000)...),
		validation.Field(&d.Link, forms.Link),
	)
}

func associates(client *apiclient.Client, deps Deps) Module {
	return newModule(client, deps, decl[Associate, AssociateDraft]{
		def: Definition{
			Key:        "associates",
			Label:      "Associates",
			Singular:   "Associate",
			Endpoint:   "/associates",
			Visibility: true,
			Encoding:   apiclient.EncodingMultipart,
			Columns:    []Column{{Name: "role", Label: "Role"}},
		},
		id:      func(a Associate) string { return a.ID },
		title:   func(a Associate) string { return a.Name },
		visible: func(a Associate) *bool { return a.IsVisible },
		row: func(a Associate) Row {
			return Row{Image: a.Photo, Cells: []string{a.Role}}
		},
		details: func(a Associate, render renderFunc) []Entry {
			return []Entry{
				imageEntry("Photo", a.Photo),
				textEntry("Role", a.Role),
				textEntry("Link", a.Link),
				{Label: "Bio", HTML: render(a.Bio)},
			}
		},
		blank: func() AssociateDraft { return AssociateDraft{Visible: true} },
		draft: func(a Associate) AssociateDraft {
			return AssociateDraft{Name: a.Name, Role: a.Role, Bio: a.Bio, Link: a.Link, Visible: visibleOf(a.IsVisible)}
		},
		fields: func(d AssociateDraft) []Field {
			return []Field{
				input(KindText, "name", "Name", d.Name).required(),
				input(KindText, "role", "Role", d.Role),
				input(KindURL, "link", "Link", d.Link),
				input(KindMarkdown, "bio", "Bio", d.Bio),
				checkbox("isVisible", "Visible", d.Visible),
			}
		},
		payload: func(d AssociateDraft) map[string]any {
			return map[string]any{
				"name":      strings.TrimSpace(d.Name),
				"role":      strings.TrimSpace(d.Role),
				"bio":       d.Bio,
				"link":      strings.TrimSpace(d.Link),
				"isVisible": d.Visible,
			}
		},
		uploads: []UploadSpec{{Field: "photo", Label: "Photo"}},
		media:   func(a Associate) map[string][]string { return media("photo", a.Photo) },
	})
}
