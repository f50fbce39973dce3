package resources

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/goliatone/go-cms-admin/internal/apiclient"
	"github.com/goliatone/go-cms-admin/internal/forms"
)

// HeroSection is the singleton at the top of the home page.
type HeroSection struct {
	ID          string       `json:"_id"`
	Title       string       `json:"title"`
	SubTitle    string       `json:"subTitle,omitempty"`
	Description string       `json:"description,omitempty"`
	Image       string       `json:"image,omitempty"`
	Buttons     []HeroButton `json:"buttons,omitempty"`
}

type HeroDraft struct {
	Title          string       `json:"title" schema:"title"`
	SubTitle       string       `json:"subTitle" schema:"subTitle"`
	Description    string       `json:"description" schema:"description"`
	Buttons        []HeroButton `json:"buttons" schema:"buttons"`
	ButtonsDeleted []string     `json:"-" schema:"buttons_deleted"`
}

func (d HeroDraft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title, forms.Text(3, 120)...),
		validation.Field(&d.SubTitle, forms.OptionalText(240)...),
		validation.Field(&d.Buttons, validation.Required, validation.Length(1, 4)),
	)
}

func heroSection(client *apiclient.Client, deps Deps) Module {
	buttons := apiclient.NewResource[HeroButton](client, "/hero-section-buttons", apiclient.WithRelatedTags("hero-section"))
	return newModule(client, deps, decl[HeroSection, HeroDraft]{
		def: Definition{
			Key:       "hero-section",
			Label:     "Hero section",
			Singular:  "Hero section",
			Endpoint:  "/hero-section",
			Singleton: true,
			Encoding:  apiclient.EncodingMultipart,
		},
		id:    func(h HeroSection) string { return h.ID },
		title: func(h HeroSection) string { return h.Title },
		row:   func(HeroSection) Row { return Row{} },
		details: func(h HeroSection, render renderFunc) []Entry {
			links := make([]string, 0, len(h.Buttons))
			for _, b := range h.Buttons {
				links = append(links, b.Title+" → "+b.Link)
			}
			return []Entry{
				imageEntry("Image", h.Image),
				textEntry("Subtitle", h.SubTitle),
				{Label: "Description", HTML: render(h.Description)},
				listEntry("Buttons", links...),
			}
		},
		blank: func() HeroDraft { return HeroDraft{} },
		draft: func(h HeroSection) HeroDraft {
			return HeroDraft{Title: h.Title, SubTitle: h.SubTitle, Description: h.Description, Buttons: h.Buttons}
		},
		fields: func(d HeroDraft) []Field {
			return []Field{
				input(KindText, "title", "Title", d.Title).required(),
				input(KindText, "subTitle", "Subtitle", d.SubTitle),
				input(KindTextarea, "description", "Description", d.Description),
			}
		},
		payload: func(d HeroDraft) map[string]any {
			return map[string]any{
				"title":       strings.TrimSpace(d.Title),
				"subTitle":    strings.TrimSpace(d.SubTitle),
				"description": d.Description,
			}
		},
		uploads: []UploadSpec{{Field: "image", Label: "Background image"}},
		media:   func(h HeroSection) map[string][]string { return media("image", h.Image) },
		arrays: func(d *HeroDraft) []arrayBinding {
			return []arrayBinding{&childArray[HeroButton]{
				field: "buttons",
				label: "Buttons",
				columns: []Column{
					{Name: "title", Label: "Title", Kind: KindText},
					{Name: "link", Label: "Link", Kind: KindURL},
				},
				items:       &d.Buttons,
				deleted:     &d.ButtonsDeleted,
				minItems:    1,
				resource:    buttons,
				parentField: "heroSectionId",
			}}
		},
	})
}

// AboutHero is the heading block of the about page.
type AboutHero struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	SubTitle    string `json:"subTitle,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

type AboutHeroDraft struct {
	Title       string `json:"title" schema:"title"`
	SubTitle    string `json:"subTitle" schema:"subTitle"`
	Description string `json:"description" schema:"description"`
}

func (d AboutHeroDraft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title, forms.Text(3, 120)...),
		validation.Field(&d.SubTitle, forms.OptionalText(240)...),
		validation.Field(&d.Description, validation.Required),
	)
}

func aboutHero(client *apiclient.Client, deps Deps) Module {
	return newModule(client, deps, decl[AboutHero, AboutHeroDraft]{
		def: Definition{
			Key:       "about-hero",
			Label:     "About hero",
			Singular:  "About section",
			Endpoint:  "/about-hero-section",
			Singleton: true,
			Replace:   true,
			Encoding:  apiclient.EncodingMultipart,
		},
		id:    func(a AboutHero) string { return a.ID },
		title: func(a AboutHero) string { return a.Title },
		row:   func(AboutHero) Row { return Row{} },
		details: func(a AboutHero, render renderFunc) []Entry {
			return []Entry{
				imageEntry("Image", a.Image),
				textEntry("Subtitle", a.SubTitle),
				{Label: "Description", HTML: render(a.Description)},
			}
		},
		blank: func() AboutHeroDraft { return AboutHeroDraft{} },
		draft: func(a AboutHero) AboutHeroDraft {
			return AboutHeroDraft{Title: a.Title, SubTitle: a.SubTitle, Description: a.Description}
		},
		fields: func(d AboutHeroDraft) []Field {
			return []Field{
				input(KindText, "title", "Title", d.Title).required(),
				input(KindText, "subTitle", "Subtitle", d.SubTitle),
				input(KindMarkdown, "description", "Description", d.Description).required(),
			}
		},
		payload: func(d AboutHeroDraft) map[string]any {
			return map[string]any{
				"title":       strings.TrimSpace(d.Title),
				"subTitle":    strings.TrimSpace(d.SubTitle),
				"description": d.Description,
			}
		},
		uploads: []UploadSpec{{Field: "image", Label: "Image", Required: true}},
		media:   func(a AboutHero) map[string][]string { return media("image", a.Image) },
	})
}

// Footer holds the contact details and social links of the site footer.
type Footer struct {
	ID          string `json:"_id"`
	Description string `json:"description,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
	Facebook    string `json:"facebook,omitempty"`
	Instagram   string `json:"instagram,omitempty"`
	Youtube     string `json:"youtube,omitempty"`
	Copyright   string `json:"copyright,omitempty"`
}

type FooterDraft struct {
	Description string `json:"description" schema:"description"`
	Email       string `json:"email" schema:"email"`
	Phone       string `json:"phone" schema:"phone"`
	Address     string `json:"address" schema:"address"`
	Facebook    string `json:"facebook" schema:"facebook"`
	Instagram   string `json:"instagram" schema:"instagram"`
	Youtube     string `json:"youtube" schema:"youtube"`
	Copyright   string `json:"copyright" schema:"copyright"`
}

func (d FooterDraft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Description, forms.OptionalText(500)...),
		validation.Field(&d.Email, validation.Required, is.EmailFormat),
		validation.Field(&d.Phone, forms.OptionalText(40)...),
		validation.Field(&d.Facebook, is.URL),
		validation.Field(&d.Instagram, is.URL),
		validation.Field(&d.Youtube, is.URL),
	)
}

func footer(client *apiclient.Client, deps Deps) Module {
	return newModule(client, deps, decl[Footer, FooterDraft]{
		def: Definition{
			Key:       "footer",
			Label:     "Footer",
			Singular:  "Footer",
			Endpoint:  "/footer",
			Singleton: true,
			Replace:   true,
			Encoding:  apiclient.EncodingJSON,
		},
		id:    func(f Footer) string { return f.ID },
		title: func(Footer) string { return "Footer" },
		row:   func(Footer) Row { return Row{} },
		details: func(f Footer, _ renderFunc) []Entry {
			return []Entry{
				textEntry("Description", f.Description),
				textEntry("Email", f.Email),
				textEntry("Phone", f.Phone),
				textEntry("Address", f.Address),
				listEntry("Social", nonEmpty(f.Facebook, f.Instagram, f.Youtube)...),
				textEntry("Copyright", f.Copyright),
			}
		},
		blank: func() FooterDraft { return FooterDraft{} },
		draft: func(f Footer) FooterDraft {
			return FooterDraft{
				Description: f.Description,
				Email:       f.Email,
				Phone:       f.Phone,
				Address:     f.Address,
				Facebook:    f.Facebook,
				Instagram:   f.Instagram,
				Youtube:     f.Youtube,
				Copyright:   f.Copyright,
			}
		},
		fields: func(d FooterDraft) []Field {
			return []Field{
				input(KindTextarea, "description", "Description", d.Description),
				input(KindEmail, "email", "Email", d.Email).required(),
				input(KindText, "phone", "Phone", d.Phone),
				input(KindText, "address", "Address", d.Address),
				input(KindURL, "facebook", "Facebook", d.Facebook),
				input(KindURL, "instagram", "Instagram", d.Instagram),
				input(KindURL, "youtube", "YouTube", d.Youtube),
				input(KindText, "copyright", "Copyright", d.Copyright),
			}
		},
		payload: func(d FooterDraft) map[string]any {
			return map[string]any{
				"description": strings.TrimSpace(d.Description),
				"email":       strings.TrimSpace(d.Email),
				"phone":       strings.TrimSpace(d.Phone),
				"address":     strings.TrimSpace(d.Address),
				"facebook":    strings.TrimSpace(d.Facebook),
				"instagram":   strings.TrimSpace(d.Instagram),
				"youtube":     strings.TrimSpace(d.Youtube),
				"copyright":   strings.TrimSpace(d.Copyright),
			}
		},
	})
}

// Homepage is the introduction block of the home page.
type Homepage struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	SubTitle    string `json:"subTitle,omitempty"`
	Description string `json:"description,omitempty"`
	VideoLink   string `json:"videoLink,omitempty"`
	Image       string `json:"image,omitempty"`
}

type HomepageDraft struct {
	Title       string `json:"title" schema:"title"`
	SubTitle    string `json:"subTitle" schema:"subTitle"`
	Description string `json:"description" schema:"description"`
	VideoLink   string `json:"videoLink" schema:"videoLink"`
}

func (d HomepageDraft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title, forms.Text(3, 120)...),
		validation.Field(&d.SubTitle, forms.OptionalText(240)...),
		validation.Field(&d.VideoLink, is.URL),
	)
}

func homepage(client *apiclient.Client, deps Deps) Module {
	return newModule(client, deps, decl[Homepage, HomepageDraft]{
		def: Definition{
			Key:       "homepage",
			Label:     "Homepage",
			Singular:  "Homepage",
			Endpoint:  "/homepage",
			Singleton: true,
			Replace:   true,
			Encoding:  apiclient.EncodingMultipart,
		},
		id:    func(h Homepage) string { return h.ID },
		title: func(h Homepage) string { return h.Title },
		row:   func(Homepage) Row { return Row{} },
		details: func(h Homepage, render renderFunc) []Entry {
			return []Entry{
				imageEntry("Image", h.Image),
				textEntry("Subtitle", h.SubTitle),
				{Label: "Description", HTML: render(h.Description)},
				textEntry("Video", h.VideoLink),
			}
		},
		blank: func() HomepageDraft { return HomepageDraft{} },
		draft: func(h Homepage) HomepageDraft {
			return HomepageDraft{Title: h.Title, SubTitle: h.SubTitle, Description: h.Description, VideoLink: h.VideoLink}
		},
		fields: func(d HomepageDraft) []Field {
			return []Field{
				input(KindText, "title", "Title", d.Title).required(),
				input(KindText, "subTitle", "Subtitle", d.SubTitle),
				input(KindMarkdown, "description", "Description", d.Description),
				input(KindURL, "videoLink", "Video link", d.VideoLink),
			}
		},
		payload: func(d HomepageDraft) map[string]any {
			return map[string]any{
				"title":       strings.TrimSpace(d.Title),
				"subTitle":    strings.TrimSpace(d.SubTitle),
				"description": d.Description,
				"videoLink":   strings.TrimSpace(d.VideoLink),
			}
		},
		uploads: []UploadSpec{{Field: "image", Label: "Image"}},
		media:   func(h Homepage) map[string][]string { return media("image", h.Image) },
	})
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
