package markdown

import (
	"bytes"
	"fmt"
	"maps"
	"time"

	"github.com/adrg/frontmatter"
)

// FrontMatter is the metadata block of an importable document.
type FrontMatter struct {
	Title    string
	SubTitle string
	Slug     string
	Author   string
	Tags     []string
	Banner   string
	Date     time.Time
	Visible  *bool
	Custom   map[string]any
}

// Document is a parsed markdown file.
type Document struct {
	Path        string
	FrontMatter FrontMatter
	Body        []byte
}

type frontMatterEnvelope struct {
	Title    string         `yaml:"title"`
	SubTitle string         `yaml:"subTitle"`
	Slug     string         `yaml:"slug"`
	Author   string         `yaml:"author"`
	Tags     []string       `yaml:"tags"`
	Banner   string         `yaml:"banner"`
	Date     time.Time      `yaml:"date"`
	Visible  *bool          `yaml:"visible"`
	Custom   map[string]any `yaml:",inline"`
}

// ParseFrontMatter splits source into its YAML/TOML front matter and the
// markdown body.
func ParseFrontMatter(source []byte) (FrontMatter, []byte, error) {
	var meta frontMatterEnvelope
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	custom := maps.Clone(meta.Custom)
	if custom == nil {
		custom = map[string]any{}
	}
	return FrontMatter{
		Title:    meta.Title,
		SubTitle: meta.SubTitle,
		Slug:     meta.Slug,
		Author:   meta.Author,
		Tags:     append([]string(nil), meta.Tags...),
		Banner:   meta.Banner,
		Date:     meta.Date,
		Visible:  meta.Visible,
		Custom:   custom,
	}, bytes.TrimSpace(body), nil
}

// ParseDocument reads a document from raw bytes.
func ParseDocument(path string, source []byte) (*Document, error) {
	fm, body, err := ParseFrontMatter(source)
	if err != nil {
		return nil, err
	}
	return &Document{Path: path, FrontMatter: fm, Body: body}, nil
}
