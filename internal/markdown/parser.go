package markdown

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

// GoldmarkParser renders record descriptions for the dashboard detail pages.
// Engines are built once per option set and reused; the parser is safe for
// concurrent use.
type GoldmarkParser struct {
	defaults interfaces.ParseOptions
	policy   *bluemonday.Policy

	mu      sync.Mutex
	engines map[engineKey]goldmark.Markdown
}

var _ interfaces.MarkdownParser = (*GoldmarkParser)(nil)

type engineKey struct {
	extensions string
	hardWraps  bool
	rawHTML    bool
}

// NewGoldmarkParser returns a parser applying defaults to Parse. Sanitized
// output goes through a bluemonday UGC policy.
func NewGoldmarkParser(defaults interfaces.ParseOptions) *GoldmarkParser {
	return &GoldmarkParser{
		defaults: defaults,
		policy:   bluemonday.UGCPolicy(),
		engines:  make(map[engineKey]goldmark.Markdown),
	}
}

func (p *GoldmarkParser) Parse(markdown []byte) ([]byte, error) {
	return p.ParseWithOptions(markdown, p.defaults)
}

func (p *GoldmarkParser) ParseWithOptions(markdown []byte, opts interfaces.ParseOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := p.engine(opts).Convert(markdown, &buf); err != nil {
		return nil, fmt.Errorf("markdown: render: %w", err)
	}
	if opts.Sanitize {
		return p.policy.SanitizeBytes(buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}

func (p *GoldmarkParser) engine(opts interfaces.ParseOptions) goldmark.Markdown {
	names := extensionNames(opts.Extensions)
	key := engineKey{
		extensions: strings.Join(names, ","),
		hardWraps:  opts.HardWraps,
		// Raw HTML is kept only when the output is neither safe-mode nor
		// sanitized afterwards.
		rawHTML: !opts.SafeMode && !opts.Sanitize,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if md, ok := p.engines[key]; ok {
		return md
	}

	var rendererOpts []renderer.Option
	if key.hardWraps {
		rendererOpts = append(rendererOpts, html.WithHardWraps())
	}
	if key.rawHTML {
		rendererOpts = append(rendererOpts, html.WithUnsafe())
	}
	md := goldmark.New(
		goldmark.WithExtensions(extensions(names)...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOpts...),
	)
	p.engines[key] = md
	return md
}

var knownExtensions = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
}

var defaultExtensions = []string{"gfm", "linkify"}

// extensionNames normalises names, dropping blanks, duplicates and unknown
// extensions. No names selects the defaults.
func extensionNames(names []string) []string {
	if len(names) == 0 {
		return defaultExtensions
	}
	var out []string
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := knownExtensions[key]; !ok || slices.Contains(out, key) {
			continue
		}
		out = append(out, key)
	}
	return out
}

func extensions(names []string) []goldmark.Extender {
	out := make([]goldmark.Extender, 0, len(names))
	for _, name := range names {
		out = append(out, knownExtensions[name])
	}
	return out
}
