// Package demo renders the reference pages shipped next to a generated font:
// a unicode page listing every glyph with its copyable entity, a font-class
// page listing the CSS class per glyph, and the stylesheet both pages share.
package demo

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	texttemplate "text/template"

	"github.com/iancoleman/strcase"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/MichealWayne/svgs2fonts-sub000/internal/codepoint"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/logging"
)

// CSSName is the stylesheet written next to the demo pages.
const CSSName = "demo.css"

const (
	defaultUnicodeHTML   = "demo_unicode.html"
	defaultFontClassHTML = "demo_fontclass.html"
)

// Options configure a demo Generator.
type Options struct {
	// FontName is the font-family the pages reference and the base CSS
	// class applied to every icon element.
	FontName string

	// ClassPrefix prefixes per-icon class names. Empty uses FontName.
	ClassPrefix string

	// OutputDir receives the pages and stylesheet.
	OutputDir string

	// UnicodeHTML and FontClassHTML override the output file names.
	UnicodeHTML   string
	FontClassHTML string

	// Formats lists the generated font formats; the stylesheet only
	// references formats that actually exist on disk.
	Formats []string

	Logger logging.Logger
}

// Generator writes the demo artifacts for one font build.
type Generator struct {
	opts   Options
	logger logging.Logger
}

// New builds a Generator, filling unset options with defaults.
func New(opts Options) *Generator {
	if opts.ClassPrefix == "" {
		opts.ClassPrefix = opts.FontName
	}
	if opts.UnicodeHTML == "" {
		opts.UnicodeHTML = defaultUnicodeHTML
	}
	if opts.FontClassHTML == "" {
		opts.FontClassHTML = defaultFontClassHTML
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Generator{opts: opts, logger: logger.WithComponent("demo")}
}

// iconView is the per-icon template model. Entity is pre-rendered trusted
// markup; everything else goes through contextual escaping.
type iconView struct {
	Label  string
	Class  string
	Entity template.HTML
	Code   string
	CSS    string
}

type pageView struct {
	FontName  string
	BaseClass string
	CSSName   string
	Icons     []iconView
}

type stylesheetView struct {
	FontName  string
	BaseClass string
	EOTSrc    string
	SrcList   string
	Icons     []iconView
}

var labelCaser = cases.Title(language.English)

// Generate writes both HTML pages and the stylesheet for the given
// assignments. Assignments arrive sorted by name from the assigner and are
// rendered in that order.
func (g *Generator) Generate(assignments []codepoint.Assignment) error {
	icons := make([]iconView, 0, len(assignments))
	for _, a := range assignments {
		kebab := strcase.ToKebab(a.Name)
		icons = append(icons, iconView{
			Label:  labelCaser.String(strings.ReplaceAll(kebab, "-", " ")),
			Class:  g.opts.ClassPrefix + "-" + kebab,
			Entity: template.HTML(fmt.Sprintf("&#x%x;", a.Codepoint)),
			Code:   fmt.Sprintf("&#x%x;", a.Codepoint),
			CSS:    fmt.Sprintf("\\%x", a.Codepoint),
		})
	}

	page := pageView{
		FontName:  g.opts.FontName,
		BaseClass: g.opts.FontName,
		CSSName:   CSSName,
		Icons:     icons,
	}
	if err := g.writeHTML(g.opts.UnicodeHTML, unicodePageTemplate, page); err != nil {
		return err
	}
	if err := g.writeHTML(g.opts.FontClassHTML, fontClassPageTemplate, page); err != nil {
		return err
	}
	if err := g.writeStylesheet(icons); err != nil {
		return err
	}

	g.logger.Debug(context.Background(), "demo artifacts written",
		"dir", g.opts.OutputDir,
		"icons", len(icons),
		"pages", []string{g.opts.UnicodeHTML, g.opts.FontClassHTML, CSSName},
	)
	return nil
}

// Outputs returns the paths Generate writes, resolved against OutputDir.
func (g *Generator) Outputs() []string {
	return []string{
		filepath.Join(g.opts.OutputDir, g.opts.UnicodeHTML),
		filepath.Join(g.opts.OutputDir, g.opts.FontClassHTML),
		filepath.Join(g.opts.OutputDir, CSSName),
	}
}

func (g *Generator) writeHTML(name, source string, view pageView) error {
	tmpl, err := template.New(name).Parse(source)
	if err != nil {
		return fmt.Errorf("parsing %s template: %w", name, err)
	}
	var buf strings.Builder
	if err := tmpl.Execute(&buf, view); err != nil {
		return fmt.Errorf("rendering %s: %w", name, err)
	}
	path := filepath.Join(g.opts.OutputDir, name)
	if err := os.WriteFile(path, []byte(buf.String()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// writeStylesheet renders demo.css with text/template; the CSS escape
// sequences and url() lists are built here and must not be HTML-escaped.
func (g *Generator) writeStylesheet(icons []iconView) error {
	view := stylesheetView{
		FontName:  g.opts.FontName,
		BaseClass: g.opts.FontName,
		Icons:     icons,
	}
	view.EOTSrc, view.SrcList = g.fontFaceSrcs()

	tmpl, err := texttemplate.New(CSSName).Parse(stylesheetTemplate)
	if err != nil {
		return fmt.Errorf("parsing stylesheet template: %w", err)
	}
	var buf strings.Builder
	if err := tmpl.Execute(&buf, view); err != nil {
		return fmt.Errorf("rendering stylesheet: %w", err)
	}
	path := filepath.Join(g.opts.OutputDir, CSSName)
	if err := os.WriteFile(path, []byte(buf.String()), 0o644); err != nil {
		return fmt.Errorf("writing stylesheet: %w", err)
	}
	return nil
}

// fontFaceSrcs assembles the @font-face src values in compatibility order:
// a bare eot src for legacy IE first, then the iefix/woff2/woff/ttf/svg
// cascade restricted to the formats that were generated.
func (g *Generator) fontFaceSrcs() (eotSrc, srcList string) {
	have := make(map[string]bool, len(g.opts.Formats))
	for _, f := range g.opts.Formats {
		have[f] = true
	}

	name := g.opts.FontName
	var srcs []string
	if have["eot"] {
		eotSrc = fmt.Sprintf("url('%s.eot')", name)
		srcs = append(srcs, fmt.Sprintf("url('%s.eot?#iefix') format('embedded-opentype')", name))
	}
	if have["woff2"] {
		srcs = append(srcs, fmt.Sprintf("url('%s.woff2') format('woff2')", name))
	}
	if have["woff"] {
		srcs = append(srcs, fmt.Sprintf("url('%s.woff') format('woff')", name))
	}
	if have["ttf"] {
		srcs = append(srcs, fmt.Sprintf("url('%s.ttf') format('truetype')", name))
	}
	if have["svg"] {
		srcs = append(srcs, fmt.Sprintf("url('%s.svg#%s') format('svg')", name, name))
	}
	return eotSrc, strings.Join(srcs, ",\n       ")
}
