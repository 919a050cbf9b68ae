// Package render turns page models into HTML using embedded templates.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/linkbio/internal/logfields"
	"git.home.luguber.info/inful/linkbio/internal/social"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// Page names accepted by Render.
const (
	PageLogin     = "login"
	PageRegister  = "register"
	PageDashboard = "dashboard"
	PageSettings  = "settings"
	PageProfile   = "profile"
	PageNotFound  = "notfound"
)

// View is the data handed to every template. Data carries the page model.
type View struct {
	Title string
	// User is the signed-in user, nil for anonymous visitors.
	User  any
	Error string
	// Form echoes submitted values back into forms after a failed post.
	Form map[string]string
	Data any
}

// Renderer holds one parsed template set per page, each sharing the layout.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	return newRenderer(templateFS)
}

func newRenderer(fsys fs.FS) (*Renderer, error) {
	files, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, f := range files {
		if f == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(f), ".html")
		t, err := template.New(path.Base(layoutFile)).Funcs(Funcs()).ParseFS(fsys, layoutFile, f)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render executes page into a buffer and writes it with status. Nothing is
// written when execution fails.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, v View) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed writing HTML response body", logfields.Error(err))
	}
	return nil
}

// Funcs are the helpers available to templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"initial":     Initial,
		"humanize":    Humanize,
		"socialColor": SocialColor,
		"ago":         Ago,
		"percent":     Percent,
		"deref":       Deref,
		"derefBool":   func(b *bool) bool { return b != nil && *b },
		"platforms":   social.Platforms,
		"add":         func(a, b int) int { return a + b },
	}
}

var upper = cases.Upper(language.Und)

// Initial is the upper-cased first letter of the first non-empty name.
func Initial(names ...string) string {
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		r, _ := utf8.DecodeRuneInString(n)
		return upper.String(string(r))
	}
	return "?"
}

// Humanize formats counts with thousands separators.
func Humanize(n any) string {
	switch v := n.(type) {
	case int:
		return humanize.Comma(int64(v))
	case int64:
		return humanize.Comma(v)
	case float64:
		return humanize.CommafWithDigits(v, 2)
	default:
		return fmt.Sprint(n)
	}
}

// SocialColor is the brand color of a platform, gray when unknown.
func SocialColor(socialType string) string {
	if p, ok := social.Lookup(socialType); ok {
		return p.Color
	}
	return "#6b7280"
}

// Ago renders a relative time, or "never" for a nil or zero time.
func Ago(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "never"
	}
	return humanize.Time(*t)
}

// Percent renders a ratio as a percentage with one decimal.
func Percent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
