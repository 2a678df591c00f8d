package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
	"unicode/utf8"

	"github.com/agency-cms-api/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Names lists every renderable template
var Names = []string{
	models.EmailWelcome,
	models.EmailPasswordReset,
	models.EmailContactReceived,
	models.EmailContactReply,
	models.EmailNewsletterWelcome,
	models.EmailPaymentSuccess,
	models.EmailPaymentFailed,
}

var funcs = template.FuncMap{
	"truncate": func(v any, n int) string {
		s := fmt.Sprint(v)
		if v == nil {
			s = ""
		}
		if utf8.RuneCountInString(s) <= n {
			return s
		}
		return string([]rune(s)[:n]) + "..."
	},
}

// Templates renders the HTML email bodies
type Templates struct {
	set         map[string]*template.Template
	brand       string
	frontendURL string
}

type view struct {
	Brand       string
	FrontendURL string
	Year        int
	Data        map[string]any
}

// LoadTemplates parses the embedded templates, one set per email sharing the layout
func LoadTemplates(brand, frontendURL string) (*Templates, error) {
	layout, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	t := &Templates{set: make(map[string]*template.Template), brand: brand, frontendURL: frontendURL}
	for _, name := range Names {
		clone, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		t.set[name] = clone
	}
	return t, nil
}

// Render executes the named template with data
func (t *Templates) Render(name string, data map[string]any) (string, error) {
	tmpl, ok := t.set[name]
	if !ok {
		return "", fmt.Errorf("unknown email template %q", name)
	}
	if data == nil {
		data = map[string]any{}
	}

	var buf bytes.Buffer
	err := tmpl.ExecuteTemplate(&buf, "layout.html", view{
		Brand:       t.brand,
		FrontendURL: t.frontendURL,
		Year:        time.Now().Year(),
		Data:        data,
	})
	if err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
