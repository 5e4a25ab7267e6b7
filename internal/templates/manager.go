package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"sync"
)

//go:embed files
var embedded embed.FS

// Names of the bundled templates.
const (
	BookReservedMail = "mail/book-reserved.html"
	WishlistPage     = "pages/wishlist.html"
)

// Manager parses templates lazily and caches them. It is safe for
// concurrent use.
type Manager struct {
	fsys  fs.FS
	mu    sync.RWMutex
	cache map[string]*template.Template
}

// NewManager serves the templates compiled into the binary.
func NewManager() *Manager {
	sub, err := fs.Sub(embedded, "files")
	if err != nil {
		panic(err)
	}
	return NewManagerFS(sub)
}

// NewManagerFS serves templates from fsys, e.g. an os.DirFS during
// template development.
func NewManagerFS(fsys fs.FS) *Manager {
	return &Manager{
		fsys:  fsys,
		cache: make(map[string]*template.Template),
	}
}

func (m *Manager) Render(templateName string, data any) (string, error) {
	tmpl, err := m.lookup(templateName)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}
	return buf.String(), nil
}

func (m *Manager) lookup(name string) (*template.Template, error) {
	m.mu.RLock()
	tmpl, ok := m.cache[name]
	m.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if tmpl, ok := m.cache[name]; ok {
		return tmpl, nil
	}

	tmpl, err := template.New(path.Base(name)).Funcs(funcs).ParseFS(m.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	m.cache[name] = tmpl
	return tmpl, nil
}

var funcs = template.FuncMap{
	"join": strings.Join,
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}
