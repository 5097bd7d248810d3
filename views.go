package vesta

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
)

var ErrNoViews = errors.New("no views configured")

// Views renders html/template views for actions.
type Views struct {
	tmpl *template.Template
}

func NewViews(t *template.Template) *Views {
	return &Views{tmpl: t}
}

// LoadViews parses every template file matching pattern.
func LoadViews(pattern string) (*Views, error) {
	t, err := template.ParseGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("cannot parse views %q: %w", pattern, err)
	}

	return NewViews(t), nil
}

// viewData is the dot of every view.
type viewData struct {
	act *Action
}

func (d viewData) BaseURL() string {
	return d.act.BaseURL()
}

func (d viewData) Action() string {
	return d.act.Name()
}

// Attr returns the attribute for key, or nil when it is not set.
func (d viewData) Attr(key string) (any, error) {
	v, err := d.act.Attribute(key)
	if errors.Is(err, ErrAttributeNotFound) {
		return nil, nil
	}

	return v, err
}

func (v *Views) render(act *Action, code int, name string) error {
	var buf bytes.Buffer

	if err := v.tmpl.ExecuteTemplate(&buf, name, viewData{act: act}); err != nil {
		return fmt.Errorf("cannot render %q: %w", name, err)
	}

	resp := act.Response()
	resp.Header().Set("Content-Type", "text/html; charset=utf-8")
	resp.WriteHeader(code)
	_, err := buf.WriteTo(resp)

	return err
}
