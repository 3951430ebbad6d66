package core

import (
	"bytes"
	htmltmpl "html/template"
	"io/fs"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

const emailTemplatesDir = "templates/email"

type (
	tmplCacheEntry map[string]interface{}    // {ext: *Template}
	tmplCache      map[string]tmplCacheEntry // {name: {tmplCacheEntry}}

	// EmailTemplates lazily parses the email templates of a file system.
	// Every template defines "content" and renders it within the `_base` layout of its extension.
	EmailTemplates struct {
		fsys   fs.FS
		strict bool
		once   sync.Once
		cache  tmplCache
		err    error
	}

	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		AppName string
		Data    interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

// NewEmailTemplates reads templates from `templates/email` of fsys.
// strict makes missing template keys an error (debug and test modes).
func NewEmailTemplates(fsys fs.FS, strict bool) *EmailTemplates {
	return &EmailTemplates{fsys: fsys, strict: strict}
}

func (t *EmailTemplates) parse() {
	t.cache = make(tmplCache)

	fps, err := fs.Glob(t.fsys, path.Join(emailTemplatesDir, "*"))
	if err != nil {
		t.err = errors.Wrap(err, "listing email templates")
		return
	}

	for _, fp := range fps {
		fname := path.Base(fp)
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		entry, ok := t.cache[name]
		if !ok {
			entry = make(tmplCacheEntry)
			t.cache[name] = entry
		}
		base := path.Join(emailTemplatesDir, "_base"+ext)

		if ext == ".txt" {
			tmpl, err := texttmpl.ParseFS(t.fsys, fp, base)
			if err != nil {
				t.err = errors.Wrapf(err, "parsing %s", fname)
				return
			}
			if t.strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			entry[ext] = tmpl
		} else {
			tmpl, err := htmltmpl.ParseFS(t.fsys, fp, base)
			if err != nil {
				t.err = errors.Wrapf(err, "parsing %s", fname)
				return
			}
			if t.strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			entry[ext] = tmpl
		}
	}
}

func (t *EmailTemplates) get(name, ext string) (interface{}, error) {
	t.once.Do(t.parse) // only parse once, on first use
	if t.err != nil {
		return nil, t.err
	}
	entry, ok := t.cache[name]
	if !ok {
		return nil, nil
	}
	return entry[ext], nil
}

func (m *EmailMessage) renderText(tmpls *EmailTemplates, ctx ContextData) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	} else if m.TemplateName == "" || tmpls == nil {
		return nil
	}

	entry, err := tmpls.get(m.TemplateName, ".txt")
	if err != nil {
		return err
	}
	tmpl, ok := entry.(*texttmpl.Template)
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, ctx); err != nil {
		return err
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) renderHTML(tmpls *EmailTemplates, ctx ContextData) error {
	if m.TemplateName == "" || tmpls == nil {
		return nil
	}

	entry, err := tmpls.get(m.TemplateName, ".gohtml")
	if err != nil {
		return err
	}
	tmpl, ok := entry.(*htmltmpl.Template)
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, ctx); err != nil {
		return err
	}
	m.HTMLContent = buff.String()
	return nil
}

// Render fills TextContent and HTMLContent from BodyStr or the message's templates.
func (m *EmailMessage) Render(tmpls *EmailTemplates, appName string) error {
	ctx := ContextData{AppName: appName, Data: m.TemplateData}
	if err := m.renderText(tmpls, ctx); err != nil {
		return errors.Wrap(err, "rendering text")
	}
	return errors.Wrap(m.renderHTML(tmpls, ctx), "rendering html")
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }
