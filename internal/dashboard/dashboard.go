// Package dashboard writes a static web page that reads and drives the
// device's REST endpoints from a browser.
package dashboard

import (
	"embed"
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/nativectl/internal/catalog"
)

// Script languages.
const (
	LangJS = "js"
	LangTS = "ts"
)

//go:embed templates/*
var templateFS embed.FS

var (
	pageTemplate   = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/index.html.tmpl"))
	scriptTemplate = template.Must(template.ParseFS(templateFS, "templates/app.tmpl"))
)

// Data parameterizes the generated files.
type Data struct {
	Host       string
	DeviceName string
	Endpoints  []catalog.Endpoint
}

type endpointView struct {
	Label    string   `json:"label"`
	Name     string   `json:"name"`
	ObjectID string   `json:"objectId"`
	Path     string   `json:"path"`
	Readable bool     `json:"readable"`
	Actions  []string `json:"actions"`
	Options  []string `json:"options"`
	Control  string   `json:"control"`
}

// control picks how the card collects input for a POST.
func control(ep catalog.Endpoint) string {
	switch ep.Slug() {
	case "number":
		return "number"
	case "select":
		return "select"
	case "text":
		return "text"
	case "time":
		return "time"
	case "climate":
		return "climate"
	}
	if ep.HasMethod(catalog.MethodPost) {
		return "buttons"
	}
	return "none"
}

func views(endpoints []catalog.Endpoint) []endpointView {
	out := make([]endpointView, 0, len(endpoints))
	for _, ep := range endpoints {
		v := endpointView{
			Label:    ep.Label,
			Name:     strings.ToValidUTF8(ep.Name, "\uFFFD"),
			ObjectID: strings.ToValidUTF8(ep.ObjectID, "\uFFFD"),
			Path:     strings.ToValidUTF8(ep.Path, "\uFFFD"),
			Readable: ep.HasMethod(catalog.MethodGet),
			Actions:  ep.Actions,
			Options:  ep.Options,
			Control:  control(ep),
		}
		if v.Actions == nil {
			v.Actions = []string{}
		}
		if v.Options == nil {
			v.Options = []string{}
		}
		out = append(out, v)
	}
	return out
}

type scriptData struct {
	Host       string
	DeviceName string
	Endpoints  string
	TypeScript bool
}

// Generate writes index.html, style.css and app.js or app.ts into dir and
// returns the paths written.
func Generate(dir, lang string, data Data) ([]string, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang != LangJS && lang != LangTS {
		return nil, fmt.Errorf("dashboard: unknown language %q", lang)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("dashboard: create %s: %w", dir, err)
	}
	script := "app." + lang
	files := []struct {
		name   string
		render func(io.Writer) error
	}{
		{"index.html", func(w io.Writer) error { return RenderPage(w, data, script) }},
		{"style.css", func(w io.Writer) error { return RenderStyle(w) }},
		{script, func(w io.Writer) error { return RenderScript(w, data, lang == LangTS) }},
	}
	var written []string
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := writeFile(path, f.render); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	log.Info().Msgf("dashboard.Generate dir=%s lang=%s endpoints=%d", dir, lang, len(data.Endpoints))
	return written, nil
}

func writeFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dashboard: create %s: %w", path, err)
	}
	if err := render(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("dashboard: render %s: %w", path, err)
	}
	return f.Close()
}

// RenderPage writes index.html; script is the file name of the app script.
func RenderPage(w io.Writer, data Data, script string) error {
	if strings.HasSuffix(script, ".ts") {
		// browsers load the compiled output
		script = strings.TrimSuffix(script, ".ts") + ".js"
	}
	return pageTemplate.Execute(w, struct {
		Host       string
		DeviceName string
		Script     string
		Count      int
	}{
		Host:       data.Host,
		DeviceName: strings.ToValidUTF8(data.DeviceName, "\uFFFD"),
		Script:     script,
		Count:      len(data.Endpoints),
	})
}

func RenderStyle(w io.Writer) error {
	raw, err := templateFS.ReadFile("templates/style.css")
	if err != nil {
		return err
	}
	_, err = w.Write(raw)
	return err
}

// RenderScript writes the app script with the endpoint list embedded.
func RenderScript(w io.Writer, data Data, typescript bool) error {
	raw, err := json.MarshalIndent(views(data.Endpoints), "", "  ")
	if err != nil {
		return err
	}
	host, err := json.Marshal(data.Host)
	if err != nil {
		return err
	}
	name, err := json.Marshal(strings.ToValidUTF8(data.DeviceName, "\uFFFD"))
	if err != nil {
		return err
	}
	return scriptTemplate.Execute(w, scriptData{
		Host:       string(host),
		DeviceName: string(name),
		Endpoints:  string(raw),
		TypeScript: typescript,
	})
}
