package mintframe

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
)

//go:embed templates/*.gohtml
var FS embed.FS

var views = template.Must(template.ParseFS(FS, "templates/*.gohtml"))

// render executes the named view into a buffer so a template failure never
// leaves a half-written 200 response.
func render(w http.ResponseWriter, name string, data any) error {
	var buf bytes.Buffer
	if err := views.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, err := buf.WriteTo(w)
	return err
}
