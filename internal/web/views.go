package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/roach88/todos/internal/todo"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names, one per template file besides the layout.
const (
	pageLists    = "lists"
	pageNewList  = "new_list"
	pageList     = "list"
	pageEditList = "edit_list"
)

var viewFuncs = template.FuncMap{
	"remaining":     todo.RemainingCount,
	"listCompleted": todo.IsListCompleted,
}

// pageData is the value every page template receives.
type pageData struct {
	Success []string
	Errors  []string

	Lists []todo.List
	List  *todo.List

	// Title echoes the submitted title back into a form.
	Title string
}

type views map[string]*template.Template

func parseViews() (views, error) {
	v := views{}
	for _, name := range []string{pageLists, pageNewList, pageList, pageEditList} {
		t, err := template.New(name).Funcs(viewFuncs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse view %s: %w", name, err)
		}
		v[name] = t
	}
	return v, nil
}

// render executes a page into a buffer so a template failure never leaves a
// half-written response.
func (v views) render(name string, data pageData) ([]byte, error) {
	t, ok := v[name]
	if !ok {
		return nil, fmt.Errorf("unknown view %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
