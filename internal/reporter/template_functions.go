package reporter

import (
	"encoding/json"
	"html/template"
	"strings"
	"time"
)

// commonTemplateFunctions is the function map every report template gets
func commonTemplateFunctions() template.FuncMap {
	return template.FuncMap{
		"json": func(v interface{}) (template.JS, error) {
			data, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return template.JS(data), nil
		},
		"ToLower": strings.ToLower,
		"formatTime": func(t time.Time, layout string) string {
			if t.IsZero() {
				return "N/A"
			}
			return t.Format(layout)
		},
		"inc": func(i int) int {
			return i + 1
		},
	}
}
