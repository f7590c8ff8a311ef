package render

import (
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// templateFuncs returns the helper functions available to page templates.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"titleCase":  titleCase,
		"replaceAll": strings.ReplaceAll,
		"lower":      strings.ToLower,
	}
}

// titleCase converts a string to title case (portable alternative to the
// deprecated strings.Title). Dashes and underscores read as word separators.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	return cases.Title(language.Und).String(s)
}
