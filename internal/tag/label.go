package tag

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titler = cases.Title(language.English)

// Label turns a tag name into a display label: "glass_cannon" -> "Glass Cannon".
func Label(name string) string {
	return titler.String(strings.ReplaceAll(name, "_", " "))
}
