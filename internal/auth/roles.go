package auth

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/frahmantamala/asset-portal/internal/core/datamodel/identity"
)

// RoleLabel renders a role for display, e.g. IT_MANAGER as "IT Manager".
func RoleLabel(role identity.RoleName) string {
	caser := cases.Title(language.English)
	words := strings.Split(strings.ToLower(string(role)), "_")
	for i, w := range words {
		if len(w) <= 2 {
			words[i] = strings.ToUpper(w)
			continue
		}
		words[i] = caser.String(w)
	}
	return strings.Join(words, " ")
}
