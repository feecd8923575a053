package handlers

import (
	"net/http"

	"github.com/ramonehamilton/manaforge/internal/api/response"
	"github.com/ramonehamilton/manaforge/internal/format"
)

// FormatInfo describes one supported format.
type FormatInfo struct {
	Name  string       `json:"name"`
	Rules format.Rules `json:"rules"`
}

// ListFormats returns every supported format with its construction rules.
func ListFormats(w http.ResponseWriter, _ *http.Request) {
	all := format.All()
	infos := make([]FormatInfo, len(all))
	for i, f := range all {
		rules := f.Rules()
		if rules.MaxCopies == format.Unlimited {
			// JSON clients cannot represent MaxInt exactly
			rules.MaxCopies = 0
		}
		infos[i] = FormatInfo{Name: f.String(), Rules: rules}
	}
	response.Success(w, infos)
}
