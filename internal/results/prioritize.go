package results

import (
	"sort"

	"github.com/Azure/aimbiztalk-sub006/internal/diagnostics"
)

// Prioritize sorts diagnostics in place: errors first, then by code and
// subject. Diagnostics that compare equal keep their recorded order.
func Prioritize(diags []diagnostics.Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		ri, rj := diags[i].Severity.Rank(), diags[j].Severity.Rank()
		if ri != rj {
			return ri < rj
		}
		if diags[i].Code != diags[j].Code {
			return diags[i].Code < diags[j].Code
		}
		return diags[i].Subject < diags[j].Subject
	})
}
