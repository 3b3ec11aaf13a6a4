package renderer

import (
	"fmt"

	"github.com/etnz/exposure"
)

// Adjustment renders a reconciliation adjustment to a one-line string.
func Adjustment(a exposure.Adjustment) string {
	return fmt.Sprintf("%s: requested %s of %s collateral, covered %s, short %s",
		a.Platform, a.Requested, a.Collateral, a.Applied, a.Residual)
}
