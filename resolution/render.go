package resolution

import (
	"fmt"
	"strings"
)

// Render writes resolved lines as an order summary such as
// "10 qty of Blue Jeans and 5 qty of Red Shirts". Resolving the summary
// against the same catalog yields the same quantities.
func Render(lines []ResolvedOrderLine) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		parts = append(parts, fmt.Sprintf("%d qty of %s", line.Qty, line.ProductName))
	}

	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
	}
}
