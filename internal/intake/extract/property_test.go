package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

// One-shot orders with N item groups parse to exactly N items, left to right
func TestOrderLinesProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	ints := gen.SliceOfN(5, gen.IntRange(1, 99999))

	properties.Property("every item group is returned in order", prop.ForAll(
		func(n int, codes, heights, widths, tenths, qtys []int) bool {
			groups := make([]string, n)
			for i := 0; i < n; i++ {
				thickness := decimal.New(int64(tenths[i]%300+1), -1)
				groups[i] = fmt.Sprintf("gl%d %dx%dx%s x%d", codes[i], heights[i], widths[i], thickness, qtys[i])
			}
			items := OrderLines("đặt hàng: " + strings.Join(groups, ", "))
			if len(items) != n {
				return false
			}
			for i, item := range items {
				thickness := decimal.New(int64(tenths[i]%300+1), -1)
				if item.ProductCode != fmt.Sprintf("GL%d", codes[i]) ||
					item.Height != fmt.Sprint(heights[i]) ||
					item.Width != fmt.Sprint(widths[i]) ||
					!item.Thickness.Equal(thickness) ||
					item.Quantity != qtys[i] {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 5),
		ints, ints, ints, ints, ints,
	))

	properties.Property("quantity forms agree", prop.ForAll(
		func(n int) bool {
			s := fmt.Sprint(n)
			return Quantity(s) == n &&
				Quantity(s+" sheets") == n &&
				Quantity("x"+s) == n &&
				Quantity("số lượng: "+s) == n
		},
		gen.IntRange(1, 1000000),
	))

	properties.TestingRun(t)
}
