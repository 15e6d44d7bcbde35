// Package extract pulls order fields out of short, semi-structured chat text.
// Every extractor is an ordered list of matchers; the first match wins and
// ambiguous input yields nothing.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Rrens/order-intake/internal/domain"
)

// Size is a height x width x thickness triple
type Size struct {
	Height    string
	Width     string
	Thickness decimal.Decimal
}

type matcher[T any] func(text string) (T, bool)

func first[T any](text string, rules []matcher[T]) (T, bool) {
	for _, rule := range rules {
		if v, ok := rule(text); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

var (
	bareCodePattern    = regexp.MustCompile(`^([A-Za-z0-9\- ]+)$`)
	labelCodePattern   = regexp.MustCompile(`(?i)(?:mã|ma|code)\s*:?\s*([A-Za-z0-9][A-Za-z0-9\- ]*)`)
	productCodePattern = regexp.MustCompile(`(?i)(?:sản\s*phẩm|san\s*pham|product)\s*:?\s*([A-Za-z0-9][A-Za-z0-9\- ]*)`)

	sizePattern = regexp.MustCompile(`(?i)(\d+)\s*x\s*(\d+)\s*x\s*(\d+(?:\.\d+)?)`)

	bareQtyPattern   = regexp.MustCompile(`^(\d+)$`)
	labelQtyPattern  = regexp.MustCompile(`(?i)(?:số\s*lượng|so\s*luong|quantity|qty)\s*:?\s*(\d+)`)
	sheetsQtyPattern = regexp.MustCompile(`(?i)(\d+)\s*(?:tấm|tam|sheets?)`)
	timesQtyPattern  = regexp.MustCompile(`(?i)x\s*(\d+)$`)

	oneShotPattern     = regexp.MustCompile(`(?i)^(?:đặt\s*hàng|dat\s*hang|order)\s*:?\s*(.+)$`)
	oneShotItemPattern = regexp.MustCompile(`(?i)([A-Z0-9][A-Z0-9\-]*(?: [A-Z0-9][A-Z0-9\-]*)*?)\s+(\d+)\s*x\s*(\d+)\s*x\s*(\d+(?:\.\d+)?)\s+x\s*(\d+)`)

	phonePattern     = regexp.MustCompile(`(?i)(?:đăng\s*ký|dang\s*ky|register)\s*:?\s*(\d{10,11})(?:\D|$)`)
	orderCodePattern = regexp.MustCompile(`[A-Za-z0-9]{6,}`)
	digitPattern     = regexp.MustCompile(`\d`)
)

func codeFrom(pattern *regexp.Regexp) matcher[string] {
	return func(text string) (string, bool) {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		code := strings.ToUpper(strings.TrimSpace(m[1]))
		if len(code) < 2 {
			return "", false
		}
		return code, true
	}
}

var productCodeRules = []matcher[string]{
	codeFrom(bareCodePattern),
	codeFrom(labelCodePattern),
	codeFrom(productCodePattern),
}

// ProductCode returns the upper-cased product code in text
func ProductCode(text string) (string, bool) {
	return first(Normalize(text), productCodeRules)
}

// Dimensions returns the first HxWxT triple in text. Every side must be
// positive.
func Dimensions(text string) (Size, bool) {
	m := sizePattern.FindStringSubmatch(Normalize(text))
	if m == nil {
		return Size{}, false
	}
	return size(m[1], m[2], m[3])
}

func size(height, width, thickness string) (Size, bool) {
	t, err := decimal.NewFromString(thickness)
	if err != nil || !t.IsPositive() || !positiveInt(height) || !positiveInt(width) {
		return Size{}, false
	}
	return Size{Height: height, Width: width, Thickness: t}, true
}

func positiveInt(s string) bool {
	n, err := strconv.Atoi(s)
	return err == nil && n > 0
}

func intFrom(pattern *regexp.Regexp) matcher[int] {
	return func(text string) (int, bool) {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			return 0, false
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false
		}
		return n, true
	}
}

var quantityRules = []matcher[int]{
	intFrom(bareQtyPattern),
	intFrom(labelQtyPattern),
	intFrom(sheetsQtyPattern),
	intFrom(timesQtyPattern),
}

// Quantity returns the quantity in text, or 0 when there is none
func Quantity(text string) int {
	n, _ := first(Normalize(text), quantityRules)
	return n
}

// OrderLines parses the one-shot syntax
// "đặt hàng: <code> <H>x<W>x<T> x<qty>[, ...]". It returns nil unless
// at least one well-formed item is present.
func OrderLines(text string) []domain.OrderLineItem {
	m := oneShotPattern.FindStringSubmatch(Normalize(text))
	if m == nil {
		return nil
	}
	matches := oneShotItemPattern.FindAllStringSubmatch(m[1], -1)
	if len(matches) == 0 {
		return nil
	}

	items := make([]domain.OrderLineItem, 0, len(matches))
	for _, g := range matches {
		sz, ok := size(g[2], g[3], g[4])
		if !ok {
			return nil
		}
		qty, err := strconv.Atoi(g[5])
		if err != nil || qty <= 0 {
			return nil
		}
		items = append(items, domain.OrderLineItem{
			ProductCode: strings.ToUpper(g[1]),
			Height:      sz.Height,
			Width:       sz.Width,
			Thickness:   sz.Thickness,
			Quantity:    qty,
		})
	}
	return items
}

// HasOrderPrefix reports whether text starts like a one-shot order
// ("đặt hàng: ...") followed by something with digits in it
func HasOrderPrefix(text string) bool {
	m := oneShotPattern.FindStringSubmatch(Normalize(text))
	return m != nil && digitPattern.MatchString(m[1])
}

// Phone returns the phone number of a registration message
func Phone(text string) (string, bool) {
	m := phonePattern.FindStringSubmatch(Normalize(text))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// OrderCode returns the first token that looks like an order code
func OrderCode(text string) (string, bool) {
	for _, token := range orderCodePattern.FindAllString(Normalize(text), -1) {
		if digitPattern.MatchString(token) {
			return strings.ToUpper(token), true
		}
	}
	return "", false
}
