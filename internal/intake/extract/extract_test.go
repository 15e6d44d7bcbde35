package extract

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hủy Đặt Hàng", "huy dat hang"},
		{"  XÁC   NHẬN  ", "xac nhan"},
		{"đăng ký", "dang ky"},
		{"GL001", "gl001"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Fold(tt.in), tt.in)
	}
}

func TestProductCode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare", "GL001", "GL001", true},
		{"lower case", "gl-001", "GL-001", true},
		{"labelled", "mã: KT-12", "KT-12", true},
		{"with space", "N-EI 15", "N-EI 15", true},
		{"labelled with space", "Mã: n-ei 15", "N-EI 15", true},
		{"product label", "sản phẩm GL9", "GL9", true},
		{"too short", "A", "", false},
		{"vietnamese word", "không biết", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ProductCode(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDimensions(t *testing.T) {
	size, ok := Dimensions("1000x800x6")
	require.True(t, ok)
	assert.Equal(t, "1000", size.Height)
	assert.Equal(t, "800", size.Width)
	assert.True(t, size.Thickness.Equal(decimal.NewFromInt(6)))

	size, ok = Dimensions("1000 X 800 x 6.5")
	require.True(t, ok)
	assert.Equal(t, "6.5", size.Thickness.String())

	_, ok = Dimensions("1000x800")
	assert.False(t, ok)

	for _, in := range []string{"1000x800x0", "1000x800x0.0", "0x800x6", "1000x0x6", "000x800x6"} {
		_, ok = Dimensions(in)
		assert.False(t, ok, in)
	}
}

func TestQuantity(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"5", 5},
		{"số lượng: 12", 12},
		{"5 sheets", 5},
		{"3 tấm", 3},
		{"x5", 5},
		{"abc", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Quantity(tt.in), tt.in)
	}
}

func TestOrderLines(t *testing.T) {
	items := OrderLines("Đặt hàng: gl001 1000x800x6 x2, KT-9 500x400x8.5 x10")
	require.Len(t, items, 2)

	assert.Equal(t, "GL001", items[0].ProductCode)
	assert.Equal(t, "1000", items[0].Height)
	assert.Equal(t, "800", items[0].Width)
	assert.True(t, items[0].Thickness.Equal(decimal.NewFromInt(6)))
	assert.Equal(t, 2, items[0].Quantity)

	assert.Equal(t, "KT-9", items[1].ProductCode)
	assert.Equal(t, "8.5", items[1].Thickness.String())
	assert.Equal(t, 10, items[1].Quantity)
}

func TestOrderLines_CodeWithSpace(t *testing.T) {
	items := OrderLines("Đặt hàng: N-EI 15 1000x800x6 x2")
	require.Len(t, items, 1)
	assert.Equal(t, "N-EI 15", items[0].ProductCode)
	assert.Equal(t, "1000", items[0].Height)
}

func TestOrderLines_NoMatch(t *testing.T) {
	assert.Nil(t, OrderLines("đặt hàng"))
	assert.Nil(t, OrderLines("đặt hàng từng bước"))
	assert.Nil(t, OrderLines("GL001 1000x800x6 x2"))
	assert.Nil(t, OrderLines("order GL001 1000x800x6 x0"))
	assert.Nil(t, OrderLines("order GL001 1000x800x0 x2"))
	assert.Nil(t, OrderLines("đặt hàng: GL001 1000x800x6 x2, GL002 0x400x5 x1"))
}

func TestHasOrderPrefix(t *testing.T) {
	assert.True(t, HasOrderPrefix("order: GL001 1000x800x0 x2"))
	assert.True(t, HasOrderPrefix("Đặt hàng GL001 1000x800"))
	assert.False(t, HasOrderPrefix("đặt hàng"))
	assert.False(t, HasOrderPrefix("đặt hàng mới"))
	assert.False(t, HasOrderPrefix("GL001 1000x800x6 x2"))
}

func TestPhone(t *testing.T) {
	phone, ok := Phone("Đăng ký: 0912345678")
	require.True(t, ok)
	assert.Equal(t, "0912345678", phone)

	phone, ok = Phone("register 09123456789")
	require.True(t, ok)
	assert.Equal(t, "09123456789", phone)

	_, ok = Phone("đăng ký 0912")
	assert.False(t, ok)
	_, ok = Phone("đăng ký 091234567890")
	assert.False(t, ok)
}

func TestOrderCode(t *testing.T) {
	code, ok := OrderCode("chi tiết đơn hàng zl20240101001")
	require.True(t, ok)
	assert.Equal(t, "ZL20240101001", code)

	_, ok = OrderCode("theo dõi đơn hàng")
	assert.False(t, ok)
}
