package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	c := Default()

	tests := []struct {
		text string
		want Intent
	}{
		{"bắt đầu", StartSession},
		{"Bắt đầu lại", StartSession},
		{"kết thúc", EndSession},
		{"đăng ký: 0912345678", Register},
		{"Register 0912345678", Register},
		{"hủy", Cancel},
		{"hủy đặt hàng", Cancel},
		{"HUY DAT HANG", Cancel},
		{"quay lại bước trước", Back},
		{"gộp sản phẩm", Merge},
		{"bỏ sản phẩm mới", Discard},
		{"xác nhận đặt hàng", Confirm},
		{"thêm sản phẩm", AddItem},
		{"đặt hàng: GL001 1000x800x6 x2", OneShotOrder},
		{"theo dõi đơn hàng", TrackOrder},
		{"chi tiết đơn hàng ZL20240101001", TrackOrder},
		{"danh sách đơn hàng", ListOrders},
		{"lịch sử đặt hàng", ListOrders},
		{"đặt hàng", StartOrder},
		{"đặt hàng mới", StartOrder},
		{"bắt đầu đặt hàng", StartOrder},
		{"đặt hàng từng bước", StartOrder},
		{"hướng dẫn", Help},
		{"Hỗ trợ?", Help},
		{"?", Help},
		{"làm sao để đặt?", Unknown},
		{"GL001?", Unknown},
		{"help me with GL001", Unknown},
		{"GL001", Unknown},
		{"1000x800x6", Unknown},
		{"5", Unknown},
		{"", Unknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Classify(tt.text), tt.text)
	}
}

func TestNew_ExtraPhrases(t *testing.T) {
	c, err := New(map[string][]string{"cancel": {`^thoi khong mua nua$`}})
	require.NoError(t, err)
	assert.Equal(t, Cancel, c.Classify("Thôi không mua nữa"))
	assert.Equal(t, Cancel, c.Classify("hủy"))
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(map[string][]string{"dance": {`x`}})
	assert.Error(t, err)

	_, err = New(map[string][]string{"help": {`(`}})
	assert.Error(t, err)
}
