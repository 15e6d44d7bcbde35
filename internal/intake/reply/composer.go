// Package reply renders dialog outcomes as chat replies.
package reply

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Rrens/order-intake/internal/domain"
	"github.com/Rrens/order-intake/internal/intake/dialog"
)

// Button payloads re-injected as customer messages
const (
	PayloadStartOrder  = "đặt hàng"
	PayloadNewOrder    = "đặt hàng mới"
	PayloadHelp        = "hướng dẫn"
	PayloadRestart     = "bắt đầu"
	PayloadRegister    = "đăng ký: "
	PayloadCancel      = "hủy đặt hàng"
	PayloadBack        = "quay lại bước trước"
	PayloadConfirm     = "xác nhận đặt hàng"
	PayloadAddItem     = "thêm sản phẩm"
	PayloadMerge       = "gộp sản phẩm"
	PayloadDiscard     = "bỏ sản phẩm mới"
	PayloadListOrders  = "danh sách đơn hàng"
	PayloadOrderDetail = "chi tiết đơn hàng "
)

const maxListedOrders = 3

// Composer builds replies. Compose is deterministic for a given outcome.
type Composer struct {
	brand        string
	supportPhone string
}

// NewComposer creates a composer for the given shop name and support number
func NewComposer(brand, supportPhone string) *Composer {
	return &Composer{brand: brand, supportPhone: supportPhone}
}

func query(label, payload string) domain.Button {
	return domain.Button{Label: label, ActionType: domain.ActionSendQuery, Payload: payload}
}

func (c *Composer) call(label string) domain.Button {
	return domain.Button{Label: label, ActionType: domain.ActionDialPhone, Payload: c.supportPhone}
}

// Compose renders the outcome
func (c *Composer) Compose(o dialog.Outcome) domain.Reply {
	r := c.compose(o)
	if notice := c.notice(o); notice != "" {
		r.Text = notice + "\n\n" + r.Text
	}
	return r
}

func (c *Composer) compose(o dialog.Outcome) domain.Reply {
	s := o.Session
	switch o.Reply {
	case dialog.ReplyGreeting:
		return domain.Reply{
			Text: fmt.Sprintf("🚀 BẮT ĐẦU PHIÊN CHAT MỚI!\n\nChào mừng bạn đến với %s. Bạn có thể:\n"+
				"• Đặt hàng từng bước: gửi \"Đặt hàng\"\n"+
				"• Đặt hàng nhanh: \"Đặt hàng: GL001 1000x800x6 x2\"\n"+
				"• Xem đơn hàng: \"Danh sách đơn hàng\"\n\n"+
				"💡 Để kết thúc phiên, gửi \"Kết thúc\"", c.brand),
			Buttons: []domain.Button{query("🛒 Đặt hàng", PayloadStartOrder), query("📋 Hướng dẫn", PayloadHelp), c.call("📞 Liên hệ")},
		}
	case dialog.ReplyFarewell:
		return domain.Reply{
			Text:    fmt.Sprintf("👋 KẾT THÚC PHIÊN CHAT!\n\nCảm ơn bạn đã liên hệ %s.\n\n💡 Để bắt đầu phiên mới, gửi \"Bắt đầu\"", c.brand),
			Buttons: []domain.Button{query("🔄 Bắt đầu lại", PayloadRestart), c.call("📞 Liên hệ")},
		}
	case dialog.ReplyRegistered:
		return domain.Reply{
			Text:    fmt.Sprintf("✅ ĐĂNG KÝ THÀNH CÔNG!\n\n📱 Số điện thoại: %s\n\n🚀 Sẵn sàng đặt hàng?", s.CustomerPhone),
			Buttons: []domain.Button{query("🛒 Đặt hàng ngay", PayloadStartOrder), query("📋 Hướng dẫn", PayloadHelp), c.call("📞 Liên hệ")},
		}
	case dialog.ReplyRegisterFormat:
		return domain.Reply{Text: "❌ Định dạng đăng ký không đúng. Vui lòng gửi: Đăng ký: [SỐ ĐIỆN THOẠI]\n\nVí dụ: Đăng ký: 0914913696"}
	case dialog.ReplyRegisterFailed:
		return domain.Reply{
			Text:    "⚠️ Chưa lưu được số điện thoại của bạn. Vui lòng gửi lại: Đăng ký: [SỐ ĐIỆN THOẠI]",
			Buttons: []domain.Button{query("📝 Đăng ký lại", PayloadRegister), c.call("📞 Liên hệ")},
		}
	case dialog.ReplyNeedRegistration:
		return domain.Reply{
			Text: fmt.Sprintf("👋 CHÀO MỪNG ĐẾN VỚI %s!\n\n"+
				"Để đặt hàng, bạn cần đăng ký số điện thoại trước.\n\n"+
				"📝 Gửi tin nhắn theo mẫu:\nĐăng ký: 0914913696", strings.ToUpper(c.brand)),
			Buttons: []domain.Button{query("📝 Đăng ký ngay", PayloadRegister), c.call("📞 Liên hệ")},
		}
	case dialog.ReplyAskProductCode:
		return domain.Reply{
			Text:    fmt.Sprintf("🛒 SẢN PHẨM THỨ %d\n\nBước 1/4: Nhập mã sản phẩm\nVí dụ: GL001, N-EI 15", itemNumber(s)),
			Buttons: cancelHelp(),
		}
	case dialog.ReplyInvalidProductCode:
		return domain.Reply{
			Text:    "❌ MÃ SẢN PHẨM KHÔNG HỢP LỆ\n\nMã chỉ gồm chữ cái, chữ số và dấu gạch ngang.\nVí dụ: GL001, N-EI 15\n\n✍️ Thử lại:",
			Buttons: cancelHelp(),
		}
	case dialog.ReplyAskDimensions:
		return domain.Reply{
			Text: fmt.Sprintf("✅ Mã sản phẩm: %s\n\nBước 2/4: Nhập kích thước CAOxRỘNGxDÀY (mm)\nVí dụ: 1000x800x6",
				current(s).ProductCode),
			Buttons: cancelBack(),
		}
	case dialog.ReplyInvalidDimensions:
		return domain.Reply{
			Text:    "❌ KÍCH THƯỚC KHÔNG HỢP LỆ\n\nĐịnh dạng: CAOxRỘNGxDÀY\nVí dụ: 1000x800x6 hoặc 1000 x 800 x 6.5\n\n✍️ Thử lại:",
			Buttons: cancelBack(),
		}
	case dialog.ReplyAskQuantity:
		item := current(s)
		return domain.Reply{
			Text: fmt.Sprintf("✅ Kích thước: %sx%sx%s\n\nBước 3/4: Nhập số lượng tấm\nVí dụ: 5 hoặc 5 tấm",
				item.Height, item.Width, item.Thickness.Decimal.String()),
			Buttons: cancelBack(),
		}
	case dialog.ReplyInvalidQuantity:
		return domain.Reply{
			Text:    "❌ SỐ LƯỢNG KHÔNG HỢP LỆ\n\nSố lượng phải là số nguyên lớn hơn 0.\nVí dụ: 5, 10 tấm\n\n✍️ Thử lại:",
			Buttons: cancelBack(),
		}
	case dialog.ReplyAskConfirmation:
		return domain.Reply{
			Text:    "📋 Bước 4/4: XÁC NHẬN THÔNG TIN ĐẶT HÀNG\n\n" + pendingLines(s) + "\n\n🤔 Bạn muốn:",
			Buttons: confirmButtons(),
		}
	case dialog.ReplyConfirmNotUnderstood:
		return domain.Reply{
			Text: "❓ KHÔNG HIỂU LỰA CHỌN\n\nVui lòng chọn:\n" +
				"• \"Xác nhận\" - Tạo đơn hàng\n• \"Thêm sản phẩm\" - Thêm sản phẩm khác\n• \"Hủy\" - Hủy đặt hàng",
			Buttons: confirmButtons(),
		}
	case dialog.ReplyAskMerge:
		return c.askMerge(o)
	case dialog.ReplyCancelled:
		return domain.Reply{
			Text:    "❌ ĐÃ HỦY ĐẶT HÀNG\n\nBạn có thể bắt đầu lại bất cứ lúc nào!",
			Buttons: []domain.Button{query("🛒 Đặt hàng mới", PayloadNewOrder)},
		}
	case dialog.ReplyNoOrderInProgress:
		return domain.Reply{
			Text:    "ℹ️ Bạn chưa có đơn hàng nào đang đặt.",
			Buttons: []domain.Button{query("🛒 Đặt hàng", PayloadStartOrder), query("📋 Hướng dẫn", PayloadHelp)},
		}
	case dialog.ReplyOrderCreated:
		return c.orderCreated(o)
	case dialog.ReplyOrderFailed:
		return domain.Reply{
			Text:    "❌ LỖI TẠO ĐƠN HÀNG\n\nVui lòng thử lại hoặc liên hệ hỗ trợ.",
			Buttons: []domain.Button{query("🔄 Thử lại", PayloadStartOrder), c.call("📞 Liên hệ hỗ trợ")},
		}
	case dialog.ReplyTrackPrompt:
		return domain.Reply{
			Text:    "🔍 TRA CỨU ĐƠN HÀNG\n\nVui lòng gửi: Chi tiết đơn hàng [MÃ ĐƠN]\nhoặc xem danh sách đơn hàng của bạn.",
			Buttons: []domain.Button{query("📋 Đơn hàng của tôi", PayloadListOrders), c.call("📞 Gọi hỗ trợ")},
		}
	case dialog.ReplyOrderDetail:
		return c.orderDetail(o)
	case dialog.ReplyOrderNotFound:
		return domain.Reply{
			Text:    fmt.Sprintf("🔍 Không tìm thấy đơn hàng %s của bạn.", o.OrderCode),
			Buttons: []domain.Button{query("📋 Đơn hàng của tôi", PayloadListOrders), c.call("📞 Gọi hỗ trợ")},
		}
	case dialog.ReplyOrderList:
		return c.orderList(o)
	case dialog.ReplyLookupFailed:
		return domain.Reply{
			Text:    "⚠️ Xin lỗi, hiện không tra cứu được đơn hàng. Vui lòng thử lại sau.",
			Buttons: []domain.Button{c.call("📞 Gọi hỗ trợ")},
		}
	case dialog.ReplyHelp:
		return domain.Reply{
			Text: fmt.Sprintf("📝 HƯỚNG DẪN SỬ DỤNG %s CHATBOT\n\n"+
				"🛒 Đặt hàng từng bước: \"Đặt hàng\"\n"+
				"⚡ Đặt hàng nhanh: \"Đặt hàng: GL001 1000x800x6 x2\"\n"+
				"📋 Xem đơn hàng:\n• \"Danh sách đơn hàng\"\n• \"Chi tiết đơn hàng [MÃ ĐƠN]\"\n\n"+
				"📞 Hỗ trợ: %s", strings.ToUpper(c.brand), c.supportPhone),
			Buttons: []domain.Button{query("🛒 Đặt hàng", PayloadStartOrder), query("📋 Đơn hàng của tôi", PayloadListOrders), c.call("📞 Liên hệ")},
		}
	case dialog.ReplyUnsupported:
		return domain.Reply{Text: "📎 Hiện tại chatbot chỉ hỗ trợ tin nhắn văn bản. Vui lòng nhập nội dung bằng chữ."}
	case dialog.ReplySlowDown:
		return domain.Reply{Text: "⏳ Bạn gửi tin nhắn quá nhanh. Vui lòng chờ giây lát rồi thử lại."}
	case dialog.ReplyInvalidOrderLine:
		return domain.Reply{
			Text: "❌ ĐƠN HÀNG KHÔNG HỢP LỆ\n\nĐịnh dạng: Đặt hàng: MÃ CAOxRỘNGxDÀY xSỐLƯỢNG\n" +
				"Ví dụ: Đặt hàng: GL001 1000x800x6 x2, GL002 1200x600x8 x1\n\nKích thước và số lượng phải lớn hơn 0.",
			Buttons: []domain.Button{query("🛒 Đặt hàng từng bước", PayloadStartOrder), query("❓ Hướng dẫn", PayloadHelp)},
		}
	case dialog.ReplyBusy:
		return domain.Reply{Text: "⏳ Tin nhắn trước của bạn vẫn đang được xử lý. Vui lòng gửi lại tin nhắn này sau giây lát."}
	case dialog.ReplyUnavailable:
		return domain.Reply{
			Text:    "⚠️ Hệ thống đang tạm gián đoạn, tin nhắn vừa rồi chưa được ghi nhận. Đơn hàng đang đặt của bạn vẫn được giữ nguyên, vui lòng gửi lại sau ít phút.",
			Buttons: []domain.Button{c.call("📞 Gọi hỗ trợ")},
		}
	default:
		text := fmt.Sprintf("🤔 KHÔNG HIỂU LỆNH CỦA BẠN\n\nGửi \"Hướng dẫn\" để xem các lệnh.\n\n📞 Cần trợ giúp? Gọi: %s", c.supportPhone)
		if o.Answer != "" {
			text += "\n\n💬 " + o.Answer
		}
		return domain.Reply{
			Text:    text,
			Buttons: []domain.Button{query("🛒 Đặt hàng", PayloadStartOrder), query("❓ Hướng dẫn", PayloadHelp), c.call("📞 Liên hệ")},
		}
	}
}

func (c *Composer) notice(o dialog.Outcome) string {
	switch o.Notice {
	case dialog.NoticeItemAdded:
		if o.Session.PendingOrder == nil {
			return ""
		}
		return fmt.Sprintf("➕ Đã thêm sản phẩm thứ %d vào đơn.", len(o.Session.PendingOrder.Items))
	case dialog.NoticeMerged:
		return "🔗 Đã gộp số lượng vào sản phẩm có sẵn."
	case dialog.NoticeDiscarded:
		return "🗑 Đã bỏ sản phẩm trùng."
	}
	return ""
}

func (c *Composer) askMerge(o dialog.Outcome) domain.Reply {
	item := current(o.Session)
	text := "⚠️ SẢN PHẨM ĐÃ CÓ TRONG ĐƠN"
	if o.Duplicate != nil {
		text = fmt.Sprintf("⚠️ SẢN PHẨM ĐÃ CÓ TRONG ĐƠN\n\n%s (%s) đang có số lượng %d.\nBạn vừa nhập thêm %d tấm.",
			o.Duplicate.ProductCode, o.Duplicate.Dimensions(), o.Duplicate.Quantity, item.Quantity)
	}
	return domain.Reply{
		Text: text + "\n\n🤔 Gộp số lượng hay bỏ sản phẩm mới?",
		Buttons: []domain.Button{
			query("🔗 Gộp", PayloadMerge),
			query("🗑 Bỏ sản phẩm mới", PayloadDiscard),
			query("❌ Hủy", PayloadCancel),
		},
	}
}

func (c *Composer) orderCreated(o dialog.Outcome) domain.Reply {
	var b strings.Builder
	b.WriteString("🎉 ĐẶT HÀNG THÀNH CÔNG!\n\n")
	buttons := []domain.Button{query("🛒 Đặt hàng mới", PayloadNewOrder)}

	switch {
	case o.Created != nil:
		fmt.Fprintf(&b, "🧾 Mã đơn hàng: %s\n\n", o.Created.OrderCode)
		for _, line := range o.Created.Lines {
			fmt.Fprintf(&b, "• %s (%s) x%d = %s VNĐ\n", line.ProductCode, line.Dimensions, line.Quantity, FormatMoney(line.TotalPrice))
		}
		fmt.Fprintf(&b, "\n💰 Tổng tiền: %s VNĐ", FormatMoney(o.Created.TotalAmount))
		buttons = append([]domain.Button{query("📋 Chi tiết đơn hàng", PayloadOrderDetail+o.Created.OrderCode)}, buttons...)
	case o.Order != nil:
		for _, item := range o.Order.Items {
			fmt.Fprintf(&b, "• %s (%s) x%d\n", item.ProductCode, item.Dimensions(), item.Quantity)
		}
	}
	return domain.Reply{Text: strings.TrimRight(b.String(), "\n"), Buttons: buttons}
}

func (c *Composer) orderDetail(o dialog.Outcome) domain.Reply {
	buttons := []domain.Button{query("📋 Đơn hàng của tôi", PayloadListOrders), c.call("📞 Gọi hỗ trợ")}
	if o.Tracked == nil {
		return domain.Reply{Text: fmt.Sprintf("🔍 ĐANG TRA CỨU ĐƠN HÀNG: %s", o.OrderCode), Buttons: buttons}
	}

	t := o.Tracked
	var b strings.Builder
	fmt.Fprintf(&b, "🧾 ĐƠN HÀNG %s\n\n", t.OrderCode)
	fmt.Fprintf(&b, "📅 Ngày đặt: %s\n", t.OrderDate.Format("02/01/2006"))
	fmt.Fprintf(&b, "📌 Trạng thái: %s\n", t.Status)
	if t.DeliveryStatus != "" {
		fmt.Fprintf(&b, "🚚 Giao hàng: %s\n", t.DeliveryStatus)
	}
	for _, line := range t.Lines {
		fmt.Fprintf(&b, "• %s (%s) x%d = %s VNĐ\n", line.ProductCode, line.Dimensions, line.Quantity, FormatMoney(line.TotalPrice))
	}
	fmt.Fprintf(&b, "\n💰 Tổng tiền: %s VNĐ", FormatMoney(t.TotalAmount))
	return domain.Reply{Text: b.String(), Buttons: buttons}
}

func (c *Composer) orderList(o dialog.Outcome) domain.Reply {
	if len(o.Orders) == 0 {
		return domain.Reply{
			Text:    "📋 Bạn chưa có đơn hàng nào.\n\n💡 Bạn có thể đặt hàng mới ngay!",
			Buttons: []domain.Button{query("🛒 Đặt hàng mới", PayloadNewOrder), c.call("📞 Liên hệ")},
		}
	}

	var b strings.Builder
	b.WriteString("📋 ĐƠN HÀNG CỦA BẠN\n")
	var buttons []domain.Button
	for i, summary := range o.Orders {
		fmt.Fprintf(&b, "\n%d. %s - %s - %s - %s VNĐ", i+1, summary.OrderCode,
			summary.OrderDate.Format("02/01/2006"), summary.Status, FormatMoney(summary.TotalAmount))
		if i < maxListedOrders {
			buttons = append(buttons, query("🔍 "+summary.OrderCode, PayloadOrderDetail+summary.OrderCode))
		}
	}
	buttons = append(buttons, query("🛒 Đặt hàng mới", PayloadNewOrder))
	return domain.Reply{Text: b.String(), Buttons: buttons}
}

func cancelHelp() []domain.Button {
	return []domain.Button{query("❌ Hủy", PayloadCancel), query("❓ Hướng dẫn", PayloadHelp)}
}

func cancelBack() []domain.Button {
	return []domain.Button{query("❌ Hủy", PayloadCancel), query("🔙 Quay lại", PayloadBack)}
}

func confirmButtons() []domain.Button {
	return []domain.Button{
		query("✅ Xác nhận", PayloadConfirm),
		query("➕ Thêm sản phẩm", PayloadAddItem),
		query("❌ Hủy", PayloadCancel),
	}
}

func current(s *domain.ConversationSession) domain.PartialOrderItem {
	if s == nil || s.PendingOrder == nil || s.PendingOrder.CurrentItem == nil {
		return domain.PartialOrderItem{}
	}
	return *s.PendingOrder.CurrentItem
}

func itemNumber(s *domain.ConversationSession) int {
	if s == nil || s.PendingOrder == nil {
		return 1
	}
	return len(s.PendingOrder.Items) + 1
}

func pendingLines(s *domain.ConversationSession) string {
	var lines []string
	if s != nil && s.PendingOrder != nil {
		for i, item := range s.PendingOrder.Items {
			lines = append(lines, fmt.Sprintf("%d. %s (%s) x%d", i+1, item.ProductCode, item.Dimensions(), item.Quantity))
		}
	}
	item := current(s)
	lines = append(lines, fmt.Sprintf("%d. %s (%sx%sx%s) x%d", len(lines)+1,
		item.ProductCode, item.Height, item.Width, item.Thickness.Decimal.String(), item.Quantity))
	return strings.Join(lines, "\n")
}

// FormatMoney renders an amount rounded to whole dong with dot separators
func FormatMoney(amount decimal.Decimal) string {
	digits := amount.Round(0).Abs().StringFixed(0)
	var b strings.Builder
	if amount.Round(0).IsNegative() {
		b.WriteByte('-')
	}
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return b.String()
}
