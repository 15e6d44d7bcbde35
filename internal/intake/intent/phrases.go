package intent

// Built-in phrase sets. Patterns match folded text: lower case, no
// diacritics, đ written as d, single spaces.
var phrases = map[Intent][]string{
	StartSession: {
		`^(bat dau|bat dau lai|start|restart)$`,
	},
	EndSession: {
		`^(ket thuc|ket thuc phien|end|tam biet|bye)$`,
	},
	Register: {
		`^(dang ky|register)\b`,
	},
	Cancel: {
		`^(huy|huy bo|huy dat hang|huy don|huy don hang|cancel)$`,
	},
	Back: {
		`^(quay lai|quay lai buoc truoc|tro lai|back)$`,
	},
	Merge: {
		`^(gop|gop san pham|gop so luong|cong don|merge)$`,
	},
	Discard: {
		`^(bo|bo san pham moi|bo qua|discard)$`,
	},
	Confirm: {
		`^(xac nhan|xac nhan dat hang|dong y|confirm)$`,
	},
	AddItem: {
		`^(them|them san pham|them mat hang|add|add item)$`,
	},
	TrackOrder: {
		`(theo doi|track|kiem tra) ?(don hang|don|order)`,
		`(chi tiet|detail) ?(don hang|don|order)`,
		`(tinh trang|status) ?(don hang|don|order)`,
	},
	ListOrders: {
		`(danh sach|list) ?(don hang|order)`,
		`(lich su|history) ?(dat hang|don hang|order)`,
		`(don hang|order) ?(cua toi|my)`,
		`^my orders?$`,
	},
	StartOrder: {
		`^(dat hang|order)( moi| tung buoc)?$`,
		`^bat dau dat hang$`,
		`^new order$`,
	},
	Help: {
		`^(help|huong dan|huong dan dat hang|ho tro|tro giup|giup do|can ho tro)[?!. ]*$`,
		`^\?+$`,
	},
}
