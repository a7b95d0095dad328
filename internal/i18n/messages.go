package i18n

var messages = map[string]map[string]string{
	LocaleEN: {
		"error.bad_request":                 "Invalid request parameters",
		"error.unauthorized":                "Please sign in first",
		"error.not_found":                   "Resource not found",
		"error.internal":                    "Internal server error",
		"error.rate_limited":                "Too many requests, please retry in %d seconds",
		"error.login_rate_limited":          "Too many login attempts, please retry in %d seconds",
		"error.checkout_rate_limited":       "Too many checkout attempts, please retry in %d seconds",
		"error.rate_limit_unavailable":      "Rate limiter unavailable",
		"error.login_invalid":               "Invalid username or password",
		"error.token_invalid":               "Session expired, please sign in again",
		"error.cart_session_required":       "Cart session is required",
		"error.cart_empty":                  "Your cart is empty",
		"error.cart_item_invalid":           "Cart item is invalid",
		"error.cart_item_not_found":         "Cart item not found",
		"error.cart_unavailable":            "Cart is temporarily unavailable",
		"error.product_unavailable":         "Product is unavailable",
		"error.customer_name_required":      "Name is required",
		"error.customer_phone_required":     "Phone number is required",
		"error.customer_address_required":   "Delivery address is required",
		"error.delivery_location_required":  "Please pick the delivery location on the map",
		"error.order_type_invalid":          "Order type is invalid",
		"error.payment_method_invalid":      "Payment method is invalid",
		"error.gateway_amount_not_whole":    "Online payment requires whole-rupiah prices",
		"error.checkout_in_progress":        "Checkout is already in progress for this cart",
		"error.branch_not_found":            "Branch not found",
		"error.store_closed":                "Ordering is closed right now, opening hours are %02d:00 to %02d:00",
		"error.order_not_found":             "Order not found",
		"error.order_status_invalid":        "Order status transition is not allowed",
		"error.order_status_conflict":       "Order was updated by someone else, please refresh",
		"error.order_create_failed":         "Failed to place the order, your cart was kept",
		"error.order_fetch_failed":          "Failed to load the order",
		"error.order_update_failed":         "Failed to update the order",
		"error.order_not_pending":           "Order is no longer awaiting payment",
		"error.payment_method_not_gateway":  "Order does not use online payment",
		"error.payment_gateway_unavailable": "Payment service is unavailable, please retry",
		"error.payment_failed":              "Payment request failed, please retry",
		"error.payment_signature_invalid":   "Payment notification signature is invalid",
		"error.payment_amount_mismatch":     "Payment amount does not match the order",
		"error.geocode_query_invalid":       "Address query is too short",
		"error.geocode_unavailable":         "Address lookup is unavailable",
		"error.geocode_superseded":          "A newer address lookup replaced this one",
		"error.settings_invalid":            "Settings are invalid",
		"error.save_failed":                 "Failed to save",
		"error.realtime_unavailable":        "Live updates are unavailable, please refresh",
		"error.qrcode_failed":               "Failed to generate QR code",
		"assisted.message":                  "Hello, I would like to confirm my order %s for a total of %s %s.",
	},
	LocaleID: {
		"error.bad_request":                 "Parameter permintaan tidak valid",
		"error.unauthorized":                "Silakan masuk terlebih dahulu",
		"error.not_found":                   "Data tidak ditemukan",
		"error.internal":                    "Terjadi kesalahan pada server",
		"error.rate_limited":                "Terlalu banyak permintaan, coba lagi dalam %d detik",
		"error.login_rate_limited":          "Terlalu banyak percobaan masuk, coba lagi dalam %d detik",
		"error.checkout_rate_limited":       "Terlalu banyak percobaan checkout, coba lagi dalam %d detik",
		"error.rate_limit_unavailable":      "Pembatas permintaan tidak tersedia",
		"error.login_invalid":               "Nama pengguna atau kata sandi salah",
		"error.token_invalid":               "Sesi berakhir, silakan masuk kembali",
		"error.cart_session_required":       "Sesi keranjang wajib diisi",
		"error.cart_empty":                  "Keranjang Anda kosong",
		"error.cart_item_invalid":           "Item keranjang tidak valid",
		"error.cart_item_not_found":         "Item keranjang tidak ditemukan",
		"error.cart_unavailable":            "Keranjang sementara tidak tersedia",
		"error.product_unavailable":         "Produk tidak tersedia",
		"error.customer_name_required":      "Nama wajib diisi",
		"error.customer_phone_required":     "Nomor telepon wajib diisi",
		"error.customer_address_required":   "Alamat pengiriman wajib diisi",
		"error.delivery_location_required":  "Silakan pilih lokasi pengiriman di peta",
		"error.order_type_invalid":          "Jenis pesanan tidak valid",
		"error.payment_method_invalid":      "Metode pembayaran tidak valid",
		"error.gateway_amount_not_whole":    "Pembayaran online memerlukan harga dalam rupiah bulat",
		"error.checkout_in_progress":        "Checkout untuk keranjang ini sedang diproses",
		"error.branch_not_found":            "Cabang tidak ditemukan",
		"error.store_closed":                "Pemesanan sedang tutup, jam buka %02d:00 sampai %02d:00",
		"error.order_not_found":             "Pesanan tidak ditemukan",
		"error.order_status_invalid":        "Perubahan status pesanan tidak diizinkan",
		"error.order_status_conflict":       "Pesanan sudah diperbarui, silakan muat ulang",
		"error.order_create_failed":         "Gagal membuat pesanan, keranjang Anda tetap tersimpan",
		"error.order_fetch_failed":          "Gagal memuat pesanan",
		"error.order_update_failed":         "Gagal memperbarui pesanan",
		"error.order_not_pending":           "Pesanan tidak lagi menunggu pembayaran",
		"error.payment_method_not_gateway":  "Pesanan tidak menggunakan pembayaran online",
		"error.payment_gateway_unavailable": "Layanan pembayaran tidak tersedia, silakan coba lagi",
		"error.payment_failed":              "Permintaan pembayaran gagal, silakan coba lagi",
		"error.payment_signature_invalid":   "Tanda tangan notifikasi pembayaran tidak valid",
		"error.payment_amount_mismatch":     "Jumlah pembayaran tidak sesuai dengan pesanan",
		"error.geocode_query_invalid":       "Kata kunci alamat terlalu pendek",
		"error.geocode_unavailable":         "Pencarian alamat tidak tersedia",
		"error.geocode_superseded":          "Pencarian alamat digantikan oleh pencarian yang lebih baru",
		"error.settings_invalid":            "Pengaturan tidak valid",
		"error.save_failed":                 "Gagal menyimpan",
		"error.realtime_unavailable":        "Pembaruan langsung tidak tersedia, silakan muat ulang",
		"error.qrcode_failed":               "Gagal membuat kode QR",
		"assisted.message":                  "Halo, saya ingin konfirmasi pesanan %s dengan total %s %s.",
	},
	LocaleZH: {
		"error.bad_request":                 "请求参数错误",
		"error.unauthorized":                "请先登录",
		"error.not_found":                   "资源不存在",
		"error.internal":                    "服务器内部错误",
		"error.rate_limited":                "请求过于频繁，请 %d 秒后重试",
		"error.login_rate_limited":          "登录尝试过多，请 %d 秒后重试",
		"error.checkout_rate_limited":       "下单过于频繁，请 %d 秒后重试",
		"error.rate_limit_unavailable":      "限流服务不可用",
		"error.login_invalid":               "用户名或密码错误",
		"error.token_invalid":               "登录已失效，请重新登录",
		"error.cart_session_required":       "缺少购物车会话",
		"error.cart_empty":                  "购物车为空",
		"error.cart_item_invalid":           "购物车商品无效",
		"error.cart_item_not_found":         "购物车商品不存在",
		"error.cart_unavailable":            "购物车暂不可用",
		"error.product_unavailable":         "商品不可用",
		"error.customer_name_required":      "请填写姓名",
		"error.customer_phone_required":     "请填写手机号",
		"error.customer_address_required":   "请填写配送地址",
		"error.delivery_location_required":  "请在地图上选择配送位置",
		"error.order_type_invalid":          "订单类型无效",
		"error.payment_method_invalid":      "支付方式无效",
		"error.gateway_amount_not_whole":    "在线支付要求金额为整数",
		"error.checkout_in_progress":        "该购物车正在结算中",
		"error.branch_not_found":            "门店不存在",
		"error.store_closed":                "当前不在营业时间，营业时间 %02d:00 至 %02d:00",
		"error.order_not_found":             "订单不存在",
		"error.order_status_invalid":        "订单状态不允许变更",
		"error.order_status_conflict":       "订单已被更新，请刷新后重试",
		"error.order_create_failed":         "下单失败，购物车已保留",
		"error.order_fetch_failed":          "订单加载失败",
		"error.order_update_failed":         "订单更新失败",
		"error.order_not_pending":           "订单已不在待支付状态",
		"error.payment_method_not_gateway":  "订单未使用在线支付",
		"error.payment_gateway_unavailable": "支付服务暂不可用，请重试",
		"error.payment_failed":              "支付请求失败，请重试",
		"error.payment_signature_invalid":   "支付回调签名无效",
		"error.payment_amount_mismatch":     "支付金额与订单不一致",
		"error.geocode_query_invalid":       "地址关键词过短",
		"error.geocode_unavailable":         "地址检索不可用",
		"error.geocode_superseded":          "已有更新的地址检索",
		"error.settings_invalid":            "配置无效",
		"error.save_failed":                 "保存失败",
		"error.realtime_unavailable":        "实时推送不可用，请刷新页面",
		"error.qrcode_failed":               "二维码生成失败",
		"assisted.message":                  "您好，我想确认订单 %s，合计 %s %s。",
	},
}
