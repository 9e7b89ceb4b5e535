package i18n

// messages 各语言文案表
var messages = map[string]map[string]string{
	LocaleZH: {
		"error.bad_request":             "请求参数有误",
		"error.unauthorized":            "未授权或登录已过期",
		"error.forbidden":               "没有操作权限",
		"error.not_found":               "资源不存在",
		"error.internal":                "服务器内部错误",
		"error.service_unavailable":     "服务暂不可用，请稍后重试",
		"error.email_invalid":           "邮箱格式不正确",
		"error.code_invalid":            "验证码格式不正确",
		"error.code_invalid_or_expired": "验证码无效或已过期",
		"error.rate_limited":            "请求过于频繁，请 %d 秒后重试",
		"error.rate_limit_unavailable":  "限流服务暂不可用",
		"error.delivery_failed":         "验证码邮件发送失败，请稍后重试",
		"error.email_service_not_configured": "邮件服务未配置",
		"error.captcha_required":        "请先完成图形验证码",
		"error.captcha_invalid":         "图形验证码不正确",
		"error.captcha_unavailable":     "图形验证码服务不可用",
		"error.captcha_generate_failed": "图形验证码生成失败",
		"error.user_id_invalid":         "用户标识无效",
		"error.user_id_type_invalid":    "用户标识类型错误",
		"error.session_invalid":         "登录状态无效，请重新登录",
		"error.user_disabled":           "账号已被停用",
		"error.role_insufficient":       "当前账号无权执行该操作",
		"error.listing_not_found":       "房源不存在",
		"error.user_not_found":          "用户不存在",
		"error.review_not_found":        "点评不存在",
		"error.review_duplicate":        "您已点评过该房源",
		"error.rating_invalid":          "评分必须在 1 到 5 之间",
		"error.contact_edit_not_found":  "修改申请不存在",
		"error.contact_edit_pending":    "该字段已有待审核的修改申请",
		"error.contact_field_invalid":   "不支持修改该联系字段",
		"error.status_transition":       "当前状态不允许该操作",
		"error.telemetry_unavailable":   "安全遥测数据暂不可用",
		"auth.otp.sent":                 "如果该邮箱可以登录，我们已发送验证码",
		"auth.otp.email.subject":        "RoomNest 登录验证码",
		"auth.otp.email.body":           "您的登录验证码是：%s\n\n验证码 %d 分钟内有效，请勿泄露。\n也可以直接点击链接完成登录：\n%s",
		"email.moderation.subject":      "有新的内容等待审核",
		"email.moderation.body":         "类型：%s\n对象：%s\n\n请登录管理后台处理。",
	},
	LocaleTW: {
		"error.bad_request":             "請求參數有誤",
		"error.unauthorized":            "未授權或登入已過期",
		"error.forbidden":               "沒有操作權限",
		"error.not_found":               "資源不存在",
		"error.internal":                "伺服器內部錯誤",
		"error.service_unavailable":     "服務暫不可用，請稍後重試",
		"error.email_invalid":           "郵箱格式不正確",
		"error.code_invalid":            "驗證碼格式不正確",
		"error.code_invalid_or_expired": "驗證碼無效或已過期",
		"error.rate_limited":            "請求過於頻繁，請 %d 秒後重試",
		"error.rate_limit_unavailable":  "限流服務暫不可用",
		"error.delivery_failed":         "驗證碼郵件發送失敗，請稍後重試",
		"error.email_service_not_configured": "郵件服務未配置",
		"error.captcha_required":        "請先完成圖形驗證碼",
		"error.captcha_invalid":         "圖形驗證碼不正確",
		"error.captcha_unavailable":     "圖形驗證碼服務不可用",
		"error.captcha_generate_failed": "圖形驗證碼生成失敗",
		"error.user_id_invalid":         "用戶標識無效",
		"error.user_id_type_invalid":    "用戶標識類型錯誤",
		"error.session_invalid":         "登入狀態無效，請重新登入",
		"error.user_disabled":           "帳號已被停用",
		"error.role_insufficient":       "當前帳號無權執行該操作",
		"error.listing_not_found":       "房源不存在",
		"error.user_not_found":          "用戶不存在",
		"error.review_not_found":        "點評不存在",
		"error.review_duplicate":        "您已點評過該房源",
		"error.rating_invalid":          "評分必須在 1 到 5 之間",
		"error.contact_edit_not_found":  "修改申請不存在",
		"error.contact_edit_pending":    "該欄位已有待審核的修改申請",
		"error.contact_field_invalid":   "不支持修改該聯繫欄位",
		"error.status_transition":       "當前狀態不允許該操作",
		"error.telemetry_unavailable":   "安全遙測數據暫不可用",
		"auth.otp.sent":                 "如果該郵箱可以登入，我們已發送驗證碼",
		"auth.otp.email.subject":        "RoomNest 登入驗證碼",
		"auth.otp.email.body":           "您的登入驗證碼是：%s\n\n驗證碼 %d 分鐘內有效，請勿洩露。\n也可以直接點擊連結完成登入：\n%s",
		"email.moderation.subject":      "有新的內容等待審核",
		"email.moderation.body":         "類型：%s\n對象：%s\n\n請登入管理後台處理。",
	},
	LocaleEN: {
		"error.bad_request":             "Invalid request parameters",
		"error.unauthorized":            "Unauthorized or session expired",
		"error.forbidden":               "Permission denied",
		"error.not_found":               "Resource not found",
		"error.internal":                "Internal server error",
		"error.service_unavailable":     "Service temporarily unavailable, please retry later",
		"error.email_invalid":           "Invalid email address",
		"error.code_invalid":            "Invalid code format",
		"error.code_invalid_or_expired": "Invalid or expired code",
		"error.rate_limited":            "Too many requests, retry in %d seconds",
		"error.rate_limit_unavailable":  "Rate limiting temporarily unavailable",
		"error.delivery_failed":         "Failed to send the code email, please retry later",
		"error.email_service_not_configured": "Email service is not configured",
		"error.captcha_required":        "Captcha required",
		"error.captcha_invalid":         "Invalid captcha",
		"error.captcha_unavailable":     "Captcha service unavailable",
		"error.captcha_generate_failed": "Failed to generate captcha",
		"error.user_id_invalid":         "Invalid user identifier",
		"error.user_id_type_invalid":    "Unexpected user identifier type",
		"error.session_invalid":         "Invalid session, please sign in again",
		"error.user_disabled":           "Account has been disabled",
		"error.role_insufficient":       "Your account is not allowed to do this",
		"error.listing_not_found":       "Listing not found",
		"error.user_not_found":          "User not found",
		"error.review_not_found":        "Review not found",
		"error.review_duplicate":        "You already reviewed this listing",
		"error.rating_invalid":          "Rating must be between 1 and 5",
		"error.contact_edit_not_found":  "Edit request not found",
		"error.contact_edit_pending":    "A pending edit request already exists for this field",
		"error.contact_field_invalid":   "This contact field cannot be changed",
		"error.status_transition":       "Operation not allowed in the current status",
		"error.telemetry_unavailable":   "Security telemetry is temporarily unavailable",
		"auth.otp.sent":                 "If this email can sign in, we have sent a code",
		"auth.otp.email.subject":        "Your RoomNest sign-in code",
		"auth.otp.email.body":           "Your sign-in code is: %s\n\nThe code expires in %d minutes. Do not share it.\nYou can also sign in directly via this link:\n%s",
		"email.moderation.subject":      "New content awaiting moderation",
		"email.moderation.body":         "Type: %s\nSubject: %s\n\nPlease sign in to the admin console to handle it.",
	},
}
