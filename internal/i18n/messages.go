package i18n

// persian maps English messages to their Persian translations.
var persian = map[string]string{
	"Contact %s created":        "مخاطب %s ایجاد شد",
	"Contact %s updated":        "مخاطب %s به‌روزرسانی شد",
	"Contact %s deleted":        "مخاطب %s حذف شد",
	"contact not found":         "مخاطب یافت نشد",
	"No contacts found":         "هیچ مخاطبی یافت نشد",
	"Contacts fetched":          "مخاطبین دریافت شدند",
	"Failed to fetch contacts":  "دریافت مخاطبین ناموفق بود",
	"Failed to search contacts": "جستجوی مخاطبین ناموفق بود",
	"Failed to update contact":  "به‌روزرسانی مخاطب ناموفق بود",
	"Failed to delete contact":  "حذف مخاطب ناموفق بود",

	"User registered successfully": "کاربر با موفقیت ثبت شد",
	"Login successful":             "ورود با موفقیت انجام شد",
	"Token refreshed":              "توکن تازه‌سازی شد",
	"Logged out successfully":      "خروج با موفقیت انجام شد",

	"invalid credentials":                     "ایمیل یا رمز عبور نادرست است",
	"user already exists":                     "کاربری با این ایمیل از قبل وجود دارد",
	"refresh token is required":               "توکن تازه‌سازی الزامی است",
	"invalid or expired refresh token":        "توکن تازه‌سازی نامعتبر یا منقضی شده است",
	"no token provided":                       "توکنی ارسال نشده است",
	"invalid or expired token":                "توکن نامعتبر یا منقضی شده است",
	"invalid token type, use an access token": "نوع توکن نامعتبر است، از توکن دسترسی استفاده کنید",
	"insufficient permissions":                "دسترسی کافی ندارید",
	"forbidden: not owner":                    "دسترسی غیرمجاز: شما مالک این مخاطب نیستید",
	"user not found":                          "کاربر یافت نشد",
	"invalid request body":                    "بدنه درخواست نامعتبر است",
	"invalid contact id":                      "شناسه مخاطب نامعتبر است",
	"internal server error":                   "خطای داخلی سرور",
	"rate limit exceeded":                     "تعداد درخواست‌ها بیش از حد مجاز است",
	"request timed out":                       "زمان درخواست به پایان رسید",
	"route not found":                         "مسیر یافت نشد",
	"method not allowed":                      "متد مجاز نیست",
}
