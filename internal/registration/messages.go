package registration

// User-facing texts. The bot speaks Persian; labels double as reply
// keyboard buttons so they must match what the menu sends back.
const (
	MenuLabelGame        = "🎮 بازی"
	MenuLabelStats       = "📊 آمار من"
	MenuLabelLeaderboard = "🏆 جدول امتیازات"

	GameButtonLabel    = "🎮 شروع بازی مار یلدایی"
	ContactButtonLabel = "📱 ارسال شماره تماس"

	placeholderName = "بازیکن ناشناس"

	msgAskFirstName = "سلام! 👋\n\nبه چالش مار یلدایی اداره کل رفاه و درمان خوش آمدید 🎮\n🌙 شب یلدا مبارک!\n\nبرای ثبت‌نام، لطفاً نام خود را ارسال کنید:"
	msgAskLastName  = "✅ نام ثبت شد.\n\nحالا لطفاً نام خانوادگی خود را ارسال کنید:"
	msgAskCode      = "✅ نام خانوادگی ثبت شد.\n\nحالا لطفاً کد استخدامی خود را ارسال کنید:"
	msgAskContact   = "✅ کد استخدامی ثبت شد.\n\nحالا لطفاً با دکمه زیر شماره تماس خود را به اشتراک بگذارید:"

	msgFirstNameTooShort = "❌ نام باید حداقل ۲ حرف باشد. لطفاً دوباره وارد کنید:"
	msgLastNameTooShort  = "❌ نام خانوادگی باید حداقل ۲ حرف باشد. لطفاً دوباره وارد کنید:"
	msgCodeTooShort      = "❌ کد استخدامی نامعتبر است. لطفاً دوباره وارد کنید:"
	msgContactNotText    = "❌ لطفاً به جای تایپ کردن، از دکمه «ارسال شماره تماس» استفاده کنید."
	msgContactNoPhone    = "❌ شماره تماس دریافت نشد. لطفاً دوباره از دکمه استفاده کنید:"

	msgRegisterFailed = "❌ ثبت‌نام انجام نشد. لطفاً با ارسال /start دوباره تلاش کنید."
	msgSendStart      = "لطفاً دستور /start را ارسال کنید تا شروع کنیم."
	msgBackendDown    = "❌ در حال حاضر امکان دریافت اطلاعات نیست. لطفاً کمی بعد دوباره تلاش کنید."

	msgGameIntro = "🎮 <b>چالش مار یلدایی</b>\n\nبازی مار یلدایی آماده است!\nبرای شروع بازی روی دکمه زیر کلیک کنید.\n\n🍎 سیب = 10 امتیاز\n🍉 هندوانه = 20 امتیاز\n🍇 انار = 30 امتیاز\n\n✨ شادابی و سلامت در سایه رفاه ✨"

	msgHelp = "راهنما:\n🎮 بازی — شروع بازی مار یلدایی\n📊 آمار من — نمایش امتیازات شما\n🏆 جدول امتیازات — ده نفر برتر\n\nبرای شروع دوباره /start را ارسال کنید."
)

func welcomeBack(firstName string) string {
	if firstName == "" || firstName == "pending" {
		firstName = "کاربر"
	}
	return "سلام " + firstName + " عزیز! 👋\n\nشما قبلاً ثبت‌نام کرده‌اید. از منوی زیر استفاده کنید:"
}

func registrationDone(conv Conversation, phone string) string {
	return "✅ <b>ثبت‌نام با موفقیت انجام شد!</b>\n\n📋 اطلاعات شما:\n• نام: " + conv.FirstName + " " + conv.LastName +
		"\n• کد استخدامی: " + conv.EmployeeCode +
		"\n• شماره تماس: " + phone +
		"\n\nحالا می‌توانید بازی را شروع کنید! 🎮"
}
