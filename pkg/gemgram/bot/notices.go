// Package bot – notices.go holds the fixed user-facing reply strings.
// The assistant addresses its users in Burmese; each backend outcome and
// command result maps to exactly one of these.
package bot

// Persona is the system instruction sent with every completion request.
const Persona = "သင်သည် မြန်မာဘာသာစကားကို အဓိကအသုံးပြုသော AI ဖြစ်သည်။"

const (
	// NoticeQuotaExceeded prefixes the reply when grounding was requested
	// but the shared daily quota is spent.
	NoticeQuotaExceeded = "⚠️ တောင်းပန်ပါတယ်၊ ယနေ့အတွက် အချက်အလက်ရှာဖွေမှု (Grounding) Quota ပြည့်သွားပါပြီ။ မနက်ဖြန်နောက်ထပ်ရှာဖွေမှုများ ပြန်လည်အသုံးပြုနိုင်ပါလိမ့်မည်။"

	// NoticeGenericError is the fallback for empty, candidate-less and
	// transport failures; a short diagnostic tag is appended in parentheses.
	NoticeGenericError = "တောင်းပန်ပါတယ်၊ အကြောင်းပြန်ဖို့ အဆင်မပြေဖြစ်နေပါတယ်။"

	// NoticeSafetyBlocked is sent when the prompt or candidate was blocked.
	NoticeSafetyBlocked = "တောင်းပန်ပါသည်။ ဤအကြောင်းအရာသည် လုံခြုံရေးအရ မသင့်လျော်ပါဟု Gemini မှတားမြစ်ထားပါသည်။"

	// NoticeBadRequest is sent when the backend rejected the request.
	NoticeBadRequest = "Gemini API Error: မမှန်ကန်သော တောင်းဆိုမှု။"

	// NoticeResetDone confirms a successful history wipe.
	NoticeResetDone = "သင့်မှတ်ဉာဏ်ကို ရှင်းလင်းပြီးပါပြီ။"

	// NoticeResetError reports a failed history wipe.
	NoticeResetError = "⚠️ မှတ်ဉာဏ်ရှင်းလင်းရာတွင် အမှား ဖြစ်ပွားပါသည်။"

	// NoticeMediaUnsupported is sent for media-only messages.
	NoticeMediaUnsupported = "ℹ️ စာသား message များကိုသာ လက်ခံပါသည်။"
)
