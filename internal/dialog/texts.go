package dialog

import (
	"strings"

	"github.com/olimjon10111985/asralashm/internal/session"
	"github.com/olimjon10111985/asralashm/internal/storage"
)

// Button labels shown on reply keyboards.
const (
	ButtonSearch     = "🧠< Sun'iy ong odamlarini qidirish >"
	ButtonRegister   = "🆕< Hisob yaratish >"
	ButtonLogin      = "🔐< Hisobga kirish >"
	ButtonNoAccount  = "🆕< Hisobim yo'q >"
	ButtonNewEntry   = "📝< Yangi ma'lumot yozish >"
	ButtonDelete     = "🗑< Hisobni o'chirish >"
	ButtonBack       = "⬅️< Ortga >"
	ButtonStart      = "/start"
	ButtonJoin       = "🔔 Kanalga obuna bo'lish"
)

const mainMenuToken = "asosiy menyu"

// matches accepts a button label or its bare wording, case-insensitively.
func matches(text, label, bare string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return t == strings.ToLower(label) || t == bare
}

func isBack(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "ortga", "⬅️ ortga", strings.ToLower(ButtonBack):
		return true
	}
	return false
}

func isMainMenu(text string) bool {
	return strings.ToLower(strings.TrimSpace(text)) == mainMenuToken
}

const (
	AboutText = "Bu bot inson ongini raqamlash g'oyasiga xizmat qiladi. Siz bu yerda o'zingiz haqingizda fikrlaringizni, " +
		"xotiralar, rejalar va hayotga qarashlaringizni matn ko'rinishida yozib borasiz. Bu yozuvlar oddiy kundalik " +
		"emas, ular sizning shaxsiy sun'iy ongingiz uchun xomashyo hisoblanadi.\n\n" +
		"Vaqt o'tib, boshqa odamlar sizning nickingizni topib, savollar berishi mumkin. AI esa aynan shu yerda " +
		"qoldirgan matnlaringizga tayanib, sizning ovozingizda javob berishga harakat qiladi. Maqsad: bugungi " +
		"ongingizni raqamli xotira sifatida kelajak avlodlar va yaqinlaringiz uchun saqlab qolish."

	textGreeting = "Salom, %s! Bu bot sizning ongingizni raqamlash va shaxsiy sun'iy ong yaratish uchun.\n" +
		"Miyangizda bor fikrlar, xotiralar va tasavvurlaringizni yozing, shular asosida sizga o'xshash raqamli ong shakllanadi.\n" +
		"Quyidagi tugmalardan birini tanlab boshlang:"
	textJoin = "Botdan foydalanish uchun avval kanalimizga obuna bo'ling:\n\n" +
		"Kanal: %s\n\n" +
		"Obuna bo'lgach, pastdagi /start tugmasini bosib davom eting."
	textJoinButton  = "Quyidagi tugma orqali ham kanalga o'tishingiz mumkin:"
	textMainMenu    = "Asosiy menyu:"
	textUseMenu     = "Iltimos menyudagi tugmalardan foydalaning."
	textCancelled   = "Bekor qilindi."
	textTextOnly    = "Iltimos, faqat matnli xabar yuboring. Rasm, ovozli xabar, video yoki boshqa fayllarni qabul qilmayman."
	textRegWarning  = "Agar ilgari hisob ochgan bo'lsangiz, qayta hisob yaratmang. Taxallus (nickname) va parolingiz bilan 'Hisobga kirish' tugmasi orqali kirishingiz mumkin.\n\nAgar hali hisobingiz bo'lmasa, 'Hisobim yo'q' tugmasini bosing."
	textAskName     = "Ismingizni kiriting:"
	textAskSurname  = "Familiyangizni kiriting:"
	textAskHandle   = "O'zingiz uchun yagona taxallus (nickname) tanlang:"
	textAskPassword = "Parol kiriting (minimal 4 belgi):"
	textShortPass   = "Parol juda qisqa, kamida 4 belgi bo'lsin. Qayta kiriting:"
	textLongPass    = "Parol juda uzun, qisqaroq parol kiriting (lotin harflarida ko'pi bilan 72 belgi):"
	textHandleTaken = "Bu taxallus (nickname) allaqachon band. Iltimos boshqa taxallus tanlang."
	textRegFailed   = "Hisob yaratishda xatolik yuz berdi. Birozdan keyin qayta urinib ko'ring."
	textRegDone     = "Hisob muvaffaqiyatli yaratildi! Taxallus (nickname) va parolingizni eslab qoling. Endi hisobga kira olasiz. Hisobga kirish tugmasini bosing"

	textAskLoginHandle = "Taxallus (nickname) kiriting:"
	textAskLoginPass   = "Parolingizni kiriting:"
	textNoSuchHandle   = "Bunday nik topilmadi."
	textWrongPassword  = "Parol noto'g'ri."
	textLoggedIn       = "Hisobga muvaffaqiyatli kirdingiz. Profil menyusidan tugmani tanlang:"

	textProfileMenu     = "Profil menyusidan tanlang:"
	textUseProfileMenu  = "Iltimos profil menyusidagi tugmalardan foydalaning."
	textCompose         = "Endi o'zingiz haqingizda matn yozing: kundalik fikrlaringiz, xotiralaringiz, rejalar yoki hayotingizga oid istalgan gaplarni yozib qoldirishingiz mumkin."
	textEntrySaved      = "Yozuvingiz saqlandi. Yana yozishingiz mumkin yoki 'Ortga' tugmasini bosib menyuga qaytishingiz mumkin."
	textAccountMissing  = "Hisob topilmadi. /start ni bosib qayta urinib ko'ring."
	textConfirmDelete   = "Hisobni va barcha yozuvlarni o'chirmoqchimisiz? Iltimos tasdiqlash uchun parolingizni kiriting."
	textDeleteWrongPass = "Parol noto'g'ri. Agar fikringiz o'zgargan bo'lsa, 'Ortga' tugmasini bosishingiz yoki /start ni bosib menyuga qaytishingiz mumkin."
	textDeleted         = "Hisobingiz va barcha kundalik yozuvlaringiz o'chirildi."

	textAskQuery      = "Qidirish uchun ism, familiya yoki taxallus (nickname) kiriting:"
	textNothingFound  = "Hech narsa topilmadi."
	textFoundHeader   = "Topilgan profillarni tanlang:"
	textFoundChoose   = "Quyidagi tugmalardan birini tanlang, shu odamning sun'iy ongi bilan gaplashasiz."
	textProfileGone   = "Profil topilmadi. /start bilan qaytadan urinib ko'ring."
	textChatStarted   = "Endi siz %s bilan gaplashyapsiz. Savolingizni yozing."
	textAskQuestion   = "Savolingizni yozing."
	textSelectInvalid = "Bu tugma hozir faol emas."

	textStoreFailed = "Kechirasiz, xatolik yuz berdi. Birozdan keyin qayta urinib ko'ring."
)

// ProfileLabel renders a profile as shown in search results and chat headers.
// Replies are sent as plain text, so handles need no escaping.
func ProfileLabel(a storage.Account) string {
	return a.Handle + " (" + a.FullName() + ")"
}

// prompt is the canonical re-prompt for a state.
func prompt(st session.State) Reply {
	switch st {
	case session.RegName:
		return Reply{Text: textAskName, Keyboard: session.KeyboardBack}
	case session.RegSurname:
		return Reply{Text: textAskSurname, Keyboard: session.KeyboardBack}
	case session.RegHandle:
		return Reply{Text: textAskHandle, Keyboard: session.KeyboardBack}
	case session.RegPassword:
		return Reply{Text: textAskPassword, Keyboard: session.KeyboardBack}
	case session.LoginHandle:
		return Reply{Text: textAskLoginHandle, Keyboard: session.KeyboardBack}
	case session.LoginPassword:
		return Reply{Text: textAskLoginPass, Keyboard: session.KeyboardBack}
	case session.ProfileMenu:
		return Reply{Text: textProfileMenu, Keyboard: session.KeyboardProfile}
	case session.ProfileAddEntry:
		return Reply{Text: textCompose, Keyboard: session.KeyboardBack}
	case session.DeleteAccountPassword:
		return Reply{Text: textConfirmDelete, Keyboard: session.KeyboardBack}
	case session.SearchQuery:
		return Reply{Text: textAskQuery, Keyboard: session.KeyboardBack}
	case session.ChatWithProfile:
		return Reply{Text: textAskQuestion, Keyboard: session.KeyboardChat}
	default:
		return Reply{Text: textMainMenu, Keyboard: session.KeyboardMain}
	}
}
