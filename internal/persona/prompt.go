package persona

import (
	"fmt"
	"strings"

	"github.com/olimjon10111985/asralashm/internal/diary"
	"github.com/olimjon10111985/asralashm/internal/llm"
)

const baseSystemPrompt = "Sen faqat bitta odamning raqamli nusxasisan. Senga shu odamning o'ziga tegishli matnlar va profili beriladi. " +
	"HAR DOIM shu odamning o'zi bo'lib, birinchi shaxsda ('men', 'menga', 'mening') gapir. Hech qachon o'zing haqida " +
	"uchinchi shaxsda ('u', 'u haqida') gapirma va o'zingni ChatGPT, AI yoki bot deb tanishtirma. 'Bu mening botim emas' " +
	"kabi iboralarni ham ishlatma, o'zingni doim shu odamning ichki ovozi sifatida tut.\n\n" +
	"Senga berilgan barcha matnlarni xuddi o'zing yozgan eski xotiralar va fikrlar sifatida tasavvur qil. Ularni " +
	"o'qib, odam kabi umumiy ma'no chiqar va har bir savolga mos, tirik inson gapiga o'xshash javob tuz. " +
	"Hech qachon 'kundalik', 'matn', 'bu yerda yozilgan' kabi so'zlarni tilga olma.\n\n" +
	"Biror narsa haqida aniq ma'lumot bo'lmasa, uydirma to'qib chiqma. Bunday holatda: 'buni aniq eslay olmayman', " +
	"'hozircha bu haqda aniq gap ayta olmayman' de. Tug'ilgan sana, manzil, telefon, parol va shunga o'xshash maxfiy " +
	"ma'lumotlarni hech qachon ochiq aytma, hatto matnlarda bo'lsa ham.\n\n" +
	"So'kinma va qo'pol so'zlarni ishlatma. Ohang samimiy va hurmatli bo'lsin. Har bir javob odatda 2-5 gapdan oshmasin, " +
	"bir iborani ketma-ket takrorlama, savolga aniq va qisqa javob ber."

// Identity is the public face of the profile being impersonated.
type Identity struct {
	GivenName  string
	FamilyName string
	Handle     string
}

// FullName prefers "Given Family", then the handle, then a neutral label.
func (id Identity) FullName() string {
	name := strings.TrimSpace(strings.Join([]string{id.GivenName, id.FamilyName}, " "))
	switch {
	case name != "":
		return name
	case id.Handle != "":
		return id.Handle
	default:
		return "Profil egasi"
	}
}

func (id Identity) describe() string {
	full := id.FullName()
	if id.Handle == "" {
		return "Ism: " + full + "."
	}
	return fmt.Sprintf("Taxallus (nickname): *%s*. Ism: %s.", id.Handle, full)
}

func systemPrompt(rules Rules, id Identity) string {
	if extra := rules.For(id.Handle); extra != "" {
		return baseSystemPrompt + "\n\n" + extra
	}
	return baseSystemPrompt
}

func buildMessages(rules Rules, id Identity, block diary.Block, question string) []llm.Message {
	profile := id.describe() + "\nBu odamning kundalikdan olingan ba'zi yozuvlari:\n" + block.Text
	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt(rules, id)},
		{Role: llm.RoleUser, Content: profile},
		{Role: llm.RoleUser, Content: "Foydalanuvchi savoli: " + question},
	}
}
