package i18n

// Lang is a two-letter interface language code.
type Lang string

const (
	RU Lang = "ru"
	AZ Lang = "az"
	EN Lang = "en"

	// Default is used before the user picks a language.
	Default = RU
)

// Texts holds all localized interface strings for one language.
type Texts struct {
	Welcome     string
	NameReply   string
	Materials   string
	VideoGuides string
	Contact     string
	Search      string
	ChooseFile  string
	Back        string
	ContactText string
	VideoChoice string
	FileTitles  map[string]string
}

var catalog = map[Lang]Texts{
	RU: {
		Welcome:     "Здравствуйте, я Бот компании Ploom - Ваш помощник по обучению. Как я могу к вам обращаться?",
		NameReply:   "Приятно познакомиться, %s!\nВыберите раздел:",
		Materials:   "Материалы",
		VideoGuides: "Видеоуроки",
		Contact:     "Контакты",
		Search:      "Поиск",
		ChooseFile:  "Выберите нужный файл:",
		Back:        "Назад",
		ContactText: "Вы можете связаться с нами по следующим контактам:",
		VideoChoice: "Выберите видеоурок:",
		FileTitles: map[string]string{
			"direct":               "Видео-инструкция Ploom Direct",
			"reboot":               "Перезагрузка PloomXAdvanced",
			"replacement":          "Замена в Phouse-IMS",
			"return":               "Возврат в Phouse-IMS",
			"unregisteredconsumer": "Клиент без регистрации в Phouse-IMS",
			"product":              "Информация о продукте",
			"sales":                "Скрипты продаж",
			"sticks":               "Стики Sobranie",
			"accessories":          "Аксессуары",
		},
	},
	AZ: {
		Welcome:     "Salam, mən Ploom şirkətinin Botuyam və Sizə təlimdə köməklik göstərəcəyəm. Sizə necə müraciət edə bilərəm?",
		NameReply:   "Tanış olduğumuza şadam, %s!\nZəhmət olmasa bölmə seçin:",
		Materials:   "Materiallar",
		VideoGuides: "Video dərslər",
		Contact:     "Əlaqə",
		Search:      "Axtarış",
		ChooseFile:  "Zəhmət olmasa faylı seçin:",
		Back:        "Geri",
		ContactText: "Aşağıdakı şəxslərlə əlaqə saxlaya bilərsiniz:",
		VideoChoice: "Video dərslər seçin:",
		FileTitles: map[string]string{
			"direct":               "Ploom Direct üzrə Video təlimat",
			"reboot":               "PloomXAdvanced Sıfırlanması",
			"replacement":          "Dəyisdirilmə Phouse-IMS",
			"return":               "Qaytarılma Phouse-IMS",
			"unregisteredconsumer": "Qeydiyyatsız müştəri Phouse-IMS",
			"product":              "Məhsul haqqında məlumat",
			"sales":                "Satış skriptləri",
			"sticks":               "Sobranie Stikləri",
			"accessories":          "Aksessuarlar",
		},
	},
	EN: {
		Welcome:     "Hello, I am the Ploom company Bot, and I will help You with your training. How can I address You?",
		NameReply:   "Nice to meet you, %s!\nPlease choose a section:",
		Materials:   "Materials",
		VideoGuides: "Video Lessons",
		Contact:     "Contact",
		Search:      "Search",
		ChooseFile:  "Please choose a file:",
		Back:        "Back",
		ContactText: "You can contact us via:",
		VideoChoice: "Choose a video lesson:",
		FileTitles: map[string]string{
			"direct":               "Video Instructions of Ploom Direct",
			"reboot":               "How to reboot PloomXAdvanced",
			"replacement":          "Replacement Phouse-IMS",
			"return":               "Return&Refund Phouse-IMS",
			"unregisteredconsumer": "Unregistered consumer Phouse-IMS",
			"product":              "Product Info",
			"sales":                "Sales Scripts",
			"sticks":               "Sobranie Sticks",
			"accessories":          "Accessories",
		},
	},
}

// For returns the text bundle for lang, falling back to the default language.
func For(lang Lang) Texts {
	if t, ok := catalog[lang]; ok {
		return t
	}
	return catalog[Default]
}

// Parse validates a raw language code.
func Parse(raw string) (Lang, bool) {
	switch Lang(raw) {
	case RU, AZ, EN:
		return Lang(raw), true
	}
	return Default, false
}

// FileTitle resolves a localized title for a catalog key.
func FileTitle(lang Lang, key string) string {
	if title, ok := For(lang).FileTitles[key]; ok {
		return title
	}
	return key
}
