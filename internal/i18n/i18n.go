package i18n

import (
	"sync"

	"golang.org/x/text/language"
)

// Supported dashboard locales. Uzbek is the default; Russian is the
// only alternative the backend localizes for.
const (
	LocaleUZ = "uz"
	LocaleRU = "ru"
)

var matcher = language.NewMatcher([]language.Tag{
	language.Uzbek, // first entry is the fallback
	language.Russian,
})

// labels are the dashboard chrome strings not served by the backend
var labels = map[string]map[string]string{
	LocaleUZ: {
		"products":   "Mahsulotlar",
		"categories": "Kategoriyalar",
		"units":      "O'lchov birliklari",
		"orders":     "Buyurtmalar",
		"users":      "Foydalanuvchilar",
		"banners":    "Bannerlar",
		"dashboard":  "Boshqaruv paneli",
		"search":     "Qidirish",
		"save":       "Saqlash",
		"cancel":     "Bekor qilish",
		"delete":     "O'chirish",
		"export":     "Eksport",
		"login":      "Kirish",
		"logout":     "Chiqish",
		"required":   "Majburiy maydon",
	},
	LocaleRU: {
		"products":   "Товары",
		"categories": "Категории",
		"units":      "Единицы измерения",
		"orders":     "Заказы",
		"users":      "Пользователи",
		"banners":    "Баннеры",
		"dashboard":  "Панель управления",
		"search":     "Поиск",
		"save":       "Сохранить",
		"cancel":     "Отмена",
		"delete":     "Удалить",
		"export":     "Экспорт",
		"login":      "Вход",
		"logout":     "Выход",
		"required":   "Обязательное поле",
	},
}

// Match resolves an Accept-Language header to a supported locale
func Match(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return LocaleUZ
	}
	_, idx, _ := matcher.Match(tags...)
	if idx == 1 {
		return LocaleRU
	}
	return LocaleUZ
}

// Locale holds the active dashboard language. The zero value is not
// usable; create one with NewLocale.
type Locale struct {
	mu   sync.RWMutex
	code string
}

// NewLocale creates a locale holder, falling back to uz on unknown codes
func NewLocale(code string) *Locale {
	if code != LocaleRU {
		code = LocaleUZ
	}
	return &Locale{code: code}
}

// Code returns the active locale code
func (l *Locale) Code() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.code
}

// Set switches the active locale; unknown codes are ignored
func (l *Locale) Set(code string) {
	if code != LocaleUZ && code != LocaleRU {
		return
	}
	l.mu.Lock()
	l.code = code
	l.mu.Unlock()
}

// T returns the label for key in the active locale, falling back to
// Uzbek and finally to the key itself.
func (l *Locale) T(key string) string {
	code := l.Code()
	if v, ok := labels[code][key]; ok {
		return v
	}
	if v, ok := labels[LocaleUZ][key]; ok {
		return v
	}
	return key
}
