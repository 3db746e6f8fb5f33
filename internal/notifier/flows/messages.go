package flows

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message kinds.
const (
	KindCreated   = "created"
	KindConfirmed = "confirmed"
	KindCancelled = "cancelled"
	KindReminder  = "reminder"
)

// supported[0] is the fallback for unmatched languages.
var supported = []language.Tag{
	language.AmericanEnglish,
	language.BrazilianPortuguese,
	language.EuropeanPortuguese,
}

var matcher = language.NewMatcher(supported)

var timeLayouts = map[language.Tag]string{
	language.AmericanEnglish:     "Mon Jan 2 at 3:04 PM",
	language.BrazilianPortuguese: "02/01 às 15:04",
	language.EuropeanPortuguese:  "02/01 às 15:04",
}

// Arguments: client name, service, professional, salon, local time.
var templates = map[string]map[language.Tag]string{
	KindCreated: {
		language.AmericanEnglish:     "Hi %s! Your %s with %s at %s is booked for %s.",
		language.BrazilianPortuguese: "Olá %s! Seu horário de %s com %s no %s está marcado para %s.",
		language.EuropeanPortuguese:  "Olá %s! A sua marcação de %s com %s em %s ficou agendada para %s.",
	},
	KindConfirmed: {
		language.AmericanEnglish:     "Hi %s! Your %s with %s at %s on %s is confirmed.",
		language.BrazilianPortuguese: "Olá %s! Seu horário de %s com %s no %s em %s está confirmado.",
		language.EuropeanPortuguese:  "Olá %s! A sua marcação de %s com %s em %s a %s está confirmada.",
	},
	KindCancelled: {
		language.AmericanEnglish:     "Hi %s. Your %s with %s at %s on %s was cancelled.",
		language.BrazilianPortuguese: "Olá %s. Seu horário de %s com %s no %s em %s foi cancelado.",
		language.EuropeanPortuguese:  "Olá %s. A sua marcação de %s com %s em %s a %s foi cancelada.",
	},
	KindReminder: {
		language.AmericanEnglish:     "Reminder, %s: your %s with %s at %s is %s.",
		language.BrazilianPortuguese: "Lembrete, %s: seu horário de %s com %s no %s é %s.",
		language.EuropeanPortuguese:  "Lembrete, %s: a sua marcação de %s com %s em %s é %s.",
	},
}

var messages = buildCatalog()

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(supported[0]))
	for kind, byLang := range templates {
		for tag, text := range byLang {
			if err := b.SetString(tag, kind, text); err != nil {
				panic(err)
			}
		}
	}
	return b
}

func matchLanguage(lang string) language.Tag {
	tag, err := language.Parse(lang)
	if err != nil {
		return supported[0]
	}
	_, idx, _ := matcher.Match(tag)
	return supported[idx]
}

// Render formats the message of kind in lang. at is already salon-local.
func Render(kind, lang, client, service, professional, salon string, at time.Time) string {
	tag := matchLanguage(lang)
	p := message.NewPrinter(tag, message.Catalog(messages))
	return p.Sprintf(kind, client, service, professional, salon, at.Format(timeLayouts[tag]))
}
