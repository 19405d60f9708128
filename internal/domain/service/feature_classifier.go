package service

import (
	"strings"
	"unicode"

	"github.com/dreschagin/release-confidence/internal/domain/valueobject"
)

// ClassifyFeature относит покрытие к корзине статуса; нижние границы включительно
func ClassifyFeature(coverage float64) valueobject.FeatureStatus {
	switch {
	case coverage >= 95:
		return valueobject.StatusExcellent
	case coverage >= 80:
		return valueobject.StatusGood
	case coverage >= 60:
		return valueobject.StatusWarning
	default:
		return valueobject.StatusDanger
	}
}

var featureAbbreviations = map[string]string{
	"auth":       "Authentication",
	"api":        "API Routes",
	"db":         "Database",
	"ui":         "User Interface",
	"utils":      "Utilities",
	"lib":        "Libraries",
	"components": "Components",
	"pages":      "Pages",
	"app":        "Application",
}

// FormatFeatureName превращает сегмент пути в подпись для дашборда
func FormatFeatureName(raw string) string {
	if label, ok := featureAbbreviations[strings.ToLower(raw)]; ok {
		return label
	}

	spaced := strings.NewReplacer("-", " ", "_", " ").Replace(raw)
	words := strings.Split(spaced, " ")
	for i, word := range words {
		words[i] = titleWord(word)
	}

	return strings.Join(words, " ")
}

func titleWord(word string) string {
	if word == "" {
		return word
	}
	runes := []rune(strings.ToLower(word))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
