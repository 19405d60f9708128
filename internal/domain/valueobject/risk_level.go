package valueobject

import "fmt"

// RiskLevel представляет порядковый уровень риска релиза (Value Object)
type RiskLevel string

const (
	RiskCritical RiskLevel = "Critical"
	RiskHigh     RiskLevel = "High"
	RiskMedium   RiskLevel = "Medium"
	RiskLow      RiskLevel = "Low"
)

// Validate проверяет валидность уровня риска
func (l RiskLevel) Validate() error {
	switch l {
	case RiskCritical, RiskHigh, RiskMedium, RiskLow:
		return nil
	default:
		return fmt.Errorf("invalid risk level %q", string(l))
	}
}

func (l RiskLevel) String() string {
	return string(l)
}

// Rank возвращает порядок уровня: 0 для Low, 3 для Critical
func (l RiskLevel) Rank() int {
	switch l {
	case RiskCritical:
		return 3
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	default:
		return 0
	}
}

// RiskItemLevel представляет уровень отдельной находки
type RiskItemLevel string

const (
	ItemHigh   RiskItemLevel = "High"
	ItemMedium RiskItemLevel = "Medium"
	ItemLow    RiskItemLevel = "Low"
	ItemInfo   RiskItemLevel = "Info"
)

// Validate проверяет валидность уровня находки
func (l RiskItemLevel) Validate() error {
	switch l {
	case ItemHigh, ItemMedium, ItemLow, ItemInfo:
		return nil
	default:
		return fmt.Errorf("invalid risk item level %q", string(l))
	}
}

func (l RiskItemLevel) String() string {
	return string(l)
}

// AllRiskLevels возвращает уровни риска от самого тяжелого к самому легкому
func AllRiskLevels() []RiskLevel {
	return []RiskLevel{RiskCritical, RiskHigh, RiskMedium, RiskLow}
}
