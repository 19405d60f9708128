package valueobject

import "fmt"

// FeatureStatus представляет корзину покрытия отдельной фичи (Value Object)
type FeatureStatus string

const (
	StatusExcellent FeatureStatus = "excellent"
	StatusGood      FeatureStatus = "good"
	StatusWarning   FeatureStatus = "warning"
	StatusDanger    FeatureStatus = "danger"
)

// Validate проверяет валидность статуса
func (s FeatureStatus) Validate() error {
	switch s {
	case StatusExcellent, StatusGood, StatusWarning, StatusDanger:
		return nil
	default:
		return fmt.Errorf("invalid feature status %q", string(s))
	}
}

func (s FeatureStatus) String() string {
	return string(s)
}
