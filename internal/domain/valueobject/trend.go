package valueobject

// TrendDirection направление изменения покрытия между двумя релизами
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// Trend описывает изменение покрытия в процентных пунктах
type Trend struct {
	Direction TrendDirection `json:"direction"`
	Change    float64        `json:"change"`
}

// StableTrend возвращает тренд без изменений
func StableTrend() Trend {
	return Trend{Direction: TrendStable}
}
