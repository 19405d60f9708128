package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dreschagin/release-confidence/internal/domain/entity"
)

// LenientNumber принимает любое JSON-значение; все, что не является числом, дает 0
type LenientNumber float64

func (n *LenientNumber) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		*n = 0
		return nil
	}
	*n = LenientNumber(v)
	return nil
}

// Pct процент покрытия одной метрики файла
type Pct struct {
	Pct LenientNumber `json:"pct"`
}

// CoverageSummary итоговые значения istanbul/c8 для одной метрики
type CoverageSummary struct {
	Total   LenientNumber `json:"total"`
	Covered LenientNumber `json:"covered"`
	Skipped LenientNumber `json:"skipped"`
	Pct     LenientNumber `json:"pct"`
}

// FileCoverage покрытие одного файла
type FileCoverage struct {
	Lines      *Pct `json:"lines,omitempty"`
	Statements *Pct `json:"statements,omitempty"`
	Functions  *Pct `json:"functions,omitempty"`
	Branches   *Pct `json:"branches,omitempty"`
}

// FeatureInput заранее агрегированная запись о фиче
type FeatureInput struct {
	Name         string         `json:"name"`
	Coverage     *LenientNumber `json:"coverage,omitempty"`
	Pct          *LenientNumber `json:"pct,omitempty"`
	TestCount    LenientNumber  `json:"testCount,omitempty"`
	LinesCovered LenientNumber  `json:"linesCovered,omitempty"`
	TotalLines   LenientNumber  `json:"totalLines,omitempty"`
}

// CoverageData отчет о покрытии в одной из двух форм: Features (уже агрегировано)
// или Files (по файлам). Форма определяется наличием поля, Features приоритетнее.
type CoverageData struct {
	Total      LenientNumber           `json:"total"`
	Lines      *CoverageSummary        `json:"lines,omitempty"`
	Statements *CoverageSummary        `json:"statements,omitempty"`
	Functions  *CoverageSummary        `json:"functions,omitempty"`
	Branches   *CoverageSummary        `json:"branches,omitempty"`
	Files      map[string]FileCoverage `json:"files,omitempty"`
	Features   []FeatureInput          `json:"features,omitempty"`
}

// DecodeCoverageData разбирает JSON отчета. Нечисловые значения процентов считаются нулем,
// ошибка возвращается только для синтаксически неверного JSON.
func DecodeCoverageData(raw []byte) (CoverageData, error) {
	var data CoverageData
	if len(bytes.TrimSpace(raw)) == 0 {
		return data, nil
	}

	if err := json.Unmarshal(raw, &data); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return CoverageData{}, fmt.Errorf("decode coverage data: %w", err)
		}
		// структурно неожиданные поля (например files как массив) игнорируются
	}

	return data, nil
}

// OverallCoverage возвращает общий процент покрытия отчета: total, иначе lines.pct
func (d CoverageData) OverallCoverage() float64 {
	if d.Total != 0 {
		return float64(d.Total)
	}
	if d.Lines != nil {
		return float64(d.Lines.Pct)
	}
	return 0
}

// ParseFeatureCoverage приводит отчет к списку фич, отсортированному по убыванию покрытия.
// Никогда не завершается ошибкой: некорректные записи считаются нулевым покрытием.
func ParseFeatureCoverage(data CoverageData) []entity.FeatureCoverage {
	var features []entity.FeatureCoverage

	switch {
	case data.Features != nil:
		features = featuresFromInput(data.Features)
	case data.Files != nil:
		features = featuresFromFiles(data.Files)
	default:
		return []entity.FeatureCoverage{}
	}

	sort.SliceStable(features, func(i, j int) bool {
		return features[i].Coverage > features[j].Coverage
	})

	return features
}

func featuresFromInput(inputs []FeatureInput) []entity.FeatureCoverage {
	features := make([]entity.FeatureCoverage, 0, len(inputs))
	for _, in := range inputs {
		coverage := 0.0
		switch {
		case in.Coverage != nil && *in.Coverage != 0:
			coverage = float64(*in.Coverage)
		case in.Pct != nil:
			coverage = float64(*in.Pct)
		}

		features = append(features, entity.FeatureCoverage{
			Name:         in.Name,
			Coverage:     coverage,
			Status:       ClassifyFeature(coverage),
			TestCount:    nonNegativeInt(in.TestCount),
			LinesCovered: nonNegativeInt(in.LinesCovered),
			TotalLines:   nonNegativeInt(in.TotalLines),
		})
	}
	return features
}

type featureAccumulator struct {
	sum   float64
	count int
}

func featuresFromFiles(files map[string]FileCoverage) []entity.FeatureCoverage {
	groups := make(map[string]*featureAccumulator)
	for path, file := range files {
		key := featureKey(path)
		acc, ok := groups[key]
		if !ok {
			acc = &featureAccumulator{}
			groups[key] = acc
		}
		acc.sum += filePct(file)
		acc.count++
	}

	// map обходится в случайном порядке, группы упорядочиваются по имени
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	features := make([]entity.FeatureCoverage, 0, len(keys))
	for _, key := range keys {
		acc := groups[key]
		coverage := round2(acc.sum / float64(acc.count))
		features = append(features, entity.FeatureCoverage{
			Name:     FormatFeatureName(key),
			Coverage: coverage,
			Status:   ClassifyFeature(coverage),
		})
	}
	return features
}

func featureKey(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) > 1 {
		return parts[1]
	}
	return "core"
}

func filePct(file FileCoverage) float64 {
	if file.Lines != nil && file.Lines.Pct != 0 {
		return float64(file.Lines.Pct)
	}
	if file.Statements != nil {
		return float64(file.Statements.Pct)
	}
	return 0
}

func nonNegativeInt(n LenientNumber) int {
	if n <= 0 || math.IsNaN(float64(n)) {
		return 0
	}
	return int(n)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
