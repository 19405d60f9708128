package entity

import (
	"errors"
	"strings"
	"time"

	"github.com/dreschagin/release-confidence/internal/domain/valueobject"
	"github.com/google/uuid"
)

// ReleaseInfo идентификаторы релиза из CI
type ReleaseInfo struct {
	Number        string
	CommitSHA     string
	Branch        string
	WorkflowRunID string
}

// Release представляет оцененный релиз (Aggregate Root)
// Метрики вычисляются при ингестии и дальше только читаются
type Release struct {
	id                string
	repositoryID      string
	info              ReleaseInfo
	coveragePercent   float64
	passCount         int
	failCount         int
	totalTests        int
	riskScore         float64
	releaseConfidence float64
	riskLevel         valueobject.RiskLevel
	timeToShipMinutes int
	features          []FeatureCoverage
	rawPayloadKey     string
	repository        *Repository
	createdAt         time.Time
	updatedAt         time.Time
}

// NewRelease создает релиз из результата оценки (Factory Method)
func NewRelease(repositoryID string, info ReleaseInfo, eval *ReleaseEvaluation) (*Release, error) {
	if strings.TrimSpace(repositoryID) == "" {
		return nil, errors.New("repository id cannot be empty")
	}
	if strings.TrimSpace(info.Number) == "" {
		return nil, errors.New("release number cannot be empty")
	}
	if eval == nil {
		return nil, errors.New("evaluation cannot be nil")
	}
	if err := eval.RiskLevel.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	return &Release{
		id:                uuid.New().String(),
		repositoryID:      repositoryID,
		info:              info,
		coveragePercent:   eval.Coverage,
		passCount:         eval.PassedTests,
		failCount:         eval.FailedTests,
		totalTests:        eval.TotalTests,
		riskScore:         eval.RiskScore,
		releaseConfidence: eval.Confidence,
		riskLevel:         eval.RiskLevel,
		timeToShipMinutes: eval.TimeToShipMinutes,
		features:          copyFeatures(eval.Features),
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// ReleaseSnapshot плоское представление релиза для восстановления из хранилища
type ReleaseSnapshot struct {
	ID                string
	RepositoryID      string
	Info              ReleaseInfo
	CoveragePercent   float64
	PassCount         int
	FailCount         int
	TotalTests        int
	RiskScore         float64
	ReleaseConfidence float64
	RiskLevel         valueobject.RiskLevel
	TimeToShipMinutes int
	Features          []FeatureCoverage
	RawPayloadKey     string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ReconstructRelease восстанавливает релиз из хранилища (для Repository)
func ReconstructRelease(s ReleaseSnapshot) *Release {
	features := s.Features
	if features == nil {
		features = []FeatureCoverage{}
	}

	return &Release{
		id:                s.ID,
		repositoryID:      s.RepositoryID,
		info:              s.Info,
		coveragePercent:   s.CoveragePercent,
		passCount:         s.PassCount,
		failCount:         s.FailCount,
		totalTests:        s.TotalTests,
		riskScore:         s.RiskScore,
		releaseConfidence: s.ReleaseConfidence,
		riskLevel:         s.RiskLevel,
		timeToShipMinutes: s.TimeToShipMinutes,
		features:          features,
		rawPayloadKey:     s.RawPayloadKey,
		createdAt:         s.CreatedAt,
		updatedAt:         s.UpdatedAt,
	}
}

func (r *Release) ID() string                       { return r.id }
func (r *Release) RepositoryID() string             { return r.repositoryID }
func (r *Release) Info() ReleaseInfo                { return r.info }
func (r *Release) Number() string                   { return r.info.Number }
func (r *Release) CoveragePercent() float64         { return r.coveragePercent }
func (r *Release) PassCount() int                   { return r.passCount }
func (r *Release) FailCount() int                   { return r.failCount }
func (r *Release) RiskScore() float64               { return r.riskScore }
func (r *Release) ReleaseConfidence() float64       { return r.releaseConfidence }
func (r *Release) RiskLevel() valueobject.RiskLevel { return r.riskLevel }
func (r *Release) TimeToShipMinutes() int           { return r.timeToShipMinutes }
func (r *Release) RawPayloadKey() string            { return r.rawPayloadKey }
func (r *Release) CreatedAt() time.Time             { return r.createdAt }
func (r *Release) UpdatedAt() time.Time             { return r.updatedAt }

// TotalTests возвращает число тестов; если CI его не прислал, считается как pass+fail
func (r *Release) TotalTests() int {
	if r.totalTests > 0 {
		return r.totalTests
	}
	return r.passCount + r.failCount
}

// Features возвращает копию списка фич
func (r *Release) Features() []FeatureCoverage {
	return copyFeatures(r.features)
}

// Repository возвращает данные репозитория, если они были подгружены
func (r *Release) Repository() *Repository {
	return r.repository
}

// AttachRepository связывает релиз с загруженным репозиторием
func (r *Release) AttachRepository(repo *Repository) {
	r.repository = repo
}

// SetRawPayloadKey запоминает ключ архива исходного payload
func (r *Release) SetRawPayloadKey(key string) {
	r.rawPayloadKey = key
	r.updatedAt = time.Now().UTC()
}

// Snapshot возвращает плоское представление для слоя хранения
func (r *Release) Snapshot() ReleaseSnapshot {
	return ReleaseSnapshot{
		ID:                r.id,
		RepositoryID:      r.repositoryID,
		Info:              r.info,
		CoveragePercent:   r.coveragePercent,
		PassCount:         r.passCount,
		FailCount:         r.failCount,
		TotalTests:        r.totalTests,
		RiskScore:         r.riskScore,
		ReleaseConfidence: r.releaseConfidence,
		RiskLevel:         r.riskLevel,
		TimeToShipMinutes: r.timeToShipMinutes,
		Features:          copyFeatures(r.features),
		RawPayloadKey:     r.rawPayloadKey,
		CreatedAt:         r.createdAt,
		UpdatedAt:         r.updatedAt,
	}
}

// Domain Methods

// IsBlocking проверяет, что релиз нельзя выпускать без ручного разбора
func (r *Release) IsBlocking() bool {
	return r.riskLevel == valueobject.RiskCritical || r.failCount > 0
}

// AgeAt возвращает возраст релиза на момент now, не меньше нуля
func (r *Release) AgeAt(now time.Time) time.Duration {
	if age := now.Sub(r.createdAt); age > 0 {
		return age
	}
	return 0
}

func copyFeatures(in []FeatureCoverage) []FeatureCoverage {
	out := make([]FeatureCoverage, len(in))
	copy(out, in)
	return out
}
