package entity

import "time"

// Repository отслеживаемый репозиторий, источник webhook
type Repository struct {
	ID            string    `json:"id"`
	ExternalID    int64     `json:"repo_id"`
	Name          string    `json:"repo_name"`
	Owner         string    `json:"owner"`
	FullName      string    `json:"full_name"`
	DefaultBranch string    `json:"default_branch"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
