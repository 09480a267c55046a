package models

import "github.com/RubachokBoss/classroom-service/internal/grades"

const (
	StatsScopeAssessment = "assessment"
	StatsScopeServer     = "server"
)

type StatsResponse struct {
	Scope   string         `json:"scope"`
	ScopeID string         `json:"scope_id"`
	Cached  bool           `json:"cached"`
	Summary grades.Summary `json:"summary"`
}
