package service

import (
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/classroom-service/internal/cache"
	"github.com/RubachokBoss/classroom-service/internal/repository"
	"github.com/RubachokBoss/classroom-service/internal/service/integration"
)

type Services struct {
	Authorizer  Authorizer
	Profiles    ProfileService
	Servers     ServerService
	Membership  MembershipService
	Assessments AssessmentService
	Submissions SubmissionService
	Grading     GradingService
	Stats       StatsService
}

func NewServices(
	repos *repository.Repositories,
	files integration.FileStorage,
	publisher integration.EventPublisher,
	statsCache cache.StatsCache,
	logger zerolog.Logger,
) *Services {
	authz := NewAuthorizer(repos.Servers, repos.Members)

	return &Services{
		Authorizer:  authz,
		Profiles:    NewProfileService(repos.Profiles, logger),
		Servers:     NewServerService(repos.Servers, repos.Channels, repos.Profiles, authz, logger),
		Membership:  NewMembershipService(repos.Servers, repos.Members, repos.Profiles, authz, logger),
		Assessments: NewAssessmentService(repos.Channels, repos.Assessments, authz, logger),
		Submissions: NewSubmissionService(repos.Assessments, repos.Results, authz, files, publisher, statsCache, logger),
		Grading:     NewGradingService(repos.Assessments, repos.Results, authz, statsCache, logger),
		Stats:       NewStatsService(repos.Assessments, repos.Results, authz, statsCache, logger),
	}
}
