package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/classroom-service/internal/cache"
	"github.com/RubachokBoss/classroom-service/internal/models"
	"github.com/RubachokBoss/classroom-service/internal/repository"
	"github.com/RubachokBoss/classroom-service/internal/repository/inmem"
	"github.com/RubachokBoss/classroom-service/internal/service/integration"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.SubmissionCreatedEvent
}

func (p *recordingPublisher) PublishSubmissionCreated(_ context.Context, event *models.SubmissionCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type fixture struct {
	ctx       context.Context
	now       time.Time
	repos     *repository.Repositories
	files     *integration.MemoryFileStorage
	publisher *recordingPublisher
	stats     *cache.MemoryStatsCache

	authz       Authorizer
	servers     *serverService
	membership  *membershipService
	assessments *assessmentService
	submissions *submissionService
	grading     *gradingService
	statistics  *statsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		ctx:       context.Background(),
		now:       time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC),
		repos:     inmem.NewRepositories(),
		files:     integration.NewMemoryFileStorage("http://files.local"),
		publisher: &recordingPublisher{},
		stats:     cache.NewMemoryStatsCache(),
	}
	f.rebuild()
	return f
}

// rebuild recreates the services on top of the current repositories.
func (f *fixture) rebuild() {
	log := zerolog.Nop()
	clock := func() time.Time { return f.now }

	f.authz = NewAuthorizer(f.repos.Servers, f.repos.Members)

	f.servers = NewServerService(f.repos.Servers, f.repos.Channels, f.repos.Profiles, f.authz, log).(*serverService)
	f.servers.now = clock
	f.membership = NewMembershipService(f.repos.Servers, f.repos.Members, f.repos.Profiles, f.authz, log).(*membershipService)
	f.membership.now = clock
	f.assessments = NewAssessmentService(f.repos.Channels, f.repos.Assessments, f.authz, log).(*assessmentService)
	f.assessments.now = clock
	f.submissions = NewSubmissionService(f.repos.Assessments, f.repos.Results, f.authz, f.files, f.publisher, f.stats, log).(*submissionService)
	f.submissions.now = clock
	f.grading = NewGradingService(f.repos.Assessments, f.repos.Results, f.authz, f.stats, log).(*gradingService)
	f.grading.now = clock
	f.statistics = NewStatsService(f.repos.Assessments, f.repos.Results, f.authz, f.stats, log).(*statsService)
}

func (f *fixture) profile(t *testing.T, name string) string {
	t.Helper()

	p := &models.Profile{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     name + "@school.test",
		CreatedAt: f.now,
		UpdatedAt: f.now,
	}
	require.NoError(t, f.repos.Profiles.Create(f.ctx, p))
	return p.ID
}

func (f *fixture) server(t *testing.T, ownerID string, public bool) *models.Server {
	t.Helper()

	server, err := f.servers.CreateServer(f.ctx, ownerID, &models.CreateServerRequest{Name: "Math101", IsPublic: public})
	require.NoError(t, err)
	return server
}

func (f *fixture) join(t *testing.T, serverID, profileID string, role models.MemberRole, status models.MemberStatus) *models.Member {
	t.Helper()

	m := &models.Member{
		ID:        uuid.New().String(),
		ServerID:  serverID,
		ProfileID: profileID,
		Role:      role,
		Status:    status,
		CreatedAt: f.now,
		UpdatedAt: f.now,
	}
	require.NoError(t, f.repos.Members.Create(f.ctx, m))
	return m
}

func (f *fixture) assessment(t *testing.T, ownerID, serverID string, kind models.AssessmentKind) *models.Assessment {
	t.Helper()

	channels, err := f.repos.Channels.ListByServer(f.ctx, serverID)
	require.NoError(t, err)
	require.NotEmpty(t, channels)

	a, err := f.assessments.CreateAssessment(f.ctx, ownerID, channels[0].ID, &models.CreateAssessmentRequest{
		Kind: string(kind),
		Name: "Quiz 1",
	})
	require.NoError(t, err)
	return a
}
