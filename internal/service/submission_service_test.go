package service

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/classroom-service/internal/models"
	"github.com/RubachokBoss/classroom-service/internal/repository"
)

const choiceAnswers = `{"type":"multiple_choice","data":{"choices":[{"question_id":"q1","option":"c"}]}}`

func TestCoerceScore(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  float64
	}{
		{name: "missing", input: nil, want: 0},
		{name: "number", input: 7.25, want: 7.25},
		{name: "int", input: 8, want: 8},
		{name: "numeric string", input: " 6.5 ", want: 6.5},
		{name: "json number", input: json.Number("4"), want: 4},
		{name: "garbage string", input: "ten", want: 0},
		{name: "bool", input: true, want: 0},
		{name: "negative clamps", input: -2.0, want: 0},
		{name: "above max clamps", input: 42.0, want: 10},
		{name: "nan", input: math.NaN(), want: 0},
		{name: "infinity", input: math.Inf(1), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceScore(tt.input))
		})
	}
}

type submitEnv struct {
	*fixture
	owner      string
	student    string
	server     *models.Server
	assessment *models.Assessment
}

func newSubmitEnv(t *testing.T) *submitEnv {
	f := newFixture(t)
	owner := f.profile(t, "instructor")
	server := f.server(t, owner, true)
	student := f.profile(t, "sam")
	f.join(t, server.ID, student, models.MemberRoleGuest, models.MemberStatusActive)

	return &submitEnv{
		fixture:    f,
		owner:      owner,
		student:    student,
		server:     server,
		assessment: f.assessment(t, owner, server.ID, models.AssessmentKindExam),
	}
}

func (e *submitEnv) request(answers string, score interface{}) *models.SubmitRequest {
	return &models.SubmitRequest{
		AssessmentID: e.assessment.ID,
		UserID:       e.student,
		Answers:      json.RawMessage(answers),
		Score:        score,
	}
}

func TestSubmit_IsIdempotent(t *testing.T) {
	e := newSubmitEnv(t)

	first, err := e.submissions.Submit(e.ctx, e.request(choiceAnswers, "8.5"))
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, "/results/"+first.ResultID, first.Redirect)

	second, err := e.submissions.Submit(e.ctx, e.request(choiceAnswers, 2))
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.ResultID, second.ResultID)

	stored, err := e.repos.Results.GetByID(e.ctx, first.ResultID)
	require.NoError(t, err)
	assert.Equal(t, 8.5, stored.Score)
	assert.Equal(t, models.AssessmentKindExam, stored.Kind)
	assert.Equal(t, 1, e.publisher.count())
}

func TestSubmit_Validation(t *testing.T) {
	e := newSubmitEnv(t)

	tests := []struct {
		name    string
		mutate  func(req *models.SubmitRequest)
		wantErr error
	}{
		{name: "anonymous", mutate: func(r *models.SubmitRequest) { r.UserID = "" }, wantErr: ErrUnauthenticated},
		{name: "unknown assessment", mutate: func(r *models.SubmitRequest) { r.AssessmentID = "missing" }, wantErr: ErrNotFound},
		{name: "missing answers", mutate: func(r *models.SubmitRequest) { r.Answers = nil }, wantErr: ErrInvalidInput},
		{
			name: "blank answers",
			mutate: func(r *models.SubmitRequest) {
				r.Answers = json.RawMessage(`{"type":"written","data":{"responses":[{"question_id":"q1","text":"  "}]}}`)
			},
			wantErr: ErrInvalidInput,
		},
		{name: "malformed answers", mutate: func(r *models.SubmitRequest) { r.Answers = json.RawMessage(`"abc"`) }, wantErr: ErrInvalidInput},
		{
			name: "essay through json",
			mutate: func(r *models.SubmitRequest) {
				r.Answers = json.RawMessage(`{"type":"essay","data":{"file":{"url":"x"}}}`)
			},
			wantErr: ErrNotEssay,
		},
		{name: "not a member", mutate: func(r *models.SubmitRequest) { r.UserID = uuid.New().String() }, wantErr: ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := e.request(choiceAnswers, nil)
			tt.mutate(req)

			_, err := e.submissions.Submit(e.ctx, req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Zero(t, e.publisher.count())
}

func TestSubmit_ClosedAssessment(t *testing.T) {
	e := newSubmitEnv(t)

	inactive := false
	_, err := e.assessments.UpdateSettings(e.ctx, e.owner, e.assessment.ID, &models.UpdateAssessmentSettingsRequest{IsActive: &inactive})
	require.NoError(t, err)

	_, err = e.submissions.Submit(e.ctx, e.request(choiceAnswers, 5))
	assert.ErrorIs(t, err, ErrAssessmentClosed)

	active := true
	deadline := e.now.Add(-time.Minute)
	_, err = e.assessments.UpdateSettings(e.ctx, e.owner, e.assessment.ID, &models.UpdateAssessmentSettingsRequest{IsActive: &active, Deadline: &deadline})
	require.NoError(t, err)

	_, err = e.submissions.Submit(e.ctx, e.request(choiceAnswers, 5))
	assert.ErrorIs(t, err, ErrDeadlinePassed)

	_, err = e.assessments.UpdateSettings(e.ctx, e.owner, e.assessment.ID, &models.UpdateAssessmentSettingsRequest{ClearDeadline: true})
	require.NoError(t, err)

	res, err := e.submissions.Submit(e.ctx, e.request(choiceAnswers, 5))
	require.NoError(t, err)
	assert.True(t, res.Created)
}

func TestSubmit_PendingMemberIsRedirected(t *testing.T) {
	e := newSubmitEnv(t)
	pending := e.profile(t, "pat")
	e.join(t, e.server.ID, pending, models.MemberRoleGuest, models.MemberStatusPending)

	req := e.request(choiceAnswers, 5)
	req.UserID = pending

	_, err := e.submissions.Submit(e.ctx, req)
	var redirect *RedirectError
	require.ErrorAs(t, err, &redirect)
	assert.Equal(t, "/servers/"+e.server.ID+"/pending", redirect.Route)
}

type racingResults struct {
	repository.ResultRepository
	winner *models.Result
}

func (r *racingResults) Create(ctx context.Context, res *models.Result) error {
	if w := r.winner; w != nil {
		r.winner = nil
		if err := r.ResultRepository.Create(ctx, w); err != nil {
			return err
		}
	}
	return r.ResultRepository.Create(ctx, res)
}

func (e *submitEnv) raceWith(answers models.Answers) *models.Result {
	winner := &models.Result{
		ID:           uuid.New().String(),
		AssessmentID: e.assessment.ID,
		Kind:         e.assessment.Kind,
		UserID:       e.student,
		Score:        3,
		Answers:      answers,
		CreatedAt:    e.now,
		UpdatedAt:    e.now,
	}
	e.repos.Results = &racingResults{ResultRepository: e.repos.Results, winner: winner}
	e.rebuild()
	return winner
}

func TestSubmit_ConcurrentInsertReturnsWinner(t *testing.T) {
	e := newSubmitEnv(t)
	winner := e.raceWith(models.WrittenAnswers{Responses: []models.WrittenResponse{{QuestionID: "q1", Text: "first"}}})

	res, err := e.submissions.Submit(e.ctx, e.request(choiceAnswers, 9))
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, winner.ID, res.ResultID)
	assert.Zero(t, e.publisher.count())
}

func essayRequest(e *submitEnv, content string) *models.EssaySubmitRequest {
	return &models.EssaySubmitRequest{
		AssessmentID: e.assessment.ID,
		UserID:       e.student,
		FileName:     "Essay.PDF",
		MimeType:     "application/pdf",
		Size:         int64(len(content)),
		Content:      strings.NewReader(content),
	}
}

func TestSubmitEssay(t *testing.T) {
	e := newSubmitEnv(t)

	res, err := e.submissions.SubmitEssay(e.ctx, essayRequest(e, "my essay"))
	require.NoError(t, err)
	assert.True(t, res.Created)

	stored, err := e.repos.Results.GetByID(e.ctx, res.ResultID)
	require.NoError(t, err)
	assert.Zero(t, stored.Score)

	essay, ok := stored.Answers.(models.EssayAnswer)
	require.True(t, ok)
	assert.Equal(t, models.GradingStatusPending, essay.Status)
	assert.Equal(t, "Essay.PDF", essay.File.Name)
	assert.Equal(t, int64(8), essay.File.Size)
	assert.True(t, strings.HasSuffix(essay.File.Key, ".pdf"))
	assert.Equal(t, "http://files.local/"+essay.File.Key, essay.File.URL)
	assert.True(t, e.files.Has(essay.File.Key))

	again, err := e.submissions.SubmitEssay(e.ctx, essayRequest(e, "second try"))
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, res.ResultID, again.ResultID)
	assert.Equal(t, 1, e.files.Len())
}

func TestSubmitEssay_EmptyFile(t *testing.T) {
	e := newSubmitEnv(t)

	_, err := e.submissions.SubmitEssay(e.ctx, essayRequest(e, ""))
	assert.ErrorIs(t, err, ErrEmptyFile)
	assert.Zero(t, e.files.Len())
}

func TestSubmitEssay_LostRaceDeletesUpload(t *testing.T) {
	e := newSubmitEnv(t)
	winner := e.raceWith(models.WrittenAnswers{Responses: []models.WrittenResponse{{QuestionID: "q1", Text: "first"}}})

	res, err := e.submissions.SubmitEssay(e.ctx, essayRequest(e, "late essay"))
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, winner.ID, res.ResultID)
	assert.Zero(t, e.files.Len())
}

func TestGetResult(t *testing.T) {
	e := newSubmitEnv(t)
	res, err := e.submissions.Submit(e.ctx, e.request(choiceAnswers, 6))
	require.NoError(t, err)

	own, err := e.submissions.GetResult(e.ctx, e.student, res.ResultID)
	require.NoError(t, err)
	assert.Equal(t, 6.0, own.Score)

	_, err = e.submissions.GetResult(e.ctx, e.owner, res.ResultID)
	assert.NoError(t, err)

	classmate := e.profile(t, "zoe")
	e.join(t, e.server.ID, classmate, models.MemberRoleGuest, models.MemberStatusActive)
	_, err = e.submissions.GetResult(e.ctx, classmate, res.ResultID)
	assert.ErrorIs(t, err, ErrInsufficientRole)

	_, err = e.submissions.GetResult(e.ctx, e.student, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
