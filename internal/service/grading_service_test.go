package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/classroom-service/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestGrade_EssayInPlace(t *testing.T) {
	e := newSubmitEnv(t)
	submitted, err := e.submissions.SubmitEssay(e.ctx, essayRequest(e, "essay body"))
	require.NoError(t, err)

	graded, err := e.grading.Grade(e.ctx, e.owner, submitted.ResultID, &models.GradeRequest{Score: floatPtr(8), Feedback: "Well argued"})
	require.NoError(t, err)
	assert.Equal(t, submitted.ResultID, graded.ID)

	stored, err := e.repos.Results.GetByID(e.ctx, submitted.ResultID)
	require.NoError(t, err)
	assert.Equal(t, 8.0, stored.Score)
	require.NotNil(t, stored.Feedback)
	assert.Equal(t, "Well argued", *stored.Feedback)
	require.NotNil(t, stored.GradedBy)
	assert.Equal(t, e.owner, *stored.GradedBy)
	require.NotNil(t, stored.GradedAt)

	essay := stored.Answers.(models.EssayAnswer)
	assert.Equal(t, models.GradingStatusGraded, essay.Status)
	assert.NotEmpty(t, essay.File.URL)
}

func TestGrade_Errors(t *testing.T) {
	e := newSubmitEnv(t)
	submitted, err := e.submissions.Submit(e.ctx, e.request(choiceAnswers, 4))
	require.NoError(t, err)

	_, err = e.grading.Grade(e.ctx, "", submitted.ResultID, &models.GradeRequest{Score: floatPtr(5)})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = e.grading.Grade(e.ctx, e.student, submitted.ResultID, &models.GradeRequest{Score: floatPtr(10)})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = e.grading.Grade(e.ctx, e.owner, submitted.ResultID, &models.GradeRequest{Score: floatPtr(10.5)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.grading.Grade(e.ctx, e.owner, submitted.ResultID, &models.GradeRequest{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.grading.Grade(e.ctx, e.owner, "missing", &models.GradeRequest{Score: floatPtr(5)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplyExternalGrade(t *testing.T) {
	e := newSubmitEnv(t)
	submitted, err := e.submissions.SubmitEssay(e.ctx, essayRequest(e, "essay body"))
	require.NoError(t, err)

	_, err = e.grading.ApplyExternalGrade(e.ctx, &models.ResultGradedEvent{ResultID: submitted.ResultID, Score: 11})
	assert.ErrorIs(t, err, ErrInvalidScore)

	graded, err := e.grading.ApplyExternalGrade(e.ctx, &models.ResultGradedEvent{
		ResultID: submitted.ResultID,
		Score:    6.5,
		Feedback: "Solid structure",
	})
	require.NoError(t, err)
	assert.Equal(t, 6.5, graded.Score)
	require.NotNil(t, graded.GradedBy)
	assert.Equal(t, ExternalGraderID, *graded.GradedBy)
	assert.Equal(t, models.GradingStatusGraded, graded.Answers.(models.EssayAnswer).Status)

	_, err = e.grading.ApplyExternalGrade(e.ctx, &models.ResultGradedEvent{ResultID: "missing", Score: 5})
	assert.ErrorIs(t, err, ErrNotFound)
}
