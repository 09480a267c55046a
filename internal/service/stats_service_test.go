package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/classroom-service/internal/models"
)

func TestAssessmentStats(t *testing.T) {
	e := newSubmitEnv(t)

	for i, score := range []float64{4, 5, 6, 7, 8, 9, 10} {
		student := e.profile(t, "student"+string(rune('a'+i)))
		e.join(t, e.server.ID, student, models.MemberRoleGuest, models.MemberStatusActive)

		req := e.request(choiceAnswers, score)
		req.UserID = student
		_, err := e.submissions.Submit(e.ctx, req)
		require.NoError(t, err)
	}

	stats, err := e.statistics.AssessmentStats(e.ctx, e.owner, e.assessment.ID)
	require.NoError(t, err)
	assert.False(t, stats.Cached)
	assert.Equal(t, models.StatsScopeAssessment, stats.Scope)
	assert.Equal(t, 7, stats.Summary.Count)
	assert.Equal(t, 7.0, stats.Summary.Mean)
	assert.Equal(t, 85.71, stats.Summary.PassRate)

	cached, err := e.statistics.AssessmentStats(e.ctx, e.owner, e.assessment.ID)
	require.NoError(t, err)
	assert.True(t, cached.Cached)
	assert.Equal(t, stats.Summary, cached.Summary)

	_, err = e.statistics.AssessmentStats(e.ctx, e.student, e.assessment.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestServerStats_InvalidatedBySubmitAndGrade(t *testing.T) {
	e := newSubmitEnv(t)

	empty, err := e.statistics.ServerStats(e.ctx, e.owner, e.server.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Summary.Count)
	assert.Empty(t, empty.Summary.Histogram)

	// A pending essay does not count until it is graded.
	submitted, err := e.submissions.SubmitEssay(e.ctx, essayRequest(e, "essay"))
	require.NoError(t, err)

	afterSubmit, err := e.statistics.ServerStats(e.ctx, e.owner, e.server.ID)
	require.NoError(t, err)
	assert.False(t, afterSubmit.Cached)
	assert.Equal(t, 0, afterSubmit.Summary.Count)

	_, err = e.grading.Grade(e.ctx, e.owner, submitted.ResultID, &models.GradeRequest{Score: floatPtr(9)})
	require.NoError(t, err)

	afterGrade, err := e.statistics.ServerStats(e.ctx, e.owner, e.server.ID)
	require.NoError(t, err)
	assert.False(t, afterGrade.Cached)
	assert.Equal(t, 1, afterGrade.Summary.Count)
	assert.Equal(t, 9.0, afterGrade.Summary.Max)
}
