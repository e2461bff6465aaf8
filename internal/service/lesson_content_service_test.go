package service

import (
	"context"
	"errors"
	"invest_edu_backend/internal/compliance"
	"invest_edu_backend/internal/model"
	"invest_edu_backend/internal/repository"
	"invest_edu_backend/internal/testutil"
	"invest_edu_backend/internal/util"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const lessonMarkdown = "## What is a bond\n\nA bond is a loan you make to an issuer.\n\n## Key Takeaways\n\n- Bonds pay coupons\n- Prices move against rates"

func seedLesson(t *testing.T, repo *repository.ContentRepository) *model.Lesson {
	t.Helper()
	ctx := context.Background()
	course := &model.Course{Title: "Bond Investing Basics", Topic: "bonds", Level: model.LevelBeginner, CreatedBy: 1}
	require.NoError(t, repo.InsertCourse(ctx, course))
	module := &model.Module{CourseID: course.ID, Title: "Foundations"}
	require.NoError(t, repo.InsertModule(ctx, module))
	lesson := &model.Lesson{ModuleID: module.ID, Title: "What is a bond", ContentType: model.ContentArticle, DurationMinutes: 12}
	require.NoError(t, repo.InsertLesson(ctx, lesson))
	return lesson
}

func TestLessonContent_GeneratesOnceThenServesCache(t *testing.T) {
	repo := repository.NewContentRepository(testutil.NewTestDB(t))
	lesson := seedLesson(t, repo)
	ai := &scriptedAI{responses: []string{lessonMarkdown}}
	svc := NewLessonContentService(repo, ai)
	ctx := context.Background()

	first, err := svc.Resolve(ctx, lesson.ID)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.True(t, strings.HasPrefix(first.Content, lessonMarkdown))
	assert.Equal(t, "Foundations", first.ModuleTitle)
	assert.Equal(t, "Bond Investing Basics", first.CourseTitle)
	assert.Contains(t, ai.prompts[0], "What is a bond")
	assert.Contains(t, ai.prompts[0], "bonds")
	assert.Contains(t, ai.prompts[0], "Key Takeaways")

	second, err := svc.Resolve(ctx, lesson.ID)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Content, second.Content)
	assert.Equal(t, 1, ai.Calls())

	stored, err := repo.GetLessonWithContext(ctx, lesson.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsGenerated)
	require.NotNil(t, stored.ContentMarkdown)
	assert.Equal(t, first.Content, *stored.ContentMarkdown)
}

func TestLessonContent_NotFound(t *testing.T) {
	ai := &scriptedAI{}
	svc := NewLessonContentService(repository.NewContentRepository(testutil.NewTestDB(t)), ai)

	_, err := svc.Resolve(context.Background(), "no-such-lesson")
	assert.ErrorIs(t, err, util.ErrLessonNotFound)
	assert.Zero(t, ai.Calls())
}

func TestLessonContent_GenerationFailureLeavesLessonEmpty(t *testing.T) {
	repo := repository.NewContentRepository(testutil.NewTestDB(t))
	lesson := seedLesson(t, repo)
	svc := NewLessonContentService(repo, &scriptedAI{errs: []error{errors.New("503 from provider")}})

	_, err := svc.Resolve(context.Background(), lesson.ID)
	assert.ErrorIs(t, err, util.ErrGenerationUnavailable)

	stored, err := repo.GetLessonWithContext(context.Background(), lesson.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsGenerated)
	assert.Nil(t, stored.ContentMarkdown)
}

func TestLessonContent_EmptyOutputIsNotCached(t *testing.T) {
	repo := repository.NewContentRepository(testutil.NewTestDB(t))
	lesson := seedLesson(t, repo)
	svc := NewLessonContentService(repo, &scriptedAI{responses: []string{"  \n "}})

	_, err := svc.Resolve(context.Background(), lesson.ID)
	assert.ErrorIs(t, err, util.ErrMalformedGenerationOutput)

	stored, _ := repo.GetLessonWithContext(context.Background(), lesson.ID)
	assert.False(t, stored.IsGenerated)
}

func TestLessonContent_NonCompliantProseServedAsFallbackUncached(t *testing.T) {
	repo := repository.NewContentRepository(testutil.NewTestDB(t))
	lesson := seedLesson(t, repo)
	ai := &scriptedAI{responses: []string{"Treasuries are safe. You should buy 100 shares of TLT today.", lessonMarkdown}}
	svc := NewLessonContentService(repo, ai)
	ctx := context.Background()

	view, err := svc.Resolve(ctx, lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, compliance.SafeFallback(), view.Content)

	stored, _ := repo.GetLessonWithContext(ctx, lesson.ID)
	assert.False(t, stored.IsGenerated)

	view, err = svc.Resolve(ctx, lesson.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(view.Content, lessonMarkdown))
	assert.Equal(t, 2, ai.Calls())
}

func TestLessonContent_WriteFailureStillReturnsText(t *testing.T) {
	repo := repository.NewContentRepository(testutil.NewTestDB(t))
	lesson := seedLesson(t, repo)
	store := &flakyStore{CourseStore: repo, failUpdate: true}
	svc := NewLessonContentService(store, &scriptedAI{responses: []string{lessonMarkdown}})

	view, err := svc.Resolve(context.Background(), lesson.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(view.Content, lessonMarkdown))
	assert.EqualValues(t, 1, store.updates.Load())
}

func TestLessonContent_UsesTextFormatAndLessonPurpose(t *testing.T) {
	repo := repository.NewContentRepository(testutil.NewTestDB(t))
	lesson := seedLesson(t, repo)
	ai := new(mockAI)
	ai.On("Complete", mock.Anything, mock.AnythingOfType("string"), mock.MatchedBy(func(o CompletionOptions) bool {
		return o.ResponseFormat == FormatText && o.Purpose == "lesson_content"
	})).Return("```markdown\n"+lessonMarkdown+"\n```", nil).Once()

	view, err := NewLessonContentService(repo, ai).Resolve(context.Background(), lesson.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(view.Content, lessonMarkdown))
	ai.AssertExpectations(t)
}
