package tests

// User story tests for the ConectOne schools platform. Each story drives a
// real service over the Postgres repositories with sqlmock underneath, so
// the SQL the services emit is validated end to end without a database.

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/notify"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/repository/postgres"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/adverts"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/events"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/messaging"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/schools"
)

// =============================================================================
// TEST INFRASTRUCTURE
// =============================================================================

// TestContext holds shared test infrastructure.
type TestContext struct {
	DB     *sql.DB
	Mock   sqlmock.Sqlmock
	Redis  *redis.Client
	MiniR  *miniredis.Miniredis
	Ctx    context.Context
	Cancel context.CancelFunc
}

func setupTestContext(t *testing.T) *TestContext {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	mr, err := miniredis.Run()
	require.NoError(t, err)

	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	return &TestContext{
		DB:     db,
		Mock:   mock,
		Redis:  redisClient,
		MiniR:  mr,
		Ctx:    ctx,
		Cancel: cancel,
	}
}

func (tc *TestContext) Cleanup() {
	tc.Cancel()
	tc.DB.Close()
	tc.Redis.Close()
	tc.MiniR.Close()
}

// =============================================================================
// US-001: School onboarding
// =============================================================================

func TestUS001_SchoolOnboarding(t *testing.T) {
	tc := setupTestContext(t)
	defer tc.Cleanup()

	svc := schools.NewService(postgres.NewSchoolsRepo(tc.DB))

	var schoolID, learnerID, parentID string

	t.Run("Criterion1_RegisterSchool", func(t *testing.T) {
		tc.Mock.ExpectExec("INSERT INTO schools").
			WillReturnResult(sqlmock.NewResult(0, 1))

		sc, err := svc.CreateSchool(tc.Ctx, schools.CreateSchoolInput{
			Name:     "Greenfield Primary",
			City:     "Durban",
			Province: "KwaZulu-Natal",
		})
		require.NoError(t, err)
		require.NotEmpty(t, sc.ID)
		schoolID = sc.ID
	})

	t.Run("Criterion2_EnrollLearner", func(t *testing.T) {
		tc.Mock.ExpectExec("INSERT INTO learners").
			WillReturnResult(sqlmock.NewResult(0, 1))

		l, err := svc.CreateLearner(tc.Ctx, schoolID, schools.CreateLearnerInput{
			FirstName:   "Naledi",
			LastName:    "Khumalo",
			Email:       "naledi@example.com",
			DateOfBirth: time.Date(2015, 3, 12, 0, 0, 0, 0, time.UTC),
			Grade:       "4",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.LearnerEnrolled, l.Status)
		learnerID = l.ID
	})

	t.Run("Criterion3_DuplicateLearnerEmailRejected", func(t *testing.T) {
		// The upsert inserts nothing when (school_id, email) already exists.
		tc.Mock.ExpectExec("INSERT INTO learners").
			WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := svc.CreateLearner(tc.Ctx, schoolID, schools.CreateLearnerInput{
			FirstName:   "Naledi",
			LastName:    "Khumalo",
			Email:       "naledi@example.com",
			DateOfBirth: time.Date(2015, 3, 12, 0, 0, 0, 0, time.UTC),
		})
		require.ErrorIs(t, err, schools.ErrDuplicateEmail)
	})

	t.Run("Criterion4_RegisterParentAndLink", func(t *testing.T) {
		tc.Mock.ExpectExec("INSERT INTO parents").
			WillReturnResult(sqlmock.NewResult(0, 1))

		p, err := svc.CreateParent(tc.Ctx, schools.CreateParentInput{
			FirstName: "Thabo",
			LastName:  "Khumalo",
			Email:     "thabo@example.com",
		})
		require.NoError(t, err)
		parentID = p.ID

		tc.Mock.ExpectQuery("SELECT EXISTS").
			WithArgs(parentID, learnerID).
			WillReturnRows(sqlmock.NewRows([]string{"parent", "learner"}).AddRow(true, true))
		tc.Mock.ExpectExec("INSERT INTO guardianships").
			WithArgs(parentID, learnerID, "father").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = svc.LinkLearner(tc.Ctx, parentID, learnerID, "father")
		require.NoError(t, err)
	})

	t.Run("Criterion5_LinkToUnknownLearnerFails", func(t *testing.T) {
		ghost := uuid.New().String()
		tc.Mock.ExpectQuery("SELECT EXISTS").
			WithArgs(parentID, ghost).
			WillReturnRows(sqlmock.NewRows([]string{"parent", "learner"}).AddRow(true, false))

		err := svc.LinkLearner(tc.Ctx, parentID, ghost, "")
		require.ErrorIs(t, err, schools.ErrLearnerNotFound)
	})

	require.NoError(t, tc.Mock.ExpectationsWereMet())
}

// =============================================================================
// US-002: Parent newsletter fan-out
// =============================================================================

func TestUS002_ParentNewsletterFanOut(t *testing.T) {
	tc := setupTestContext(t)
	defer tc.Cleanup()

	svc := messaging.NewService(postgres.NewMessagesRepo(tc.DB), notify.NewTemplateService())

	schoolID := uuid.New().String()
	messageID := uuid.New().String()
	now := time.Now()

	messageRow := func(status domain.MessageStatus) *sqlmock.Rows {
		return sqlmock.NewRows([]string{
			"id", "school_id", "subject", "body", "sender_name", "sender_email",
			"audience", "audience_ref", "status", "scheduled_at", "with_push",
			"total_count", "sent_count", "failed_count", "skipped_count",
			"queued_at", "completed_at", "created_at", "updated_at",
		}).AddRow(
			messageID, schoolID, "Term 2 Newsletter",
			"Hi {{ first_name }}, news from {{ school_name }}.",
			"The Office", "office@greenfield.example", "parents", nil,
			string(status), nil, false, 0, 0, 0, 0, nil, nil, now, now,
		)
	}

	t.Run("Criterion1_AudienceResolvedAndDeduplicated", func(t *testing.T) {
		tc.Mock.ExpectQuery("FROM messages WHERE").
			WithArgs(messageID, schoolID).
			WillReturnRows(messageRow(domain.MessageDraft))

		// Two parents share a learner, so one comes back twice with a case
		// change. Only two deliveries may be queued.
		tc.Mock.ExpectQuery("SELECT DISTINCT p.first_name").
			WithArgs(schoolID).
			WillReturnRows(sqlmock.NewRows([]string{"name", "email"}).
				AddRow("Thabo Khumalo", "thabo@example.com").
				AddRow("Lerato Dlamini", "lerato@example.com").
				AddRow("L. Dlamini", "LERATO@example.com"))

		tc.Mock.ExpectQuery("SELECT name FROM schools").
			WithArgs(schoolID).
			WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Greenfield Primary"))

		tc.Mock.ExpectBegin()
		tc.Mock.ExpectExec("INSERT INTO message_recipients").
			WillReturnResult(sqlmock.NewResult(0, 1))
		tc.Mock.ExpectExec("INSERT INTO message_recipients").
			WillReturnResult(sqlmock.NewResult(0, 1))
		tc.Mock.ExpectExec("INSERT INTO notification_outbox").
			WillReturnResult(sqlmock.NewResult(0, 1))
		tc.Mock.ExpectExec("INSERT INTO notification_outbox").
			WillReturnResult(sqlmock.NewResult(0, 1))
		tc.Mock.ExpectExec("UPDATE messages").
			WithArgs(messageID, 2).
			WillReturnResult(sqlmock.NewResult(0, 1))
		tc.Mock.ExpectCommit()

		report, err := svc.Send(tc.Ctx, schoolID, messageID)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Queued)
		assert.Empty(t, report.Warnings)
	})

	t.Run("Criterion2_QueuedMessageCannotBeResent", func(t *testing.T) {
		tc.Mock.ExpectQuery("FROM messages WHERE").
			WithArgs(messageID, schoolID).
			WillReturnRows(messageRow(domain.MessageQueued))

		_, err := svc.Send(tc.Ctx, schoolID, messageID)
		require.ErrorIs(t, err, messaging.ErrNotSendable)
	})

	t.Run("Criterion3_EmptyAudienceIsAnError", func(t *testing.T) {
		tc.Mock.ExpectQuery("FROM messages WHERE").
			WithArgs(messageID, schoolID).
			WillReturnRows(messageRow(domain.MessageDraft))
		tc.Mock.ExpectQuery("SELECT DISTINCT p.first_name").
			WithArgs(schoolID).
			WillReturnRows(sqlmock.NewRows([]string{"name", "email"}))
		tc.Mock.ExpectQuery("SELECT name FROM schools").
			WithArgs(schoolID).
			WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Greenfield Primary"))

		_, err := svc.Send(tc.Ctx, schoolID, messageID)
		require.ErrorIs(t, err, messaging.ErrNoRecipients)
	})

	require.NoError(t, tc.Mock.ExpectationsWereMet())
}

// =============================================================================
// US-003: Event cancellation notices
// =============================================================================

func TestUS003_EventCancellationNotices(t *testing.T) {
	tc := setupTestContext(t)
	defer tc.Cleanup()

	svc := events.NewService(postgres.NewEventsRepo(tc.DB))

	schoolID := uuid.New().String()
	eventID := uuid.New().String()
	now := time.Now()

	eventRow := func(status domain.EventStatus) *sqlmock.Rows {
		return sqlmock.NewRows([]string{
			"id", "school_id", "title", "description", "venue",
			"starts_at", "ends_at", "capacity", "cover_image_url", "status",
			"going_count", "created_at", "updated_at",
		}).AddRow(
			eventID, schoolID, "Sports Day", "Annual athletics", "Main field",
			now.Add(48*time.Hour), now.Add(54*time.Hour), 200, "", string(status),
			3, now, now,
		)
	}

	t.Run("Criterion1_CancellingQueuesNoticeForEveryAttendee", func(t *testing.T) {
		tc.Mock.ExpectQuery("FROM school_events e").
			WithArgs(eventID, schoolID).
			WillReturnRows(eventRow(domain.EventPublished))
		tc.Mock.ExpectExec("UPDATE school_events SET status").
			WithArgs("cancelled", eventID, schoolID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		// Three RSVPs that have not declined become three outbox rows.
		tc.Mock.ExpectExec("INSERT INTO notification_outbox").
			WithArgs(eventID).
			WillReturnResult(sqlmock.NewResult(0, 3))

		n, err := svc.Cancel(tc.Ctx, schoolID, eventID)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("Criterion2_CancelledEventStaysCancelled", func(t *testing.T) {
		tc.Mock.ExpectQuery("FROM school_events e").
			WithArgs(eventID, schoolID).
			WillReturnRows(eventRow(domain.EventCancelled))

		_, err := svc.Cancel(tc.Ctx, schoolID, eventID)
		require.ErrorIs(t, err, events.ErrInvalidTransition)
	})

	require.NoError(t, tc.Mock.ExpectationsWereMet())
}

// =============================================================================
// US-004: Dispatch rate budget
// =============================================================================

func TestUS004_DispatchRateBudget(t *testing.T) {
	tc := setupTestContext(t)
	defer tc.Cleanup()

	rl := notify.NewRateLimiter(tc.Redis)
	rl.SetEmailPerSecond(2)

	t.Run("Criterion1_OverBudgetReservationDenied", func(t *testing.T) {
		allowed, wait, err := rl.CheckAndIncrement(tc.Ctx, domain.ChannelEmail, 3)
		require.NoError(t, err)
		assert.False(t, allowed)
		assert.Equal(t, time.Second, wait)
	})

	t.Run("Criterion2_BudgetSizedReservationAllowed", func(t *testing.T) {
		allowed, wait, err := rl.CheckAndIncrement(tc.Ctx, domain.ChannelEmail, 2)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Zero(t, wait)
	})

	t.Run("Criterion3_UsageReflectsConfiguredLimit", func(t *testing.T) {
		usage, err := rl.Usage(tc.Ctx, domain.ChannelEmail)
		require.NoError(t, err)
		assert.Equal(t, int64(2), usage["second_limit"])
		assert.Equal(t, int64(2), usage["daily_current"])
	})

	t.Run("Criterion4_PushChannelKeepsItsOwnBudget", func(t *testing.T) {
		allowed, _, err := rl.CheckAndIncrement(tc.Ctx, domain.ChannelPush, 1)
		require.NoError(t, err)
		assert.True(t, allowed)
	})
}

// =============================================================================
// US-005: Advert beacons
// =============================================================================

func TestUS005_AdvertBeacons(t *testing.T) {
	tc := setupTestContext(t)
	defer tc.Cleanup()

	svc := adverts.NewService(postgres.NewAdvertsRepo(tc.DB))

	advertID := uuid.New().String()

	t.Run("Criterion1_ImpressionIncrementsCounter", func(t *testing.T) {
		tc.Mock.ExpectExec("UPDATE adverts SET impressions").
			WithArgs(advertID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, svc.RecordImpression(tc.Ctx, advertID))
	})

	t.Run("Criterion2_ClickIncrementsCounter", func(t *testing.T) {
		tc.Mock.ExpectExec("UPDATE adverts SET clicks").
			WithArgs(advertID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, svc.RecordClick(tc.Ctx, advertID))
	})

	t.Run("Criterion3_UnknownAdvertReported", func(t *testing.T) {
		ghost := uuid.New().String()
		tc.Mock.ExpectExec("UPDATE adverts SET impressions").
			WithArgs(ghost).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := svc.RecordImpression(tc.Ctx, ghost)
		require.ErrorIs(t, err, adverts.ErrNotFound)
	})

	require.NoError(t, tc.Mock.ExpectationsWereMet())
}
