package repo_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
)

func TestNotificationRepo_Lifecycle(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	alice := createUser(t, r, "alice")
	bob := createUser(t, r, "bob")
	trip := createTrip(t, r, alice)

	n, err := r.Notifications.Create(ctx, domain.Notification{
		Kind:       domain.NotifyTripShare,
		SenderID:   alice.ID,
		ReceiverID: bob.ID,
		SubjectID:  trip.ID,
		Message:    "join me",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.NotificationPending, n.Status)

	pending, err := r.Notifications.ListByReceiver(ctx, bob.ID, true)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	locked, err := r.Notifications.LockByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, trip.ID, locked.SubjectID)

	require.NoError(t, r.Notifications.UpdateStatus(ctx, n.ID, domain.NotificationAccepted))

	pending, err = r.Notifications.ListByReceiver(ctx, bob.ID, true)
	require.NoError(t, err)
	assert.Empty(t, pending)

	all, err := r.Notifications.ListByReceiver(ctx, bob.ID, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, domain.NotificationAccepted, all[0].Status)

	require.NoError(t, r.Notifications.DeleteBySubjects(ctx, []uuid.UUID{trip.ID}))
	_, err = r.Notifications.LockByID(ctx, n.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNotificationRepo_ResolvePending(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	alice := createUser(t, r, "alice")
	bob := createUser(t, r, "bob")
	trip := createTrip(t, r, alice)

	for range 2 {
		_, err := r.Notifications.Create(ctx, domain.Notification{
			Kind:       domain.NotifyTripShare,
			SenderID:   alice.ID,
			ReceiverID: bob.ID,
			SubjectID:  trip.ID,
		})
		require.NoError(t, err)
	}

	require.NoError(t, r.Notifications.ResolvePending(ctx, trip.ID, bob.ID, domain.NotificationRejected))

	all, err := r.Notifications.ListByReceiver(ctx, bob.ID, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, n := range all {
		assert.Equal(t, domain.NotificationRejected, n.Status)
	}
}

func TestReviewRepo_OnePerUser(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	alice := createUser(t, r, "alice")
	trip := createTrip(t, r, alice)

	rv, err := r.Reviews.Create(ctx, domain.Review{TripID: trip.ID, UserID: alice.ID, Rating: 5, Comment: "great"})
	require.NoError(t, err)
	assert.Equal(t, 5, rv.Rating)

	_, err = r.Reviews.Create(ctx, domain.Review{TripID: trip.ID, UserID: alice.ID, Rating: 3})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestReviewRepo_ListAndDelete(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	alice := createUser(t, r, "alice")
	bob := createUser(t, r, "bob")
	trip := createTrip(t, r, alice, bob)

	for _, u := range []domain.User{alice, bob} {
		_, err := r.Reviews.Create(ctx, domain.Review{TripID: trip.ID, UserID: u.ID, Rating: 4})
		require.NoError(t, err)
	}

	list, err := r.Reviews.ListByTrip(ctx, trip.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, r.Reviews.DeleteByTrip(ctx, trip.ID))
	list, err = r.Reviews.ListByTrip(ctx, trip.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
