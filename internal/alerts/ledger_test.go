package alerts_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcity/firewatch/internal/alerts"
	"github.com/smartcity/firewatch/internal/cameras"
)

func testCamera(id string) cameras.Camera {
	return cameras.Camera{
		ID:        id,
		Name:      "Test " + id,
		Location:  "Test Location",
		Address:   "1 Test Street",
		Latitude:  37.77,
		Longitude: -122.41,
	}
}

func TestLedgerCreate(t *testing.T) {
	t.Run("should create active alert from camera snapshot", func(t *testing.T) {
		ledger := alerts.NewLedger()

		alert, err := ledger.Create(testCamera("cam-1"), 0.91)
		require.NoError(t, err)

		assert.NotEmpty(t, alert.ID)
		assert.Equal(t, "cam-1", alert.CameraID)
		assert.Equal(t, "Test Location", alert.Location)
		assert.Equal(t, 0.91, alert.Confidence)
		assert.Equal(t, alerts.StatusActive, alert.Status)
		assert.False(t, alert.CreatedAt.IsZero())
		assert.Nil(t, alert.ResolvedAt)
	})

	t.Run("should reject second active alert for same camera", func(t *testing.T) {
		ledger := alerts.NewLedger()

		_, err := ledger.Create(testCamera("cam-1"), 0.9)
		require.NoError(t, err)

		_, err = ledger.Create(testCamera("cam-1"), 0.95)
		assert.ErrorIs(t, err, alerts.ErrDuplicateActiveAlert)
	})

	t.Run("should allow new alert after previous one resolved", func(t *testing.T) {
		ledger := alerts.NewLedger()

		first, err := ledger.Create(testCamera("cam-1"), 0.9)
		require.NoError(t, err)
		require.True(t, ledger.Resolve(first.ID))

		second, err := ledger.Create(testCamera("cam-1"), 0.85)
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("should generate unique ids for alerts created back to back", func(t *testing.T) {
		ledger := alerts.NewLedger()

		a, err := ledger.Create(testCamera("cam-1"), 0.9)
		require.NoError(t, err)
		b, err := ledger.Create(testCamera("cam-2"), 0.9)
		require.NoError(t, err)

		assert.NotEqual(t, a.ID, b.ID)
	})
}

func TestLedgerOrdering(t *testing.T) {
	t.Run("should return alerts most recent first", func(t *testing.T) {
		ledger := alerts.NewLedger()

		a, err := ledger.Create(testCamera("cam-1"), 0.9)
		require.NoError(t, err)
		b, err := ledger.Create(testCamera("cam-2"), 0.85)
		require.NoError(t, err)

		all := ledger.All()
		require.Len(t, all, 2)
		assert.Equal(t, b.ID, all[0].ID)
		assert.Equal(t, a.ID, all[1].ID)
	})

	t.Run("should preserve ordering across status queries", func(t *testing.T) {
		ledger := alerts.NewLedger()

		a, _ := ledger.Create(testCamera("cam-1"), 0.9)
		b, _ := ledger.Create(testCamera("cam-2"), 0.85)
		c, _ := ledger.Create(testCamera("cam-3"), 0.95)
		require.True(t, ledger.Resolve(b.ID))

		active := ledger.Active()
		require.Len(t, active, 2)
		assert.Equal(t, c.ID, active[0].ID)
		assert.Equal(t, a.ID, active[1].ID)

		resolved := ledger.Resolved()
		require.Len(t, resolved, 1)
		assert.Equal(t, b.ID, resolved[0].ID)

		// History stays queryable after resolution.
		assert.Len(t, ledger.All(), 3)
	})
}

func TestLedgerResolve(t *testing.T) {
	t.Run("should transition active to resolved exactly once", func(t *testing.T) {
		ledger := alerts.NewLedger()

		alert, _ := ledger.Create(testCamera("cam-1"), 0.9)

		assert.True(t, ledger.Resolve(alert.ID))

		got, ok := ledger.Get(alert.ID)
		require.True(t, ok)
		assert.Equal(t, alerts.StatusResolved, got.Status)
		require.NotNil(t, got.ResolvedAt)
		firstResolvedAt := *got.ResolvedAt

		// Second resolve is a no-op and keeps the original timestamp.
		assert.False(t, ledger.Resolve(alert.ID))
		got, _ = ledger.Get(alert.ID)
		assert.Equal(t, firstResolvedAt, *got.ResolvedAt)
	})

	t.Run("should treat unknown id as no-op", func(t *testing.T) {
		ledger := alerts.NewLedger()
		assert.False(t, ledger.Resolve("no-such-alert"))
	})

	t.Run("should resolve all active alerts in bulk", func(t *testing.T) {
		ledger := alerts.NewLedger()

		ledger.Create(testCamera("cam-1"), 0.9)
		ledger.Create(testCamera("cam-2"), 0.85)
		ledger.Create(testCamera("cam-3"), 0.95)

		assert.Equal(t, 3, ledger.ResolveAllActive())
		assert.Empty(t, ledger.Active())
		assert.Equal(t, 0, ledger.ResolveAllActive())
	})

	t.Run("should resolve per camera", func(t *testing.T) {
		ledger := alerts.NewLedger()

		ledger.Create(testCamera("cam-1"), 0.9)
		other, _ := ledger.Create(testCamera("cam-2"), 0.85)

		assert.Equal(t, 1, ledger.ResolveAllForCamera("cam-1"))
		assert.False(t, ledger.HasActive("cam-1"))
		assert.True(t, ledger.HasActive("cam-2"))

		got, _ := ledger.Get(other.ID)
		assert.Equal(t, alerts.StatusActive, got.Status)
	})
}

func TestLedgerUpdateConfidence(t *testing.T) {
	t.Run("should refresh confidence on active alert", func(t *testing.T) {
		ledger := alerts.NewLedger()

		alert, _ := ledger.Create(testCamera("cam-1"), 0.82)
		assert.True(t, ledger.UpdateConfidence(alert.ID, 0.97))

		got, _ := ledger.Get(alert.ID)
		assert.Equal(t, 0.97, got.Confidence)
	})

	t.Run("should not touch resolved alerts", func(t *testing.T) {
		ledger := alerts.NewLedger()

		alert, _ := ledger.Create(testCamera("cam-1"), 0.82)
		ledger.Resolve(alert.ID)

		assert.False(t, ledger.UpdateConfidence(alert.ID, 0.97))
		got, _ := ledger.Get(alert.ID)
		assert.Equal(t, 0.82, got.Confidence)
	})
}

func TestLedgerSnapshotIsolation(t *testing.T) {
	t.Run("mutating returned alerts should not affect ledger state", func(t *testing.T) {
		ledger := alerts.NewLedger()
		alert, _ := ledger.Create(testCamera("cam-1"), 0.9)

		all := ledger.All()
		all[0].Status = alerts.StatusResolved
		all[0].Confidence = 0

		got, _ := ledger.Get(alert.ID)
		assert.Equal(t, alerts.StatusActive, got.Status)
		assert.Equal(t, 0.9, got.Confidence)
	})
}
