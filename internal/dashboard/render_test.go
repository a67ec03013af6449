package dashboard

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/refrainhq/refrain-cli/internal/api"
)

func TestRender(t *testing.T) {
	t.Run("loading state", func(t *testing.T) {
		var buf strings.Builder
		Render(&buf, Snapshot{Loading: true})

		assert.Contains(t, buf.String(), "Loading your dashboard...")
	})

	t.Run("profile and history", func(t *testing.T) {
		duration := 95
		var buf strings.Builder
		Render(&buf, Snapshot{
			Profile: testProfile(),
			Calls: []api.CallRecord{
				{
					StartedAt:       time.Date(2026, 8, 12, 9, 30, 0, 0, time.UTC),
					Status:          "completed",
					DurationSeconds: &duration,
				},
				{
					StartedAt: time.Date(2026, 8, 13, 18, 0, 0, 0, time.UTC),
					Status:    "missed",
				},
			},
		})

		out := buf.String()
		assert.Contains(t, out, "Alex")
		assert.Contains(t, out, "+46790081878")
		assert.Contains(t, out, "No notes added")
		assert.Contains(t, out, "2026-08-12 09:30")
		assert.Contains(t, out, "duration: 95s")
		assert.Contains(t, out, "duration: N/A")
	})

	t.Run("empty history", func(t *testing.T) {
		var buf strings.Builder
		Render(&buf, Snapshot{Profile: testProfile()})

		assert.Contains(t, buf.String(), "No calls yet")
	})

	t.Run("inline errors do not hide loaded sections", func(t *testing.T) {
		var buf strings.Builder
		Render(&buf, Snapshot{
			Profile:    testProfile(),
			HistoryErr: "Failed to load call history",
		})

		out := buf.String()
		assert.Contains(t, out, "Alex")
		assert.Contains(t, out, "Failed to load call history")
	})
}
