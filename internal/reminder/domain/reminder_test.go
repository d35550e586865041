package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsDueForFollowUp(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	cases := []struct {
		name string
		r    Reminder
		want bool
	}{
		{"due", Reminder{AutoFollowUp: true, Status: StatusPending, NextFollowUpAt: &past}, true},
		{"exactly now", Reminder{AutoFollowUp: true, Status: StatusPending, NextFollowUpAt: &now}, true},
		{"in the future", Reminder{AutoFollowUp: true, Status: StatusPending, NextFollowUpAt: &future}, false},
		{"auto follow-up off", Reminder{AutoFollowUp: false, Status: StatusPending, NextFollowUpAt: &past}, false},
		{"completed", Reminder{AutoFollowUp: true, Status: StatusCompleted, NextFollowUpAt: &past}, false},
		{"never scheduled", Reminder{AutoFollowUp: true, Status: StatusPending}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.r.IsDueForFollowUp(now))
		})
	}
}

func TestEnumValidation(t *testing.T) {
	assert.True(t, PriorityUrgent.Valid())
	assert.False(t, Priority("critical").Valid())
	assert.True(t, TypeCustom.Valid())
	assert.False(t, ReminderType("meeting").Valid())
	assert.True(t, StatusCompleted.Valid())
	assert.False(t, ReminderStatus("in_progress").Valid())
}

func TestStringPtr(t *testing.T) {
	assert.Nil(t, StringPtr(""))
	assert.Equal(t, "x", StringValue(StringPtr("x")))
	assert.Equal(t, "", StringValue(nil))
}
