package constants

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockConstants(t *testing.T) {
	t.Run("LockRetryInterval is quick relative to the acquire window", func(t *testing.T) {
		assert.Equal(t, 50*time.Millisecond, LockRetryInterval)
		assert.Less(t, LockRetryInterval, LockAcquireTimeout, "should retry many times within the window")
	})

	t.Run("LockAcquireTimeout rides out a writer burst", func(t *testing.T) {
		assert.Equal(t, 5*time.Second, LockAcquireTimeout)
		assert.GreaterOrEqual(t, LockAcquireTimeout, time.Second, "must outlast many serialized rewrites")
	})

	t.Run("LockStaleThreshold exceeds the acquire window", func(t *testing.T) {
		assert.Equal(t, 10*time.Second, LockStaleThreshold)
		// A live writer must never look stale while a competitor is still retrying.
		assert.Greater(t, LockStaleThreshold, LockAcquireTimeout)
	})
}

func TestPollingConstants(t *testing.T) {
	t.Run("receive poll interval is well below the default timeout", func(t *testing.T) {
		assert.Less(t, DefaultReceivePollInterval, DefaultReceiveTimeout)
	})

	t.Run("task wait poll interval is well below the default timeout", func(t *testing.T) {
		assert.Less(t, DefaultTaskWaitPollInterval, DefaultTaskWaitTimeout)
	})

	t.Run("background poll interval is reasonable", func(t *testing.T) {
		assert.Equal(t, time.Second, DefaultInboxPollInterval)
	})
}

func TestRetentionConstants(t *testing.T) {
	t.Run("mailbox cap allows a realistic conversation", func(t *testing.T) {
		assert.Equal(t, 500, DefaultMailboxMaxEntries)
		assert.Greater(t, DefaultMailboxMaxEntries, 100)
	})
}

func TestProcessManagementConstants(t *testing.T) {
	t.Run("ShutdownGracePeriod allows graceful shutdown", func(t *testing.T) {
		assert.Equal(t, 5*time.Second, ShutdownGracePeriod)
		assert.GreaterOrEqual(t, ShutdownGracePeriod, time.Second, "should give processes time to terminate")
	})
}

func TestNamingConstants(t *testing.T) {
	tests := []struct {
		name     string
		constant string
		expected string
	}{
		{"TeamConfigFileName", TeamConfigFileName, "config.json"},
		{"LockFileSuffix", LockFileSuffix, ".lock"},
		{"TeamsDir", TeamsDir, "teams"},
		{"InboxesDir", InboxesDir, "inboxes"},
		{"TasksDir", TasksDir, "tasks"},
		{"CompanionHome", CompanionHome, ".companion"},
		{"DefaultLeadName", DefaultLeadName, "lead"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.constant)
		})
	}
}
