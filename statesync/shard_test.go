package statesync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDownloadSlotStartsArmed(t *testing.T) {
	slot := NewDownloadSlot(time.Now())
	assert.True(t, slot.RunMe())
}

func TestDownloadSlotTryArmIsExclusive(t *testing.T) {
	slot := NewDownloadSlot(time.Now())
	assert.True(t, slot.TryArm())
	assert.False(t, slot.TryArm(), "a second TryArm before Rearm must fail")
}

func TestDownloadSlotRearmAfterClaim(t *testing.T) {
	slot := NewDownloadSlot(time.Now())
	assert.True(t, slot.TryArm())
	slot.Rearm()
	assert.True(t, slot.RunMe())
	assert.True(t, slot.TryArm())
}

func TestShardSyncDownloadResetReturnsToDownloadHeader(t *testing.T) {
	d := NewShardSyncDownload(time.Now())
	d.Status = StatusApplyFinalizing
	d.Downloads = nil

	d.Reset(time.Now())
	assert.Equal(t, StatusDownloadHeader, d.Status)
	assert.Len(t, d.Downloads, 1)
	assert.True(t, d.Downloads[0].RunMe())
}
