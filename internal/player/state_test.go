package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "recovering", StateRecovering.String())
	assert.Equal(t, "terminated", StateTerminated.String())
	assert.Equal(t, "unknown(9)", State(9).String())
	assert.Equal(t, "manifest_parsed", TriggerManifestParsed.String())
	assert.Equal(t, "unknown(-1)", Trigger(-1).String())
	assert.Equal(t, "buffering", ActivityBuffering.String())
}

func TestPermitted(t *testing.T) {
	tests := []struct {
		trigger Trigger
		allowed []State
	}{
		{TriggerLoad, []State{StateIdle, StateTerminated}},
		{TriggerManifestParsed, []State{StateConnecting}},
		{TriggerLevelSwitched, []State{StateConnecting, StateLive, StateVod}},
		{TriggerFragmentLoaded, []State{StateConnecting, StateLive, StateVod}},
		{TriggerEngineError, []State{StateConnecting, StateLive, StateVod}},
		{TriggerPlaying, []State{StateConnecting, StateLive, StateVod}},
		{TriggerBuffering, []State{StateConnecting, StateLive, StateVod}},
		{TriggerPlaybackError, []State{StateConnecting, StateLive, StateVod}},
		{TriggerDestroy, allStates},
	}

	for _, tt := range tests {
		t.Run(tt.trigger.String(), func(t *testing.T) {
			for _, s := range allStates {
				assert.Equal(t, contains(tt.allowed, s), permitted(s, tt.trigger), "state %s", s)
			}
		})
	}
}

func TestNothingAcceptedWhileRecovering(t *testing.T) {
	for trigger := TriggerLoad; trigger < TriggerDestroy; trigger++ {
		assert.False(t, permitted(StateRecovering, trigger), trigger.String())
	}
}

func TestTriggerFor(t *testing.T) {
	tests := []struct {
		event Event
		want  Trigger
	}{
		{ManifestParsed{}, TriggerManifestParsed},
		{LevelSwitched{}, TriggerLevelSwitched},
		{FragmentLoaded{}, TriggerFragmentLoaded},
		{EngineError{}, TriggerEngineError},
		{Playing{}, TriggerPlaying},
		{Buffering{}, TriggerBuffering},
		{PlaybackError{}, TriggerPlaybackError},
	}
	for _, tt := range tests {
		got, ok := triggerFor(tt.event)
		assert.True(t, ok, eventName(tt.event))
		assert.Equal(t, tt.want, got, eventName(tt.event))
	}

	_, ok := triggerFor(nil)
	assert.False(t, ok)
}

func contains(states []State, s State) bool {
	for _, candidate := range states {
		if candidate == s {
			return true
		}
	}
	return false
}
