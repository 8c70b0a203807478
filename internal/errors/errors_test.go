package errors

import (
	stderrors "errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageErrorMessages(t *testing.T) {
	cause := stderrors.New("missing glyph outline")

	tests := []struct {
		stage Stage
		want  string
	}{
		{StageSVG, "SVG processing failed: missing glyph outline"},
		{StageFont, "Font generation failed: missing glyph outline"},
		{StageDemo, "Demo generation failed: missing glyph outline"},
	}

	for _, tt := range tests {
		t.Run(tt.stage.String(), func(t *testing.T) {
			err := NewStageError(tt.stage, cause)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestStageErrorWithoutCause(t *testing.T) {
	err := NewStageError(StageFont, nil)
	assert.Equal(t, "Font generation failed", err.Error())
	assert.Nil(t, stderrors.Unwrap(err))
}

func TestStageErrorUnwrapAndIs(t *testing.T) {
	cause := stderrors.New("stream closed")
	err := fmt.Errorf("pipeline: %w", NewStageError(StageSVG, cause))

	assert.True(t, stderrors.Is(err, &StageError{Stage: StageSVG}))
	assert.False(t, stderrors.Is(err, &StageError{Stage: StageDemo}))
	assert.True(t, stderrors.Is(err, cause))

	stage, ok := StageOf(err)
	require.True(t, ok)
	assert.Equal(t, StageSVG, stage)
}

func TestConfigurationError(t *testing.T) {
	err := NewConfigurationError("fontName", "must not be empty")
	assert.Equal(t, "invalid configuration: fontName: must not be empty", err.Error())
	assert.True(t, IsConfiguration(err))
	assert.True(t, IsConfiguration(fmt.Errorf("load: %w", err)))
	assert.False(t, IsConfiguration(stderrors.New("other")))
}

func TestCollectorConcurrentAdd(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c.Add(fmt.Errorf("icon %d unreadable", n))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, c.Len())
	assert.True(t, c.HasErrors())

	c.Clear()
	assert.False(t, c.HasErrors())
	assert.Empty(t, c.All())
}

func TestCollectorIgnoresNil(t *testing.T) {
	c := NewCollector()
	c.Add(nil)
	assert.Zero(t, c.Len())
}
