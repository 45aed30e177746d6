package testutil

import (
	"context"
	"errors"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clickreel/clickreel/internal/reel"
)

func TestScriptedSource_ReplaysInOrder(t *testing.T) {
	src := NewScriptedSource(SolidCaptures(3, 4, 4)...)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		img, err := src.Capture(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint8(20*i), img.RGBAAt(0, 0).R, "capture %d out of order", i)
	}
	assert.Equal(t, 3, src.Calls())
}

func TestScriptedSource_Exhausted(t *testing.T) {
	src := NewScriptedSource(SolidCaptures(1, 4, 4)...)
	ctx := context.Background()

	_, err := src.Capture(ctx)
	require.NoError(t, err)

	_, err = src.Capture(ctx)
	require.Error(t, err)
	assert.True(t, reel.IsCode(err, reel.ErrCodeCaptureFailure))
}

func TestScriptedSource_ScriptedFailure(t *testing.T) {
	boom := errors.New("boom")
	src := NewScriptedSource(Capture{Err: boom})

	_, err := src.Capture(context.Background())
	require.Error(t, err)
	assert.True(t, reel.IsCode(err, reel.ErrCodeCaptureFailure))
	assert.True(t, errors.Is(err, boom))
}

func TestScriptedSource_GateBlocksUntilReleased(t *testing.T) {
	src := NewScriptedSource(SolidCaptures(1, 4, 4)...)
	src.Gate = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := src.Capture(context.Background())
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("capture completed before the gate opened")
	default:
	}

	src.Gate <- struct{}{}
	require.NoError(t, <-done)
}

func TestScriptedSource_GateHonorsCancellation(t *testing.T) {
	src := NewScriptedSource(SolidCaptures(1, 4, 4)...)
	src.Gate = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Capture(ctx)
	require.Error(t, err)
	assert.True(t, reel.IsCode(err, reel.ErrCodeCaptureFailure))
	assert.Equal(t, 0, src.Calls(), "a cancelled capture consumes no script entry")
}

func TestSolidImage(t *testing.T) {
	c := color.RGBA{R: 0x11, G: 0x22, B: 0x33, A: 0xff}
	img := SolidImage(5, 3, c)
	assert.Equal(t, 5, img.Bounds().Dx())
	assert.Equal(t, 3, img.Bounds().Dy())
	assert.Equal(t, c, img.RGBAAt(4, 2))
}

func TestSequentialIDs(t *testing.T) {
	gen := SequentialIDs("reel")
	assert.Equal(t, "reel-0001", gen())
	assert.Equal(t, "reel-0002", gen())

	other := SequentialIDs("frame")
	assert.Equal(t, "frame-0001", other(), "generators are independent")
}
