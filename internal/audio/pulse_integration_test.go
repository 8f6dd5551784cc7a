//go:build integration

package audio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestListDevicesIntegration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	devices, err := ListDevices(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, devices)
}

func TestSelectDefaultDeviceIntegration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	selection, err := SelectDevice(ctx, "default", "default")
	require.NoError(t, err)
	require.NotEmpty(t, selection.Device.ID)
}

func TestRecorderCapturesIntegration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	recorder := NewRecorder(nil)
	require.NoError(t, recorder.Start(ctx, Options{Input: "default", Fallback: "default"}))
	time.Sleep(300 * time.Millisecond)

	recording, err := recorder.Stop(ctx)
	require.NoError(t, err)
	require.Equal(t, DefaultSampleRate, recording.SampleRate)
	require.NotEmpty(t, recording.Samples)
}
