package shortcut

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodeEvent(typ, code uint16, value int32) []byte {
	buf := make([]byte, inputEventSize)
	binary.LittleEndian.PutUint64(buf[0:8], 1700000000)
	binary.LittleEndian.PutUint64(buf[8:16], 250)
	binary.LittleEndian.PutUint16(buf[16:18], typ)
	binary.LittleEndian.PutUint16(buf[18:20], code)
	binary.LittleEndian.PutUint32(buf[20:24], uint32(value))
	return buf
}

func TestDecodeEvent(t *testing.T) {
	ev, ok := decodeEvent(encodeEvent(evKey, 97, 1))
	require.True(t, ok)
	require.Equal(t, inputEvent{Type: evKey, Code: 97, Value: 1}, ev)

	_, ok = decodeEvent(make([]byte, 10))
	require.False(t, ok)
}

func TestReadEventsFiltersRepeatAndNonKey(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(encodeEvent(evKey, 97, 1))
	stream.Write(encodeEvent(evKey, 97, keyRepeat))
	stream.Write(encodeEvent(0, 0, 0))
	stream.Write(encodeEvent(4, 4, 458976))
	stream.Write(encodeEvent(evKey, 97, 0))
	stream.Write([]byte{1, 2, 3})

	var got []KeyEvent
	readEvents(context.Background(), &stream, func(ev KeyEvent) { got = append(got, ev) })
	require.Equal(t, []KeyEvent{{Code: 97, Pressed: true}, {Code: 97, Pressed: false}}, got)
}

func TestDevicePermission(t *testing.T) {
	dir := t.TempDir()
	glob := filepath.Join(dir, "event*")
	require.False(t, DevicePermission{Glob: glob}.Granted())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "event3"), nil, 0o600))
	require.True(t, DevicePermission{Glob: glob}.Granted())
}

func TestEvdevHookReadsDeviceFiles(t *testing.T) {
	dir := t.TempDir()
	var stream bytes.Buffer
	stream.Write(encodeEvent(evKey, 30, 1))
	stream.Write(encodeEvent(evKey, 30, 0))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "event0"), stream.Bytes(), 0o600))

	events := make(chan KeyEvent, 4)
	hook := NewEvdevHook(filepath.Join(dir, "event*"), nil)
	require.NoError(t, hook.Start(context.Background(), func(ev KeyEvent) { events <- ev }))
	require.Equal(t, KeyEvent{Code: 30, Pressed: true}, <-events)
	require.Equal(t, KeyEvent{Code: 30, Pressed: false}, <-events)

	require.Error(t, hook.Start(context.Background(), func(KeyEvent) {}))
	require.NoError(t, hook.Stop())
	require.NoError(t, hook.Stop())
}

func TestEvdevHookWithoutDevices(t *testing.T) {
	hook := NewEvdevHook(filepath.Join(t.TempDir(), "event*"), nil)
	err := hook.Start(context.Background(), func(KeyEvent) {})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no readable input devices")
}
