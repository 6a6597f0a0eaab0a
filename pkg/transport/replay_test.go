package transport

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/pushport/pkg/pushport/frame"
)

func TestReplayFilesAndDirectories(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "capture/a.xml", []byte("<a/>"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "capture/b.xml", []byte("<b/>"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "capture/.hidden", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "single.gz", []byte("c"), 0o644))

	replay := &Replay{Fs: fs, MessageType: "TS"}

	var frames []frame.Frame
	err := replay.Run(context.Background(), []string{"single.gz", "capture"}, func(_ context.Context, f frame.Frame) error {
		frames = append(frames, f)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, frames, 3)
	assert.Equal(t, "single.gz", frames[0].Source)
	assert.Equal(t, "TS", frames[0].MessageType)
	assert.Equal(t, []byte("<a/>"), frames[1].Payload)
	assert.Equal(t, "capture/b.xml", frames[2].Source)
}

func TestReplayMissingFile(t *testing.T) {
	replay := &Replay{Fs: afero.NewMemMapFs()}

	err := replay.Run(context.Background(), []string{"nope.xml"}, func(context.Context, frame.Frame) error { return nil })
	assert.Error(t, err)
}

func TestHeaderTimestamp(t *testing.T) {
	assert.Equal(t, "2024-05-01T00:07:00Z", headerTimestamp("1714522020000"))
	assert.Equal(t, "", headerTimestamp(""))
	assert.Equal(t, "2024-05-01T00:07:00", headerTimestamp("2024-05-01T00:07:00"))
}
