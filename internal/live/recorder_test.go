package live

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkRecorder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newChunkRecorder(8)

	require.ErrorIs(t, r.Append([]byte("x"), ""), errCaptureIdle)

	require.NoError(t, r.Start(ctx))
	require.NoError(t, r.Append([]byte("abc"), ""))
	require.NoError(t, r.Append([]byte("def"), "audio/ogg;codecs=opus"))
	assert.Error(t, r.Append([]byte("ghi"), ""), "over the size limit")

	audio, err := r.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcdef"), audio.Data)
	assert.Equal(t, "audio/ogg;codecs=opus", audio.ContentType)
	assert.Equal(t, "recording.ogg", audio.Filename)

	// новый захват начинается с пустого буфера
	require.NoError(t, r.Start(ctx))
	audio, err = r.Stop(ctx)
	require.NoError(t, err)
	assert.Empty(t, audio.Data)
	assert.Equal(t, defaultCaptureMime, audio.ContentType)
	assert.Equal(t, "recording.webm", audio.Filename)
}
