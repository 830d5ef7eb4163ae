package publisher

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"migration-renderer/internal/render"
)

func TestSubjects(t *testing.T) {
	frames, seek := Subjects("migration")
	assert.Equal(t, "migration.frames", frames)
	assert.Equal(t, "migration.seek", seek)

	frames, seek = Subjects("demo.eu west.>")
	assert.Equal(t, "demo.eu_west._.frames", frames)
	assert.Equal(t, "demo.eu_west._.seek", seek)
}

func TestDecodeSeek(t *testing.T) {
	v, err := DecodeSeek([]byte(`{"time": 812.5}`))
	require.NoError(t, err)
	assert.Equal(t, 812.5, v)

	v, err = DecodeSeek([]byte(`{"time": 0}`))
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)

	for _, bad := range []string{`{}`, `{"time": "soon"}`, `not json`, `{"time": null}`} {
		_, err := DecodeSeek([]byte(bad))
		assert.Error(t, err, bad)
	}
}

func TestFrameMessageJSON(t *testing.T) {
	msg := FrameMessage{
		Session:    "s",
		Seq:        3,
		Layer:      "migration",
		Generation: 2,
		Changed:    false,
		QueryTime:  12,
		Count:      1,
		Uniforms:   render.DefaultUniforms(),
	}
	b, err := json.Marshal(msg)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.NotContains(t, out, "columns")
	assert.NotContains(t, out, "attributes")
	u := out["uniforms"].(map[string]any)
	assert.Equal(t, 120.0, u["trailLength"])
	assert.Equal(t, true, u["fadeTrail"])
}
