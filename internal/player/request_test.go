package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStreamRequest(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr string
	}{
		{name: "plain", input: "https://example.com/live.m3u8", want: "https://example.com/live.m3u8"},
		{name: "trimmed", input: "  https://example.com/live.m3u8\t", want: "https://example.com/live.m3u8"},
		{name: "query after suffix", input: "https://cdn.example.com/a.m3u8?token=abc", want: "https://cdn.example.com/a.m3u8?token=abc"},
		{name: "empty", input: "", wantErr: msgEmptyURL},
		{name: "whitespace only", input: "   ", wantErr: msgEmptyURL},
		{name: "not a manifest", input: "https://example.com/video.mp4", wantErr: msgInvalidURL},
		{name: "unparseable", input: "http://[::1/live.m3u8", wantErr: msgInvalidURL},
		{name: "control character", input: "http://example.com/\x00live.m3u8", wantErr: msgInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseStreamRequest(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				var inputErr *InputError
				require.ErrorAs(t, err, &inputErr)
				assert.Equal(t, tt.wantErr, inputErr.Reason)
				assert.Equal(t, tt.input, inputErr.Input)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.URL)
		})
	}
}
