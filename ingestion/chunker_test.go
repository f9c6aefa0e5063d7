package ingestion

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkTextReconstructsOriginal(t *testing.T) {
	cases := []struct {
		name    string
		length  int
		size    int
		overlap int
	}{
		{"short text single chunk", 500, 1000, 200},
		{"exact multiple", 2400, 1000, 200},
		{"long text", 5321, 1000, 200},
		{"tiny windows", 97, 10, 3},
		{"no overlap", 1234, 100, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text := syntheticText(tc.length)
			chunks := ChunkText(text, tc.size, tc.overlap)

			var rebuilt strings.Builder
			for i, chunk := range chunks {
				if i == 0 {
					rebuilt.WriteString(chunk)
					continue
				}
				require.GreaterOrEqual(t, len(chunk), tc.overlap)
				rebuilt.WriteString(chunk[tc.overlap:])
			}
			assert.Equal(t, text, rebuilt.String())
		})
	}
}

func TestChunkTextTerminationBound(t *testing.T) {
	for size := 2; size <= 12; size++ {
		for overlap := 0; overlap < size; overlap++ {
			for length := 0; length <= 40; length++ {
				text := syntheticText(length)
				chunks := ChunkText(text, size, overlap)

				step := size - overlap
				bound := (length + step - 1) / step
				assert.LessOrEqual(t, len(chunks), bound,
					"size=%d overlap=%d length=%d", size, overlap, length)
			}
		}
	}
}

func TestChunkText1500CharsYieldsTwoChunks(t *testing.T) {
	text := syntheticText(1500)
	chunks := ChunkText(text, 1000, 200)

	require.Len(t, chunks, 2)
	assert.Equal(t, text[:1000], chunks[0])
	assert.Equal(t, text[800:1500], chunks[1])
}

func TestChunkTextNeverSplitsMultibyteRunes(t *testing.T) {
	// The window counts runes: 500 Hangul characters are 1500 bytes but
	// still fit one 1000-wide chunk.
	short := strings.Repeat("가", 500)
	chunks := ChunkText(short, 1000, 200)
	require.Len(t, chunks, 1)
	assert.Equal(t, short, chunks[0])

	text := strings.Repeat("공고문내용", 300) // 1500 runes
	chunks = ChunkText(text, 1000, 200)
	require.Len(t, chunks, 2)

	runes := []rune(text)
	assert.Equal(t, string(runes[:1000]), chunks[0])
	assert.Equal(t, string(runes[800:1500]), chunks[1])
	for i, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk), "chunk %d is not valid UTF-8", i)
	}
}

func TestChunkTextEmptyInput(t *testing.T) {
	assert.Empty(t, ChunkText("", 1000, 200))
}

func TestChunkTextRejectsInvalidWindow(t *testing.T) {
	assert.Nil(t, ChunkText("some text", 100, 100))
	assert.Nil(t, ChunkText("some text", 0, 0))
}

func syntheticText(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789 "
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		sb.WriteByte(alphabet[i%len(alphabet)])
	}
	return sb.String()
}
