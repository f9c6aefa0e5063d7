package ingestion

const (
	// DefaultChunkSize and DefaultChunkOverlap shape the sliding window
	// used to split raw content for embedding. The overlap keeps context
	// that straddles a chunk boundary retrievable; it is a recall
	// trade-off, not a cosmetic choice.
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// ChunkText splits text into overlapping windows of size runes, advancing
// size-overlap runes per step. The window counts runes, not bytes, so a
// boundary can never split a multibyte character. Empty text yields no
// chunks. Terminates for any overlap < size: the loop exits once the
// final overlapping chunk has been emitted.
func ChunkText(text string, size, overlap int) []string {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil
	}

	runes := []rune(text)
	var chunks []string
	start := 0

	for start < len(runes) {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		start += size - overlap

		if start >= len(runes)-overlap {
			break
		}
	}

	return chunks
}
