package pipeline

import (
	"fmt"
	"strings"

	"github.com/siherrmann/graphreason/helper"
)

// splitSentences splits text after sentence terminators followed by a space.
func splitSentences(text string) []string {
	text = strings.ReplaceAll(text, "! ", "!|")
	text = strings.ReplaceAll(text, "? ", "?|")
	text = strings.ReplaceAll(text, ". ", ".|")
	text = strings.ReplaceAll(text, "。", "。|")

	var sentences []string
	for _, s := range strings.Split(text, "|") {
		s = strings.TrimSpace(s)
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// SentenceChunker creates a chunker that groups up to maxSentencesPerChunk sentences
func SentenceChunker(maxSentencesPerChunk int) ChunkFunc {
	return func(text string, basePath string) ([]Chunk, error) {
		if maxSentencesPerChunk <= 0 {
			return nil, helper.Invalid("max sentences per chunk must be positive")
		}

		chunks := []Chunk{}
		sentences := splitSentences(text)
		pos := 0
		for start := 0; start < len(sentences); start += maxSentencesPerChunk {
			end := min(start+maxSentencesPerChunk, len(sentences))
			content := strings.Join(sentences[start:end], " ")
			index := len(chunks)
			chunks = append(chunks, Chunk{
				Content:  content,
				Path:     fmt.Sprintf("%s.chunk%d", basePath, index),
				StartPos: pos,
				EndPos:   pos + len(content),
				Index:    index,
			})
			pos += len(content) + 1
		}
		return chunks, nil
	}
}

// ParagraphChunker creates a chunker that splits by paragraphs
func ParagraphChunker() ChunkFunc {
	return func(text string, basePath string) ([]Chunk, error) {
		chunks := []Chunk{}
		pos := 0
		for _, para := range strings.Split(text, "\n\n") {
			offset := pos + strings.Index(para, strings.TrimSpace(para))
			pos += len(para) + 2

			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}

			index := len(chunks)
			chunks = append(chunks, Chunk{
				Content:  para,
				Path:     fmt.Sprintf("%s.para%d", basePath, index),
				StartPos: offset,
				EndPos:   offset + len(para),
				Index:    index,
			})
		}
		return chunks, nil
	}
}
