package models

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranscriptStoreAppendAndLines(t *testing.T) {
	store := NewTranscriptStore()
	assert.Equal(t, 0, store.Len())

	store.Append(TranscriptLine{Index: 0, Start: 0, End: 30, Text: "hello"})
	store.Append(TranscriptLine{Index: 1, Start: 29.5, End: 59.5, Text: "world"})

	lines := store.Lines()
	assert.Len(t, lines, 2)
	assert.Equal(t, 0, lines[0].Index)
	assert.Equal(t, "world", lines[1].Text)

	// Lines返回副本，修改不影响存储
	lines[0].Text = "changed"
	assert.Equal(t, "hello", store.Lines()[0].Text)
}

func TestTranscriptStoreFullText(t *testing.T) {
	store := NewTranscriptStore()
	store.Append(TranscriptLine{Index: 0, Text: " hello "})
	store.Append(TranscriptLine{Index: 1, Text: ""}) // 空行被跳过
	store.Append(TranscriptLine{Index: 2, Text: "world"})

	assert.Equal(t, "hello world", store.FullText())
}

func TestTranscriptStoreConcurrentAppend(t *testing.T) {
	store := NewTranscriptStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			store.Append(TranscriptLine{Index: idx})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, store.Len())
}
