package engine

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func preloadGroups() []QuestionGroup {
	return []QuestionGroup{
		{Part: 1, AudioURL: "a0.mp3", ImageURL: "i0.png"},
		{Part: 2, AudioURL: "a1.mp3"},
		{Part: 3, AudioURL: "a2.mp3", ImageURL: "i2.png"},
		{Part: 5, Passage: "no media"},
		{Part: 6, ImageURL: "i4.png"},
	}
}

func groupOf(entry string) string {
	// "start a0.mp3" -> "0"
	url := entry[strings.Index(entry, " ")+2:]
	return url[:1]
}

func TestPreloaderRunsGroupsInOrder(t *testing.T) {
	loader := &fakeLoader{}
	var ready []GroupReady
	NewPreloader(loader, nil, nil).Run(context.Background(), preloadGroups(), func(r GroupReady) {
		ready = append(ready, r)
	})

	require.Len(t, ready, 5)
	for i, r := range ready {
		assert.Equal(t, i, r.Index)
		assert.False(t, r.AudioFailed)
		assert.False(t, r.ImageFailed)
	}

	// every load of a group settles before the next group starts
	log := loader.Log()
	lastEnd := map[string]int{}
	firstStart := map[string]int{}
	for i, e := range log {
		g := groupOf(e)
		if strings.HasPrefix(e, "end ") {
			lastEnd[g] = i
		} else if _, ok := firstStart[g]; !ok {
			firstStart[g] = i
		}
	}
	assert.Less(t, lastEnd["0"], firstStart["1"])
	assert.Less(t, lastEnd["1"], firstStart["2"])
	assert.Less(t, lastEnd["2"], firstStart["4"])
	assert.Len(t, log, 12)
}

func TestPreloaderMarksFailedGroupsReady(t *testing.T) {
	loader := &fakeLoader{fail: map[string]bool{"a1.mp3": true, "i2.png": true}}
	var ready []GroupReady
	NewPreloader(loader, nil, nil).Run(context.Background(), preloadGroups(), func(r GroupReady) {
		ready = append(ready, r)
	})

	require.Len(t, ready, 5)
	assert.Equal(t, GroupReady{Index: 1, AudioFailed: true}, ready[1])
	assert.Equal(t, GroupReady{Index: 2, ImageFailed: true}, ready[2])
	assert.Equal(t, GroupReady{Index: 3}, ready[3])
}

func TestPreloaderResolvesURLs(t *testing.T) {
	loader := &fakeLoader{}
	resolver := ResolverFunc(func(raw string) string { return "https://cdn.test/" + raw })
	NewPreloader(loader, resolver, nil).Run(context.Background(), preloadGroups()[1:2], nil)

	assert.Equal(t, []string{"https://cdn.test/a1.mp3"}, loader.loaded)
}

func TestPreloaderStopsAfterCancel(t *testing.T) {
	release := make(chan struct{})
	loader := &fakeLoader{block: map[string]chan struct{}{"a1.mp3": release}}
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	var ready []int
	done := make(chan struct{})
	go func() {
		defer close(done)
		NewPreloader(loader, nil, nil).Run(ctx, preloadGroups(), func(r GroupReady) {
			mu.Lock()
			ready = append(ready, r.Index)
			mu.Unlock()
		})
	}()

	// wait until group 1 is in flight
	for {
		log := loader.Log()
		if len(log) > 0 && log[len(log)-1] == "start a1.mp3" {
			break
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	close(release)
	waitClosed(t, done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0}, ready)
	assert.NotContains(t, loader.Log(), "start a2.mp3")
	assert.Contains(t, loader.Log(), "end a1.mp3")
}
