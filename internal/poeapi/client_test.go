package poeapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCharactersDecodesAndCaches(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		require.Equal(t, "/character-window/get-characters", r.URL.Path)
		require.Equal(t, "Exile#1234", r.URL.Query().Get("accountName"))
		w.Write([]byte(`[{"name":"Witchy","league":"Settlers","classId":3,"ascendancyClass":2,"class":"Occultist","level":92,"experience":2345678901}]`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))

	characters, err := c.Characters(context.Background(), "Exile#1234")
	require.NoError(t, err)
	require.Len(t, characters, 1)
	require.Equal(t, "Witchy", characters[0].Name)
	require.Equal(t, "Occultist", characters[0].Class)
	require.Equal(t, 92, characters[0].Level)
	require.Equal(t, uint64(2345678901), characters[0].Experience)

	// Second call inside the TTL is served from cache.
	_, err = c.Characters(context.Background(), "Exile#1234")
	require.NoError(t, err)
	require.Equal(t, int64(1), hits.Load())
}

func TestItemsDecodesNestedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/character-window/get-items", r.URL.Path)
		require.Equal(t, "Witchy", r.URL.Query().Get("character"))
		w.Write([]byte(`{
			"items": [{
				"id": "abc",
				"name": "Doomfletch",
				"typeLine": "Royal Bow",
				"inventoryId": "Weapon",
				"frameType": 3,
				"ilvl": 70,
				"sockets": [{"group": 0, "attr": "D"}, {"group": 0, "attr": "D"}],
				"socketedItems": [{"id": "gem1", "typeLine": "Ice Shot"}],
				"properties": [{"name": "Quality", "values": [["+20%", 1]]}]
			}],
			"character": {"name": "Witchy", "class": "Occultist", "level": 92}
		}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))

	items, err := c.Items(context.Background(), "Exile#1234", "Witchy")
	require.NoError(t, err)
	require.Equal(t, "Witchy", items.Character.Name)
	require.Len(t, items.Items, 1)

	item := items.Items[0]
	require.Equal(t, "Doomfletch", item.Name)
	require.Equal(t, 70, item.ItemLevel)
	require.Len(t, item.Sockets, 2)
	require.Len(t, item.SocketedItems, 1)
	require.Equal(t, "Ice Shot", item.SocketedItems[0].TypeLine)
	require.Equal(t, "+20%", item.Properties[0].Values[0].Text)
	require.Equal(t, 1, item.Properties[0].Values[0].DisplayMode)
}

func TestPassiveSkillsDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/character-window/get-passive-skills", r.URL.Path)
		w.Write([]byte(`{"hashes":[123,456],"hashes_ex":[789],"mastery_effects":{"123":999}}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))

	passives, err := c.PassiveSkills(context.Background(), "Exile#1234", "Witchy")
	require.NoError(t, err)
	require.Equal(t, []uint32{123, 456}, passives.Hashes)
	require.Equal(t, []uint32{789}, passives.HashesEx)
	require.Equal(t, uint32(999), passives.MasteryEffects["123"])
}

func TestForbiddenMapsToProfilePrivate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))

	_, err := c.Characters(context.Background(), "Private#0000")
	require.ErrorIs(t, err, ErrProfilePrivate)
}

func TestTooManyRequestsMapsToRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))

	_, err := c.Items(context.Background(), "Exile#1234", "Witchy")
	require.ErrorIs(t, err, ErrRateLimited)
}

func TestOtherStatusMapsToStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))

	_, err := c.PassiveSkills(context.Background(), "Exile#1234", "Witchy")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
}

func TestErrorResponsesAreNotCached(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))

	_, err := c.Characters(context.Background(), "Exile#1234")
	require.ErrorIs(t, err, ErrProfilePrivate)

	characters, err := c.Characters(context.Background(), "Exile#1234")
	require.NoError(t, err)
	require.Empty(t, characters)
	require.Equal(t, int64(2), hits.Load())
}

func TestColdCacheRaceBothFetchThenCacheServes(t *testing.T) {
	var hits atomic.Int64
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release // hold both in-flight requests open
		w.Write([]byte(`{"items":[],"character":{"name":"Witchy"}}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Items(context.Background(), "Exile#1234", "Witchy")
			require.NoError(t, err)
		}()
	}

	// Wait for both to reach the server, then let them finish.
	deadline := time.After(5 * time.Second)
	for hits.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected 2 in-flight fetches, got %d", hits.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	close(release)
	wg.Wait()

	require.Equal(t, int64(2), hits.Load(), "cold-cache racers must each fetch")

	// Third call inside the TTL never reaches the server.
	_, err := c.Items(context.Background(), "Exile#1234", "Witchy")
	require.NoError(t, err)
	require.Equal(t, int64(2), hits.Load())
}

func TestFetchRespectsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Characters(ctx, "Exile#1234")
	require.Error(t, err)
	require.True(t, errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded))
}
