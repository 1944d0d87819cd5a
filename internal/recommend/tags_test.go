package recommend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vidfriends/mediadeck/internal/models"
)

func newTestTagClient(t *testing.T, handler http.HandlerFunc) *TagClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewTagClient(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("new tag client: %v", err)
	}
	return client
}

func TestTagClientTags(t *testing.T) {
	client := newTestTagClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recommend/tags" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`["anime","music"]`))
	})

	tags, err := client.Tags(context.Background())
	if err != nil {
		t.Fatalf("tags: %v", err)
	}
	if diff := cmp.Diff([]string{"anime", "music"}, tags); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestTagClientByTags(t *testing.T) {
	var gotQuery string
	client := newTestTagClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		if r.URL.Path != "/recommend" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`[{"id":"abc","title":"Tagged","author":"maker","previewUrl":"https://img.example.net/abc.jpg","tags":["anime"]}]`))
	})

	items, err := client.ByTags(context.Background(), []string{"anime", "music"}, 16)
	if err != nil {
		t.Fatalf("by tags: %v", err)
	}
	want := []models.TagRecommendation{
		{ID: "abc", Title: "Tagged", Author: "maker", PreviewURL: "https://img.example.net/abc.jpg", Tags: []string{"anime"}},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
	if gotQuery != "limit=16&tags=anime%2Cmusic" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
}

func TestTagClientErrors(t *testing.T) {
	client := newTestTagClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	if _, err := client.Tags(context.Background()); !errors.Is(err, ErrBadResponse) {
		t.Fatalf("expected ErrBadResponse got %v", err)
	}

	var nilClient *TagClient
	if _, err := nilClient.ByTags(context.Background(), []string{"anime"}, 16); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable got %v", err)
	}
	if _, err := NewTagClient("not a url", time.Second); err == nil {
		t.Fatal("expected an invalid url to be rejected")
	}
}
