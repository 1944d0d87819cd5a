package models

import (
	"encoding/json"
	"testing"
)

func TestQueryParamToggleRoundTrip(t *testing.T) {
	original := NewQueryParam(SortViews, "type:video", "rating:general")

	toggled := original.Toggle("tag:dance")
	if !toggled.Has("tag:dance") {
		t.Fatalf("expected filter to be added: %v", toggled)
	}
	if original.Has("tag:dance") {
		t.Fatal("toggle must not mutate the receiver")
	}

	back := toggled.Toggle("tag:dance")
	if !back.Equal(original) {
		t.Fatalf("expected round trip to restore %v got %v", original, back)
	}

	removed := original.Toggle("type:video").Toggle("type:video")
	if !removed.Equal(original) {
		t.Fatalf("expected remove then add to restore %v got %v", original, removed)
	}
}

func TestQueryParamEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b QueryParam
		want bool
	}{
		{"zero vs default", QueryParam{}, DefaultQuery(), true},
		{"order independent", NewQueryParam(SortDate, "a", "b"), NewQueryParam(SortDate, "b", "a"), true},
		{"duplicates collapse", NewQueryParam(SortDate, "a", "a"), NewQueryParam(SortDate, "a"), true},
		{"different sort", NewQueryParam(SortDate), NewQueryParam(SortLikes), false},
		{"different filters", NewQueryParam(SortDate, "a"), NewQueryParam(SortDate, "b"), false},
		{"subset", NewQueryParam(SortDate, "a"), NewQueryParam(SortDate, "a", "b"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Equal(tc.b); got != tc.want {
				t.Fatalf("Equal() = %v want %v", got, tc.want)
			}
			if got := tc.b.Equal(tc.a); got != tc.want {
				t.Fatalf("Equal() not symmetric: got %v want %v", got, tc.want)
			}
		})
	}
}

func TestQueryParamMarshalJSON(t *testing.T) {
	data, err := json.Marshal(NewQueryParam(SortLikes, "z:1", "a:2"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got, want := string(data), `{"sort":"likes","filters":["a:2","z:1"]}`; got != want {
		t.Fatalf("unexpected json: got %s want %s", got, want)
	}
}

func TestParseSortMode(t *testing.T) {
	if mode, err := ParseSortMode(""); err != nil || mode != SortDate {
		t.Fatalf("expected default sort got %q, %v", mode, err)
	}
	if _, err := ParseSortMode("random"); err == nil {
		t.Fatal("expected error for unknown sort mode")
	}
}

func TestMediaPreviewRoute(t *testing.T) {
	video := MediaPreview{ID: "abc", Type: MediaTypeVideo}
	if got := video.Route(); got != "video/abc" {
		t.Fatalf("unexpected route %q", got)
	}
	image := MediaPreview{ID: "xyz", Type: MediaTypeImage}
	if got := image.Route(); got != "image/xyz" {
		t.Fatalf("unexpected route %q", got)
	}
}

func TestParseRecommendCategory(t *testing.T) {
	for _, c := range RecommendCategories {
		got, err := ParseRecommendCategory(string(c))
		if err != nil || got != c {
			t.Fatalf("parse %q: got %q, %v", c, got, err)
		}
	}
	if _, err := ParseRecommendCategory("trending"); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestQueryParamTextIsPartOfTheKey(t *testing.T) {
	base := NewQueryParam(SortDate, "type:video")
	cats := base.WithText("cats")
	dogs := base.WithText("dogs")

	if cats.Equal(dogs) {
		t.Fatal("queries with different text must differ")
	}
	if !cats.Equal(base.WithText("cats")) {
		t.Fatal("queries with the same text must be equal")
	}
	if base.Text != "" {
		t.Fatal("WithText must not mutate the receiver")
	}
	if got := cats.Toggle("tag:x").Text; got != "cats" {
		t.Fatalf("expected toggle to keep the text got %q", got)
	}
	if got, want := cats.String(), `"cats" date[type:video]`; got != want {
		t.Fatalf("unexpected string: got %s want %s", got, want)
	}
}
