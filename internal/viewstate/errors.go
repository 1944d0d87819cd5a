package viewstate

import "errors"

var (
	// ErrEmptyQuery is returned when a search is submitted without text.
	ErrEmptyQuery = errors.New("search query is empty")
	// ErrEmptyComment is returned when a comment body is blank.
	ErrEmptyComment = errors.New("comment body is empty")
	// ErrNotLoaded is returned by actions that need a page that was never loaded.
	ErrNotLoaded = errors.New("page not loaded")
	// ErrUnknownCategory is returned for a recommendation category that does not exist.
	ErrUnknownCategory = errors.New("unknown recommendation category")
	// ErrNoTags is returned when tag recommendations are requested without tags.
	ErrNoTags = errors.New("choose at least one tag")
)
