package services_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/SanyCska/serials-bot/internal/services"
)

func TestWrapTagsSentinel(t *testing.T) {
	base := errors.New("dial tcp: timeout")
	err := services.Wrap(services.ErrUnavailable, "tmdb", "tv details", "id 42", base)
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("wrapped error lost sentinel: %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("wrapped error lost cause: %v", err)
	}
	if !strings.Contains(err.Error(), "tmdb: tv details: id 42") {
		t.Fatalf("unexpected detail: %v", err)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "store", "", "", nil)
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("nil marker should default to unavailable: %v", err)
	}
}

func TestUserMessageClassification(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{services.Wrap(services.ErrValidation, "bot", "update", "bad season", nil), "whole numbers"},
		{services.Wrap(services.ErrNotFound, "tmdb", "search", "", nil), "couldn't find"},
		{services.Wrap(services.ErrUnavailable, "tmdb", "search", "", nil), "unavailable"},
		{errors.New("panic elsewhere"), "something went wrong"},
	}
	for _, tc := range cases {
		if got := services.UserMessage(tc.err); !strings.Contains(got, tc.want) {
			t.Fatalf("UserMessage(%v) = %q, want substring %q", tc.err, got, tc.want)
		}
	}
}
