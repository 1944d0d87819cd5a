package db

import (
	"context"
	"testing"
)

func TestConnectRejectsMalformedURL(t *testing.T) {
	if _, err := Connect(context.Background(), "postgres://%zz"); err == nil {
		t.Fatal("expected malformed url to be rejected")
	}
}
