package httpapi

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCachePolicy(t *testing.T) {
	t.Run("ReloadIgnoringLocalAndRemoteCacheData", func(t *testing.T) {
		expect := http.Header{
			"Cache-Control": {"no-cache, no-store, max-age=0"},
			"Pragma":        {"no-cache"},
		}
		if diff := cmp.Diff(expect, ReloadIgnoringLocalAndRemoteCacheData.Headers()); diff != "" {
			t.Fatal(diff)
		}
		if ReloadIgnoringLocalAndRemoteCacheData.String() != "reload_ignoring_local_and_remote_cache_data" {
			t.Fatal("unexpected string")
		}
	})

	t.Run("UseProtocolCachePolicy", func(t *testing.T) {
		if len(UseProtocolCachePolicy.Headers()) != 0 {
			t.Fatal("expected no headers")
		}
		if UseProtocolCachePolicy.String() != "use_protocol_cache_policy" {
			t.Fatal("unexpected string")
		}
	})
}

func TestDescriptorClone(t *testing.T) {
	orig := newUploadDescriptor()
	dup := orig.Clone()
	if diff := cmp.Diff(orig, dup); diff != "" {
		t.Fatal(diff)
	}
	dup.Header.Set("Authorization", "Bearer antani")
	dup.RequestBody[0] = '['
	if orig.Header.Get("Authorization") != "Bearer deadbeef" {
		t.Fatal("the clone shares the headers")
	}
	if orig.RequestBody[0] != '{' {
		t.Fatal("the clone shares the body")
	}
}

func TestDescriptorHeaderNames(t *testing.T) {
	expect := []string{"Authorization", "Cache-Control", "Content-Type", "Pragma"}
	if diff := cmp.Diff(expect, newUploadDescriptor().HeaderNames()); diff != "" {
		t.Fatal(diff)
	}
}
