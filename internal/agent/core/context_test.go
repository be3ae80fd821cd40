package core

import (
	"reflect"
	"testing"
)

func TestRegistrySingleUploadKeepsPlainAlias(t *testing.T) {
	reg := NewContextRegistry(nil, []string{"saasName: demo"})
	if got := reg.Aliases(); !reflect.DeepEqual(got, []string{"uploaded://pricing"}) {
		t.Fatalf("unexpected aliases %v", got)
	}
	content, ok := reg.Upload("uploaded://pricing")
	if !ok || content != "saasName: demo" {
		t.Fatalf("upload lookup failed: %q %t", content, ok)
	}
}

func TestRegistryNumbersMultipleUploadsAndSkipsEmpty(t *testing.T) {
	reg := NewContextRegistry(nil, []string{"a: 1", "   ", "b: 2"})
	want := []string{"uploaded://pricing/1", "uploaded://pricing/2"}
	if got := reg.Aliases(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected aliases %v", got)
	}
	if content, _ := reg.Upload("uploaded://pricing/2"); content != "b: 2" {
		t.Fatalf("unexpected content %q", content)
	}
	if reg.Total() != 2 {
		t.Fatalf("unexpected total %d", reg.Total())
	}
}

func TestRegistryDeduplicatesURLs(t *testing.T) {
	reg := NewContextRegistry([]string{"https://a.example", " https://a.example ", "https://b.example", ""}, nil)
	want := []string{"https://a.example", "https://b.example"}
	if got := reg.URLs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected urls %v", got)
	}
}

func TestRegistryReferencesListURLsFirst(t *testing.T) {
	reg := NewContextRegistry([]string{"https://a.example"}, []string{"x: 1"})
	want := []string{"https://a.example", "uploaded://pricing"}
	if got := reg.References(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected references %v", got)
	}
	if !reg.IsKnown("https://a.example") || !reg.IsKnown("uploaded://pricing") {
		t.Fatal("expected registered references to be known")
	}
	if reg.IsKnown("uploaded://pricing/1") {
		t.Fatal("numbered alias should not exist with a single upload")
	}
}

func TestExtractURLsFromQuestion(t *testing.T) {
	urls := extractURLsFromQuestion(`Compare https://a.example/pricing and "https://b.example/p" please`)
	want := []string{"https://a.example/pricing", "https://b.example/p"}
	if !reflect.DeepEqual(urls, want) {
		t.Fatalf("unexpected urls %v", urls)
	}
}

func TestLooksLikeURLIsAPrefixMatch(t *testing.T) {
	if !looksLikeURL("https://example.com/pricing") {
		t.Fatal("expected plain url to match")
	}
	if !looksLikeURL("  http://example.com  ") {
		t.Fatal("expected trimmed url to match")
	}
	if looksLikeURL("see https://example.com") {
		t.Fatal("url in the middle of text must not match")
	}
	if looksLikeURL("ftp://example.com") {
		t.Fatal("non-http scheme must not match")
	}
}
