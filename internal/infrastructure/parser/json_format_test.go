package parser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleArray = `[
  {
    "uuid": "a1",
    "title": "First",
    "author": "Jane",
    "url": "https://example.org/a1",
    "text": "<p>Markets <b>rally</b></p><script>track()</script><p>again</p>",
    "published": "2024-03-01T10:00:00.000+02:00",
    "language": "english",
    "categories": ["Business", "Business", "Finance"],
    "extra": {"ignored": true}
  },
  {"uuid": "a2", "title": "Second", "categories": []}
]`

func TestJSONArrayDecode(t *testing.T) {
	t.Parallel()

	records, err := JSONArray{}.Decode(context.Background(), strings.NewReader(sampleArray))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].UUID != "a1" || records[0].Language != "english" || len(records[0].Categories) != 3 {
		t.Fatalf("unexpected first record: %+v", records[0])
	}
	if records[1].Author != "" || records[1].Published != "" {
		t.Fatalf("missing fields must decode as empty strings: %+v", records[1])
	}
}

func TestJSONArrayRejectsMalformed(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"not array":    `{"uuid": "a"}`,
		"truncated":    `[{"uuid": "a"}`,
		"missing uuid": `[{"title": "x"}]`,
		"bad field":    `[{"uuid": 12}]`,
	}
	for name, body := range cases {
		if _, err := (JSONArray{}).Decode(context.Background(), strings.NewReader(body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestJSONLinesDecode(t *testing.T) {
	t.Parallel()

	body := "{\"uuid\":\"a\",\"title\":\"A\"}\n\n  {\"uuid\":\"b\",\"title\":\"B\"}\n"
	records, err := JSONLines{}.Decode(context.Background(), strings.NewReader(body))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if len(records) != 2 || records[1].UUID != "b" {
		t.Fatalf("unexpected records: %+v", records)
	}

	if _, err := (JSONLines{}).Decode(context.Background(), strings.NewReader("{\"uuid\":\"a\"}\nnope\n")); err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line 2 error, got %v", err)
	}
}

func TestStripHTML(t *testing.T) {
	t.Parallel()

	got, err := StripHTML("<p>Markets <b>rally</b></p><script>track()</script><p>again</p>")
	if err != nil {
		t.Fatalf("StripHTML returned error: %v", err)
	}
	if got != "Markets rally again" {
		t.Fatalf("unexpected text %q", got)
	}

	plain := "no markup here"
	if got, _ := StripHTML(plain); got != plain {
		t.Fatalf("plain text must be returned unchanged, got %q", got)
	}
}

func TestFileSourceDecode(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	arrayPath := filepath.Join(dir, "batch.json")
	linesPath := filepath.Join(dir, "batch.jsonl")
	if err := os.WriteFile(arrayPath, []byte(sampleArray), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := os.WriteFile(linesPath, []byte(`{"uuid":"l1","text":"<i>x</i> y"}`+"\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	src := NewFileSource(NewDefaultRegistry(), true, nil)

	records, err := src.Decode(context.Background(), arrayPath)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if records[0].Text != "Markets rally again" {
		t.Fatalf("expected stripped body, got %q", records[0].Text)
	}

	records, err = src.Decode(context.Background(), linesPath)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if len(records) != 1 || records[0].Text != "x y" {
		t.Fatalf("unexpected json lines records: %+v", records)
	}

	if _, err := src.Decode(context.Background(), filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("expected error for missing batch")
	}
}

func TestFileSourceKeepsHTMLWhenDisabled(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "batch.json")
	if err := os.WriteFile(path, []byte(`[{"uuid":"a","text":"<b>bold</b>"}]`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	records, err := NewFileSource(NewDefaultRegistry(), false, nil).Decode(context.Background(), path)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if records[0].Text != "<b>bold</b>" {
		t.Fatalf("expected raw body, got %q", records[0].Text)
	}
}
