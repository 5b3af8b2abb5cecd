package file

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func mustTempDir(t *testing.T) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "filesource")
	if err != nil {
		t.Fatalf("getting temp dir: %v", err)
	}
	return dir
}

func mustFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := ioutil.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func TestRawSource(t *testing.T) {
	dir := mustTempDir(t)
	defer os.RemoveAll(dir)
	mustFile(t, dir, "a.json", `{"n": 1}`)
	mustFile(t, dir, "b.json", `{"n": 2}`)

	rs, err := NewRawSource(dir)
	if err != nil {
		t.Fatalf("getting raw source: %v", err)
	}

	names := []string{}
	for {
		reader, err := rs.NextReader()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("getting reader: %v", err)
		}
		names = append(names, reader.Name())
		reader.Close()
	}
	if len(names) != 2 {
		t.Fatalf("wrong number of readers: %v", names)
	}
	if names[0] != "a.json" || names[1] != "b.json" {
		t.Fatalf("wrong names: %v", names)
	}
}

func TestRawSourceSingleFile(t *testing.T) {
	dir := mustTempDir(t)
	defer os.RemoveAll(dir)
	mustFile(t, dir, "only.json", `{"n": 1}`)

	rs, err := NewRawSource(filepath.Join(dir, "only.json"))
	if err != nil {
		t.Fatalf("getting raw source: %v", err)
	}
	reader, err := rs.NextReader()
	if err != nil {
		t.Fatalf("getting reader: %v", err)
	}
	if reader.Name() != "only.json" {
		t.Fatalf("wrong name: %v", reader.Name())
	}
	reader.Close()
	if _, err := rs.NextReader(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestSource(t *testing.T) {
	dir := mustTempDir(t)
	defer os.RemoveAll(dir)
	mustFile(t, dir, "a.json", `{"n": 1}
{"n": 2}`)
	mustFile(t, dir, "b.json", `{"n": 3}`)

	src, err := NewSource(OptSrcPath(dir), OptSrcRecordAt("src"))
	if err != nil {
		t.Fatalf("getting source: %v", err)
	}

	got := []map[string]interface{}{}
	for {
		rec, err := src.Record()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("getting record: %v", err)
		}
		got = append(got, rec.(map[string]interface{}))
	}
	if len(got) != 3 {
		t.Fatalf("wrong number of records: %v", got)
	}
	if got[0]["n"] != float64(1) || got[0]["src"] != "a.json#0" {
		t.Fatalf("wrong first record: %v", got[0])
	}
	if got[1]["src"] != "a.json#1" {
		t.Fatalf("wrong second record: %v", got[1])
	}
	if got[2]["n"] != float64(3) || got[2]["src"] != "b.json#0" {
		t.Fatalf("wrong third record: %v", got[2])
	}
}

func TestSourceMalformedFile(t *testing.T) {
	dir := mustTempDir(t)
	defer os.RemoveAll(dir)
	mustFile(t, dir, "a.json", `{"qty": 1}
{bad json`)
	mustFile(t, dir, "b.json", `{"qty": 2}`)

	src, err := NewSource(OptSrcPath(dir))
	if err != nil {
		t.Fatalf("getting source: %v", err)
	}

	rec, err := src.Record()
	if err != nil {
		t.Fatalf("getting good record: %v", err)
	}
	if rec.(map[string]interface{})["qty"] != float64(1) {
		t.Fatalf("wrong first record: %v", rec)
	}

	// the bad file produces exactly one error, then reading moves on
	_, err = src.Record()
	if err == nil || err == io.EOF {
		t.Fatalf("expected decode error, got %v", err)
	}
	if !strings.Contains(err.Error(), "a.json") {
		t.Fatalf("error should name the bad file: %v", err)
	}

	rec, err = src.Record()
	if err != nil {
		t.Fatalf("getting record after bad file: %v", err)
	}
	if rec.(map[string]interface{})["qty"] != float64(2) {
		t.Fatalf("wrong record after bad file: %v", rec)
	}

	if _, err = src.Record(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestSourceNeedsPath(t *testing.T) {
	if _, err := NewSource(); err == nil {
		t.Fatalf("expected error for missing path")
	}
}
