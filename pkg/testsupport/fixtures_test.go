package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// recorder captures failures instead of failing the enclosing test.
type recorder struct {
	testing.TB
	failed bool
}

func (r *recorder) Helper()               {}
func (r *recorder) Logf(string, ...any)   {}
func (r *recorder) Errorf(string, ...any) { r.failed = true }
func (r *recorder) Fatalf(string, ...any) { r.failed = true }

func TestLoadFixture(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.txt")
	testContent := []byte("test fixture content")

	if err := os.WriteFile(testFile, testContent, 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	result := LoadFixture(t, testFile)
	if string(result) != string(testContent) {
		t.Errorf("expected %q, got %q", testContent, result)
	}
}

func TestLoadFixture_NonExistentFile(t *testing.T) {
	rec := &recorder{TB: t}
	LoadFixture(rec, filepath.Join(t.TempDir(), "missing.json"))
	if !rec.failed {
		t.Error("expected a missing fixture to fail the test")
	}
}

func TestLoadFixtureJSON(t *testing.T) {
	var categories []struct {
		Name string `json:"name"`
	}
	LoadFixtureJSON(t, FixturePath("categories.json"), &categories)

	if len(categories) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(categories))
	}
	if categories[0].Name != "peripherals" {
		t.Errorf("expected first category peripherals, got %q", categories[0].Name)
	}
}

func TestLoadFixtureJSON_UnknownField(t *testing.T) {
	var dest []struct {
		Title string `json:"title"`
	}
	rec := &recorder{TB: t}
	LoadFixtureJSON(rec, FixturePath("categories.json"), &dest)
	if !rec.failed {
		t.Error("expected unknown fixture fields to fail the test")
	}
}

func TestWriteGolden(t *testing.T) {
	goldenFile := filepath.Join(t.TempDir(), "subdir", "test.golden")
	testContent := []byte("test golden content")

	WriteGolden(t, goldenFile, testContent)

	result, err := os.ReadFile(goldenFile)
	if err != nil {
		t.Fatalf("failed to read written golden file: %v", err)
	}
	if string(result) != string(testContent) {
		t.Errorf("expected %q, got %q", testContent, result)
	}
}

func TestCompareWithGolden(t *testing.T) {
	goldenFile := filepath.Join(t.TempDir(), "test.golden")

	// Missing golden file is created from the actual output.
	CompareWithGolden(t, goldenFile, []byte("test content"))
	if _, err := os.Stat(goldenFile); err != nil {
		t.Fatalf("golden file should have been created: %v", err)
	}

	// Matching output passes, trailing newline ignored.
	CompareWithGolden(t, goldenFile, []byte("test content\n"))

	rec := &recorder{TB: t}
	CompareWithGolden(rec, goldenFile, []byte("other content"))
	if !rec.failed {
		t.Error("expected mismatch to be reported")
	}
}

func TestCompareWithGolden_Update(t *testing.T) {
	goldenFile := filepath.Join(t.TempDir(), "test.golden")
	WriteGolden(t, goldenFile, []byte("old"))

	t.Setenv(UpdateGoldenEnv, "1")
	CompareWithGolden(t, goldenFile, []byte("new"))

	got, err := os.ReadFile(goldenFile)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new" {
		t.Errorf("expected golden file to be rewritten, got %q", got)
	}
}

func TestCompareJSONWithGolden_IgnoresFormatting(t *testing.T) {
	goldenFile := filepath.Join(t.TempDir(), "envelope.json")

	CompareJSONWithGolden(t, goldenFile, []byte(`{"success":false,"status":404,"message":"not found","data":null}`))

	rec := &recorder{TB: t}
	CompareJSONWithGolden(rec, goldenFile, []byte(`{
		"data": null, "message": "not found",
		"status": 404, "success": false}`))
	if rec.failed {
		t.Error("reformatted JSON should match the golden file")
	}
}

func TestPaths(t *testing.T) {
	if got, want := FixturePath("products.json"), filepath.Join("testdata", "products.json"); got != want {
		t.Errorf("FixturePath() = %q, want %q", got, want)
	}
	if got, want := GoldenPath("list.json"), filepath.Join("testdata", "golden", "list.json"); got != want {
		t.Errorf("GoldenPath() = %q, want %q", got, want)
	}
}
