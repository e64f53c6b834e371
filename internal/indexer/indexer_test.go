package indexer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DanAmador/Fagbot/internal/database"
	"github.com/DanAmador/Fagbot/internal/indexer"
)

// fakeStore holds text records in memory, keyed by language. Setting
// failMarkID makes marking that record fail.
type fakeStore struct {
	database.Store

	texts      []database.Text
	failMarkID uint
}

func (f *fakeStore) UnindexedTexts(_ context.Context, language string) ([]database.Text, error) {
	var out []database.Text
	for _, text := range f.texts {
		if text.Language == language && !text.Indexed {
			out = append(out, text)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkTextIndexed(_ context.Context, id uint) error {
	if f.failMarkID != 0 && id == f.failMarkID {
		return errors.New("mark failed")
	}
	for i := range f.texts {
		if f.texts[i].ID == id {
			f.texts[i].Indexed = true
		}
	}
	return nil
}

func (f *fakeStore) DistinctLanguages(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, text := range f.texts {
		if !seen[text.Language] {
			seen[text.Language] = true
			out = append(out, text.Language)
		}
	}
	return out, nil
}

func (f *fakeStore) CountTextsByLanguage(_ context.Context, language string) (int64, error) {
	var count int64
	for _, text := range f.texts {
		if text.Language == language {
			count++
		}
	}
	return count, nil
}

func TestIndexByLanguageAppendsToCorpus(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := &fakeStore{texts: []database.Text{
		{ID: 1, Content: "hello world", Language: "en"},
		{ID: 2, Content: "hola mundo", Language: "es"},
		{ID: 3, Content: "second line", Language: "en"},
	}}
	svc := indexer.NewService(store, dir, nil)

	processed, err := svc.IndexByLanguage(context.Background(), "en")
	if err != nil {
		t.Fatalf("IndexByLanguage() error = %v", err)
	}
	if len(processed) != 2 {
		t.Fatalf("processed = %d texts, want 2", len(processed))
	}

	data, err := os.ReadFile(filepath.Join(dir, "en.txt"))
	if err != nil {
		t.Fatalf("reading corpus file: %v", err)
	}
	want := "hello world\nsecond line\n"
	if string(data) != want {
		t.Errorf("corpus file = %q, want %q", data, want)
	}

	if !store.texts[0].Indexed || !store.texts[2].Indexed {
		t.Error("indexed texts should be marked")
	}
	if store.texts[1].Indexed {
		t.Error("other-language text should stay unindexed")
	}

	// Spanish corpus is untouched until its own language is indexed.
	if _, err := os.Stat(filepath.Join(dir, "es.txt")); !os.IsNotExist(err) {
		t.Errorf("es.txt should not exist yet, stat err = %v", err)
	}
}

func TestIndexByLanguageIsIdempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := &fakeStore{texts: []database.Text{
		{ID: 1, Content: "hello", Language: "en"},
	}}
	svc := indexer.NewService(store, dir, nil)

	if _, err := svc.IndexByLanguage(context.Background(), "en"); err != nil {
		t.Fatalf("first IndexByLanguage() error = %v", err)
	}

	processed, err := svc.IndexByLanguage(context.Background(), "en")
	if err != nil {
		t.Fatalf("second IndexByLanguage() error = %v", err)
	}
	if len(processed) != 0 {
		t.Errorf("second run processed %d texts, want 0", len(processed))
	}

	data, err := os.ReadFile(filepath.Join(dir, "en.txt"))
	if err != nil {
		t.Fatalf("reading corpus file: %v", err)
	}
	if string(data) != "hello\n" {
		t.Errorf("corpus file = %q, want single line after repeated runs", data)
	}
}

func TestIndexByLanguageAppendsAcrossRuns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := &fakeStore{texts: []database.Text{
		{ID: 1, Content: "first", Language: "en"},
	}}
	svc := indexer.NewService(store, dir, nil)

	if _, err := svc.IndexByLanguage(context.Background(), "en"); err != nil {
		t.Fatalf("first IndexByLanguage() error = %v", err)
	}

	store.texts = append(store.texts, database.Text{ID: 2, Content: "second", Language: "en"})
	if _, err := svc.IndexByLanguage(context.Background(), "en"); err != nil {
		t.Fatalf("second IndexByLanguage() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "en.txt"))
	if err != nil {
		t.Fatalf("reading corpus file: %v", err)
	}
	want := "first\nsecond\n"
	if string(data) != want {
		t.Errorf("corpus file = %q, want %q", data, want)
	}
}

func TestIndexByLanguageMidBatchFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := &fakeStore{
		texts: []database.Text{
			{ID: 1, Content: "first", Language: "en"},
			{ID: 2, Content: "second", Language: "en"},
			{ID: 3, Content: "third", Language: "en"},
		},
		failMarkID: 2,
	}
	svc := indexer.NewService(store, dir, nil)

	processed, err := svc.IndexByLanguage(context.Background(), "en")
	if err == nil {
		t.Fatal("IndexByLanguage() should fail when marking fails mid-batch")
	}
	if len(processed) != 1 || processed[0].ID != 1 {
		t.Fatalf("processed = %+v, want the prefix before the failing record", processed)
	}

	if !store.texts[0].Indexed {
		t.Error("record before the failure should stay marked")
	}
	if store.texts[1].Indexed || store.texts[2].Indexed {
		t.Error("failing record and its successors should stay unmarked")
	}

	// The failing record's line was appended before the mark, the rest not.
	data, err := os.ReadFile(filepath.Join(dir, "en.txt"))
	if err != nil {
		t.Fatalf("reading corpus file: %v", err)
	}
	if string(data) != "first\nsecond\n" {
		t.Errorf("corpus file = %q, want %q", data, "first\nsecond\n")
	}
}

func TestIndexByLanguageNoTextsNoFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	svc := indexer.NewService(&fakeStore{}, dir, nil)

	processed, err := svc.IndexByLanguage(context.Background(), "en")
	if err != nil {
		t.Fatalf("IndexByLanguage() error = %v", err)
	}
	if processed != nil {
		t.Errorf("processed = %v, want nil", processed)
	}
	if _, err := os.Stat(filepath.Join(dir, "en.txt")); !os.IsNotExist(err) {
		t.Errorf("no corpus file should be created without texts, stat err = %v", err)
	}
}

func TestLanguageHistogram(t *testing.T) {
	t.Parallel()

	store := &fakeStore{texts: []database.Text{
		{ID: 1, Content: "a", Language: "en"},
		{ID: 2, Content: "b", Language: "en"},
		{ID: 3, Content: "c", Language: "es"},
	}}
	svc := indexer.NewService(store, t.TempDir(), nil)

	histogram, err := svc.LanguageHistogram(context.Background(), "")
	if err != nil {
		t.Fatalf("LanguageHistogram() error = %v", err)
	}
	if len(histogram) != 2 || histogram["en"] != 2 || histogram["es"] != 1 {
		t.Errorf("histogram = %v, want map[en:2 es:1]", histogram)
	}

	single, err := svc.LanguageHistogram(context.Background(), "en")
	if err != nil {
		t.Fatalf("LanguageHistogram(en) error = %v", err)
	}
	if len(single) != 1 || single["en"] != 2 {
		t.Errorf("histogram = %v, want map[en:2]", single)
	}
}
