package importer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eslsoft/vocadrill/internal/entity"
)

const sampleCSV = `topic,word,phonetic,pos,definition_en,definition_vi,examples
Food,portion,/ˈpɔːʃən/,noun,an amount of food,phần ăn,Example one.|Example two.|Example three.
Food,flavor,/ˈfleɪvə/,noun,the taste of food,hương vị,One.|Two.|Three.
Travel,voyage,/ˈvɔɪɪdʒ/,noun,a long journey,chuyến đi,A.|B.|C.
Food,broken,,,,,only one example
`

func runSample(t *testing.T) (*Result, string) {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "words.csv")
	if err := os.WriteFile(input, []byte(sampleCSV), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	out := filepath.Join(dir, "topics")
	result, err := Run(Options{InputPath: input, OutputDir: out, SkipHeader: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return result, out
}

func TestImportCSV(t *testing.T) {
	result, out := runSample(t)

	if result.WordsImported != 3 || result.TopicsWritten != 2 {
		t.Fatalf("result = %+v", result)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("the malformed row must be reported: %+v", result.Errors)
	}

	raw, err := os.ReadFile(filepath.Join(out, "food.json"))
	if err != nil {
		t.Fatalf("read topic document: %v", err)
	}
	var topic entity.Topic
	if err := json.Unmarshal(raw, &topic); err != nil {
		t.Fatalf("decode topic document: %v", err)
	}
	if topic.Name != "Food" || len(topic.Items) != 2 {
		t.Fatalf("topic = %+v", topic)
	}
	if len(topic.Items[0].Examples) != 3 {
		t.Fatalf("examples = %v", topic.Items[0].Examples)
	}
	if topic.Items[0].ID == "" || topic.Items[0].ID == topic.Items[1].ID {
		t.Fatal("items must get unique generated ids")
	}
}

func TestImportRejectsWrongExampleCount(t *testing.T) {
	result, _ := runSample(t)
	if result.TotalRows != 4 {
		t.Fatalf("TotalRows = %d, want 4", result.TotalRows)
	}
	// The "broken" row has a single example sentence and must be skipped.
	for _, topicErr := range result.Errors {
		if !strings.Contains(topicErr, "broken") {
			t.Fatalf("unexpected error entry: %q", topicErr)
		}
	}
}
