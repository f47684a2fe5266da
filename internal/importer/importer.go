// Package importer converts tabular word lists (xlsx or CSV) into the topic
// JSON documents served by the content repository.
package importer

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/eslsoft/vocadrill/internal/entity"
)

// Expected column order of the input table.
const (
	colTopic = iota
	colWord
	colPhonetic
	colPos
	colDefinitionEN
	colDefinitionVI
	colExamples
	columnCount
)

// examplesPerWord is the required number of example sentences per entry,
// separated by "|" in the examples column.
const examplesPerWord = 3

// Options configures one import run.
type Options struct {
	InputPath  string
	OutputDir  string
	SheetName  string
	SkipHeader bool
}

// Result summarises an import run.
type Result struct {
	TotalRows     int
	WordsImported int
	TopicsWritten int
	Errors        []string
}

// Run reads the input table and writes one topic JSON document per topic
// into the output directory. Rows that fail validation are reported in the
// result and skipped; they never abort the run.
func Run(opts Options) (*Result, error) {
	rows, err := readRows(opts)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	topics := make(map[string]*entity.Topic)
	var order []string

	for i, row := range rows {
		if i == 0 && opts.SkipHeader {
			continue
		}
		result.TotalRows++

		item, topicName, err := parseRow(row)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}

		key := topicID(topicName)
		topic, ok := topics[key]
		if !ok {
			topic = &entity.Topic{ID: key, Name: topicName}
			topics[key] = topic
			order = append(order, key)
		}
		topic.Items = append(topic.Items, item)
		result.WordsImported++
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	for _, key := range order {
		if err := writeTopic(opts.OutputDir, topics[key]); err != nil {
			return nil, err
		}
		result.TopicsWritten++
	}
	return result, nil
}

func readRows(opts Options) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(opts.InputPath), ".csv") {
		return readCSV(opts.InputPath)
	}
	return readExcel(opts)
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func readExcel(opts Options) ([][]string, error) {
	f, err := excelize.OpenFile(opts.InputPath)
	if err != nil {
		return nil, fmt.Errorf("open excel file: %w", err)
	}
	defer f.Close()

	sheet := opts.SheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

func parseRow(row []string) (entity.VocabularyItem, string, error) {
	if len(row) < columnCount {
		return entity.VocabularyItem{}, "", fmt.Errorf("expected %d columns, got %d", columnCount, len(row))
	}

	topicName := strings.TrimSpace(row[colTopic])
	word := strings.TrimSpace(row[colWord])
	if topicName == "" || word == "" {
		return entity.VocabularyItem{}, "", fmt.Errorf("topic and word are required")
	}

	var examples []string
	for _, example := range strings.Split(row[colExamples], "|") {
		if example = strings.TrimSpace(example); example != "" {
			examples = append(examples, example)
		}
	}
	if len(examples) != examplesPerWord {
		return entity.VocabularyItem{}, "", fmt.Errorf("word %q needs %d example sentences, got %d", word, examplesPerWord, len(examples))
	}

	item := entity.VocabularyItem{
		ID:           uuid.NewString(),
		Word:         word,
		Phonetic:     strings.TrimSpace(row[colPhonetic]),
		Pos:          strings.TrimSpace(row[colPos]),
		DefinitionEN: strings.TrimSpace(row[colDefinitionEN]),
		DefinitionVI: strings.TrimSpace(row[colDefinitionVI]),
		Examples:     examples,
	}
	return item, topicName, nil
}

func topicID(name string) string {
	id := strings.ToLower(strings.TrimSpace(name))
	id = strings.ReplaceAll(id, " ", "-")
	return id
}

func writeTopic(dir string, topic *entity.Topic) error {
	raw, err := json.MarshalIndent(topic, "", "  ")
	if err != nil {
		return fmt.Errorf("encode topic %s: %w", topic.ID, err)
	}
	path := filepath.Join(dir, topic.ID+".json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write topic %s: %w", topic.ID, err)
	}
	return nil
}
