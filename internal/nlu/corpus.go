package nlu

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// TrainingExample is one labeled corpus row. Rows are immutable once loaded
// into a training snapshot.
type TrainingExample struct {
	Text     string `json:"text"`
	Intent   string `json:"intent"`
	Response string `json:"response"`
}

// LoadCorpus reads training examples from a CSV file with a header row
// containing at least text, intent, and response columns. Extra columns are
// ignored; rows missing text or intent are skipped.
func LoadCorpus(path string) ([]TrainingExample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("nlu: open corpus %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("nlu: parse corpus %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("nlu: corpus %s is empty", path)
	}

	cols := map[string]int{}
	for i, name := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"text", "intent", "response"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("nlu: corpus %s missing column %q", path, required)
		}
	}

	field := func(row []string, name string) string {
		i := cols[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var examples []TrainingExample
	for _, row := range records[1:] {
		ex := TrainingExample{
			Text:     field(row, "text"),
			Intent:   field(row, "intent"),
			Response: field(row, "response"),
		}
		if ex.Text == "" || ex.Intent == "" {
			continue
		}
		examples = append(examples, ex)
	}
	if len(examples) == 0 {
		return nil, fmt.Errorf("nlu: corpus %s has no usable rows", path)
	}
	return examples, nil
}

// AppendExample appends one training row to the corpus CSV, creating the file
// with a header if it does not exist.
func AppendExample(path string, ex TrainingExample) error {
	_, statErr := os.Stat(path)
	newFile := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("nlu: open corpus %s for append: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if newFile {
		if err := w.Write([]string{"text", "intent", "response"}); err != nil {
			return fmt.Errorf("nlu: write corpus header: %w", err)
		}
	}
	if err := w.Write([]string{ex.Text, ex.Intent, ex.Response}); err != nil {
		return fmt.Errorf("nlu: append corpus row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("nlu: flush corpus: %w", err)
	}
	return nil
}
