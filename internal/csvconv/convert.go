// Package csvconv converts dialogue CSV exports into the JSON files
// the static comment loader serves. Column order and quoting from the
// source CSV are preserved so hand-checked exports stay diffable.
package csvconv

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Options controls a conversion run.
type Options struct {
	Delimiter  string
	OutputPath string
	Recursive  bool
}

// Result reports one converted file.
type Result struct {
	InputPath  string
	OutputPath string
	Records    int
}

// field is one key/value pair of a converted row.
type field struct {
	key   string
	value any
}

// row marshals its fields in insertion order. encoding/json sorts map
// keys, which would scramble the CSV column order.
type row []field

func (r row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// CleanText converts curly quotation marks to their straight
// equivalents.
func CleanText(text string) string {
	replacer := strings.NewReplacer(
		"‘", "'", "’", "'",
		"“", `"`, "”", `"`,
	)
	return replacer.Replace(text)
}

// valueQuotedInRawLine reports whether the column at columnIndex was
// wrapped in double quotes on the raw CSV line. Quoted values stay
// strings even when they look numeric.
func valueQuotedInRawLine(rawLine string, columnIndex int, delimiter byte) bool {
	if rawLine == "" {
		return false
	}

	currentColumn := 0
	inQuotes := false
	fieldStart := 0

	for i := 0; i < len(rawLine); i++ {
		ch := rawLine[i]
		if ch == '"' {
			if inQuotes && i+1 < len(rawLine) && rawLine[i+1] == '"' {
				i++
				continue
			}
			inQuotes = !inQuotes
		} else if ch == delimiter && !inQuotes {
			if currentColumn == columnIndex {
				content := strings.TrimSpace(rawLine[fieldStart:i])
				return strings.HasPrefix(content, `"`) && strings.HasSuffix(content, `"`)
			}
			currentColumn++
			fieldStart = i + 1
		}
	}

	if currentColumn == columnIndex {
		content := strings.TrimSpace(rawLine[fieldStart:])
		return strings.HasPrefix(content, `"`) && strings.HasSuffix(content, `"`)
	}
	return false
}

// convertValue applies the typing rules for one cell. Quoted cells
// stay strings, unquoted numerics become numbers, unquoted true/false
// become booleans.
func convertValue(value string, quoted bool) any {
	if quoted {
		return CleanText(value)
	}
	if value != "" {
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			return n
		}
	}
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	return CleanText(value)
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// simplifyName derives the output file stem from the CSV filename:
// lowercased, non-alphanumerics collapsed to underscores, and a
// doubled name like "scene_one_scene_one" reduced to "scene_one".
func simplifyName(name string) string {
	simplified := nonAlnum.ReplaceAllString(strings.ToLower(name), "_")
	simplified = strings.Trim(simplified, "_")

	segments := strings.Split(simplified, "_")
	if len(segments) > 2 && len(segments)%2 == 0 {
		half := len(segments) / 2
		first := strings.Join(segments[:half], "_")
		second := strings.Join(segments[half:], "_")
		if first == second {
			simplified = first
		}
	}
	return simplified
}

// FindCSVFiles lists the .csv files under dirPath, sorted for stable
// ordering. With recursive set, subdirectories are walked too.
func FindCSVFiles(dirPath string, recursive bool) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("directory not found: %s", dirPath)
	}

	var files []string
	for _, entry := range entries {
		full := filepath.Join(dirPath, entry.Name())
		if entry.IsDir() {
			if recursive {
				sub, err := FindCSVFiles(full, recursive)
				if err != nil {
					return nil, err
				}
				files = append(files, sub...)
			}
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			files = append(files, full)
		}
	}
	sort.Strings(files)
	return files, nil
}

// ConvertFile converts one CSV file to JSON. The first row is always
// the header. Each output record gets a 1-based "id" field, blank
// header columns are dropped, and the JSON lands next to the CSV in a
// sibling json directory unless opts.OutputPath names a file.
func ConvertFile(csvPath string, opts Options) (Result, error) {
	delimiter := opts.Delimiter
	if delimiter == "" {
		delimiter = ","
	}
	if len(delimiter) != 1 {
		return Result{}, fmt.Errorf("delimiter must be a single character, got %q", delimiter)
	}

	content, err := os.ReadFile(csvPath)
	if err != nil {
		return Result{}, fmt.Errorf("CSV file not found: %s", csvPath)
	}
	rawLines := strings.Split(strings.TrimSpace(strings.ReplaceAll(string(content), "\r\n", "\n")), "\n")

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = rune(delimiter[0])
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return Result{}, fmt.Errorf("error parsing CSV: %w", err)
	}
	if len(records) == 0 {
		return Result{}, fmt.Errorf("CSV file is empty: %s", csvPath)
	}

	headers := records[0]
	result := []row{}

	for _, record := range records[1:] {
		rowID := len(result) + 1
		out := row{{key: "id", value: rowID}}

		var rawLine string
		if rowID < len(rawLines) {
			rawLine = rawLines[rowID]
		}

		for col, header := range headers {
			if strings.TrimSpace(header) == "" {
				continue
			}
			var value string
			if col < len(record) {
				value = record[col]
			}
			quoted := valueQuotedInRawLine(rawLine, col, delimiter[0])
			out = append(out, field{key: header, value: convertValue(value, quoted)})
		}
		result = append(result, out)
	}

	jsonPath := opts.OutputPath
	if jsonPath == "" {
		stem := simplifyName(strings.TrimSuffix(filepath.Base(csvPath), filepath.Ext(csvPath)))
		outputDir := filepath.Join(filepath.Dir(csvPath), "..", "json")
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return Result{}, err
		}
		jsonPath = filepath.Join(outputDir, stem+".json")
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return Result{}, err
	}
	if err := os.WriteFile(jsonPath, append(data, '\n'), 0o644); err != nil {
		return Result{}, err
	}

	return Result{InputPath: csvPath, OutputPath: jsonPath, Records: len(result)}, nil
}
