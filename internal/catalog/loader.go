package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/garyellow/course-advisor-go/internal/sliceutil"
)

const notAvailable = "N/A"

// Catalog is the loaded document set and the hash of its source bytes.
type Catalog struct {
	Documents []Document
	Hash      string
	Skipped   int // Non-object entries ignored during loading
}

// LoadFile reads a JSON array of course records from path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("course catalog not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read course catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a JSON array of course records. Entries that are not JSON
// objects are skipped. A top-level value that is not an array is an error.
func Parse(data []byte) (*Catalog, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, errors.New("course catalog is not a JSON array")
		}
		return nil, fmt.Errorf("invalid course catalog JSON: %w", err)
	}

	cat := &Catalog{
		Documents: make([]Document, 0, len(entries)),
		Hash:      ComputeContentHash(data),
	}
	for i, raw := range entries {
		if !isObject(raw) {
			cat.Skipped++
			continue
		}
		var record map[string]any
		if err := json.Unmarshal(raw, &record); err != nil {
			cat.Skipped++
			continue
		}
		course := normalize(record)
		cat.Documents = append(cat.Documents, course.Document(fmt.Sprintf("course-%d", i)))
	}
	return cat, nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func normalize(record map[string]any) Course {
	return Course{
		CourseID:         stringify(record["courseId"], notAvailable),
		Title:            stringify(record["title"], notAvailable),
		Description:      strings.TrimSpace(stringify(record["description"], notAvailable)),
		Subjects:         toList(record["subjects"]),
		Grades:           toList(record["grades"]),
		IsDualCredit:     stringify(record["isDualCredit"], "false"),
		IsCreditRecovery: stringify(record["isCreditRecovery"], "false"),
		HigherEdCredits:  stringify(firstPresent(record, "higherEdCredits", "HigherEdCredits"), "0"),
		IsFlex:           stringify(record["isFlex"], notAvailable),
	}
}

func firstPresent(record map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := record[k]; ok {
			return v
		}
	}
	return nil
}

// toList accepts a list or a comma-separated string. Anything else is empty.
// Repeated entries, compared case-insensitively, are dropped.
func toList(v any) []string {
	return sliceutil.Deduplicate(splitList(v), strings.ToLower)
}

func splitList(v any) []string {
	switch val := v.(type) {
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := stringify(item, ""); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for part := range strings.SplitSeq(val, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		return nil
	}
}

func stringify(v any, def string) string {
	switch val := v.(type) {
	case nil:
		return def
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return def
		}
		return string(b)
	}
}
