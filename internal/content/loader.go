package content

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// packSchema validates the shape of a YAML content pack before any of
// it reaches the catalog. Year bounds and difficulty are optional in
// the file; defaults are applied at write time.
const packSchema = `{
  "type": "object",
  "required": ["subject", "slug", "topics"],
  "properties": {
    "subject": {"type": "string", "minLength": 1},
    "slug": {"type": "string", "minLength": 1},
    "topics": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "slug", "stage", "questions"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "slug": {"type": "string", "minLength": 1},
          "stage": {"type": "string", "enum": ["KS1", "KS2", "KS3"]},
          "description": {"type": "string"},
          "questions": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["content", "correct_answer", "distractors"],
              "properties": {
                "content": {"type": "string", "minLength": 1},
                "type": {"type": "string", "enum": ["multiple_choice", "drag_drop"]},
                "correct_answer": {"type": "string", "minLength": 1},
                "distractors": {
                  "type": "array",
                  "items": {"type": "string"},
                  "minItems": 1
                },
                "difficulty": {"type": "integer", "minimum": 1, "maximum": 6},
                "min_year_group": {"type": "integer", "minimum": 1, "maximum": 9},
                "max_year_group": {"type": "integer", "minimum": 1, "maximum": 9},
                "explanation": {"type": "string"}
              }
            }
          }
        }
      }
    }
  }
}`

// Pack is a subject's worth of content loaded from a YAML file.
type Pack struct {
	Subject string      `yaml:"subject"`
	Slug    string      `yaml:"slug"`
	Topics  []PackTopic `yaml:"topics"`
}

// PackTopic is a topic plus its questions within a pack.
type PackTopic struct {
	Name        string         `yaml:"name"`
	Slug        string         `yaml:"slug"`
	Stage       string         `yaml:"stage"`
	Description string         `yaml:"description"`
	Questions   []PackQuestion `yaml:"questions"`
}

// PackQuestion is the authoring shape of a question.
type PackQuestion struct {
	Content       string   `yaml:"content"`
	Type          string   `yaml:"type"`
	CorrectAnswer string   `yaml:"correct_answer"`
	Distractors   []string `yaml:"distractors"`
	Difficulty    int      `yaml:"difficulty"`
	MinYearGroup  int      `yaml:"min_year_group"`
	MaxYearGroup  int      `yaml:"max_year_group"`
	Explanation   string   `yaml:"explanation"`
}

// LoadPack reads and validates a single YAML content pack.
func LoadPack(path string) (Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Pack{}, fmt.Errorf("read pack: %w", err)
	}

	// Validate against the schema before decoding into typed structs,
	// so authoring mistakes surface as one readable error.
	var generic map[string]any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return Pack{}, fmt.Errorf("parse pack %s: %w", filepath.Base(path), err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(packSchema),
		gojsonschema.NewGoLoader(generic),
	)
	if err != nil {
		return Pack{}, fmt.Errorf("validate pack %s: %w", filepath.Base(path), err)
	}
	if !result.Valid() {
		var problems []string
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return Pack{}, fmt.Errorf("invalid pack %s: %s", filepath.Base(path), strings.Join(problems, "; "))
	}

	var pack Pack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return Pack{}, fmt.Errorf("decode pack %s: %w", filepath.Base(path), err)
	}
	return pack, nil
}

// Content holds everything loaded from a content directory.
type Content struct {
	Packs             []Pack
	WorkbookQuestions []WorkbookQuestion
}

// LoadDir walks a content directory, loading YAML packs and xlsx
// question workbooks. Unknown file types are ignored.
func LoadDir(dir string) (Content, error) {
	var c Content
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		switch {
		case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
			pack, err := LoadPack(path)
			if err != nil {
				return err
			}
			c.Packs = append(c.Packs, pack)
		case strings.HasSuffix(path, ".xlsx"):
			questions, err := LoadWorkbook(path)
			if err != nil {
				return err
			}
			c.WorkbookQuestions = append(c.WorkbookQuestions, questions...)
		}
		return nil
	})
	if err != nil {
		return Content{}, fmt.Errorf("loading content dir: %w", err)
	}
	return c, nil
}
