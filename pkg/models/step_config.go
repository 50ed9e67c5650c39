package models

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Per-type configuration schemas. Every key is optional and has a default;
// values for closed-vocabulary keys must come from the listed enums.
// additionalProperties stays open to preserve the original duck-typed record.
var stepConfigSchemas = map[StepType]map[string]any{
	StepTypeSummarize: {
		"type": "object",
		"properties": map[string]any{
			"length": map[string]any{
				"type": "string",
				"enum": []string{"short", "medium", "long"},
			},
			"format": map[string]any{
				"type": "string",
				"enum": []string{"paragraph", "bullets", "outline"},
			},
		},
	},
	StepTypeTranslate: {
		"type": "object",
		"properties": map[string]any{
			"targetLanguage": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
		},
	},
	StepTypeRewrite: {
		"type": "object",
		"properties": map[string]any{
			"tone": map[string]any{
				"type": "string",
				"enum": []string{"casual", "formal", "professional", "friendly", "academic"},
			},
			"style": map[string]any{
				"type": "string",
				"enum": []string{"concise", "detailed", "persuasive", "informative"},
			},
		},
	},
	StepTypeExtract: {
		"type": "object",
		"properties": map[string]any{
			"extractType": map[string]any{
				"type": "string",
				"enum": []string{"keywords", "entities", "topics", "sentiment"},
			},
		},
	},
}

// ValidateStepConfig checks a step's configuration against the schema for its
// type. It runs at definition-create time so invalid configs are rejected
// before an execution ever reaches them. Types outside the enumeration carry
// no schema and pass unchecked.
func ValidateStepConfig(stepType StepType, config map[string]any) error {
	schema, ok := stepConfigSchemas[stepType]
	if !ok {
		return nil
	}

	if config == nil {
		config = map[string]any{}
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("failed to validate %s config: %w", stepType, err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return fmt.Errorf("invalid %s config: %s", stepType, strings.Join(details, "; "))
	}

	return nil
}

// configString returns the string value for key, or def when the key is
// absent or not a string.
func configString(config map[string]any, key, def string) string {
	if config == nil {
		return def
	}

	value, ok := config[key].(string)
	if !ok || value == "" {
		return def
	}

	return value
}

// SummarizeConfig is the typed view of a summarize step's configuration.
type SummarizeConfig struct {
	Length string // short, medium, long
	Format string // paragraph, bullets, outline
}

func ParseSummarizeConfig(config map[string]any) SummarizeConfig {
	return SummarizeConfig{
		Length: configString(config, "length", "medium"),
		Format: configString(config, "format", "paragraph"),
	}
}

// TranslateConfig is the typed view of a translate step's configuration.
type TranslateConfig struct {
	TargetLanguage string
}

func ParseTranslateConfig(config map[string]any) TranslateConfig {
	return TranslateConfig{
		TargetLanguage: configString(config, "targetLanguage", "English"),
	}
}

// RewriteConfig is the typed view of a rewrite step's configuration. Tone
// affects register and word choice, style affects length and framing.
type RewriteConfig struct {
	Tone  string // casual, formal, professional, friendly, academic
	Style string // concise, detailed, persuasive, informative
}

func ParseRewriteConfig(config map[string]any) RewriteConfig {
	return RewriteConfig{
		Tone:  configString(config, "tone", "professional"),
		Style: configString(config, "style", "informative"),
	}
}

// ExtractConfig is the typed view of an extract step's configuration.
type ExtractConfig struct {
	ExtractType string // keywords, entities, topics, sentiment
}

func ParseExtractConfig(config map[string]any) ExtractConfig {
	return ExtractConfig{
		ExtractType: configString(config, "extractType", "keywords"),
	}
}
