package processor

import (
	"fmt"

	"github.com/dukex/textpipe/pkg/models"
)

func summarizePrompt(config models.SummarizeConfig, input string) string {
	var sentences string

	switch config.Length {
	case "short":
		sentences = "1-2 sentences"
	case "long":
		sentences = "5-6 sentences"
	default:
		sentences = "3-4 sentences"
	}

	var layout string

	switch config.Format {
	case "bullets":
		layout = "Format the summary as a bulleted list, one point per line."
	case "outline":
		layout = "Format the summary as a numbered outline."
	default:
		layout = "Format the summary as a single paragraph."
	}

	return fmt.Sprintf(
		"Summarize the following text in %s. %s Respond with the summary only.\n\n%s",
		sentences, layout, input,
	)
}

func translatePrompt(config models.TranslateConfig, input string) string {
	return fmt.Sprintf(
		"Translate the following text to %s. Respond with the translation only, no commentary.\n\n%s",
		config.TargetLanguage, input,
	)
}

func rewritePrompt(config models.RewriteConfig, input string) string {
	return fmt.Sprintf(
		"Rewrite the following text in a %s tone with a %s style. "+
			"The tone controls word choice and register; the style controls length, structure and framing. "+
			"Respond with the rewritten text only.\n\n%s",
		config.Tone, config.Style, input,
	)
}

func extractPrompt(config models.ExtractConfig, input string) string {
	var instruction string

	switch config.ExtractType {
	case "entities":
		instruction = "Extract the named entities from the following text as an itemized list, one entity per line."
	case "topics":
		instruction = "Extract the main topics from the following text as an itemized list, one topic per line."
	case "sentiment":
		instruction = "Analyze the sentiment of the following text. Respond with a sentiment label (positive, negative or neutral), a confidence score between 0 and 1, and a one-sentence justification."
	default:
		instruction = "Extract the most relevant keywords from the following text as a comma-separated list."
	}

	return fmt.Sprintf("%s\n\n%s", instruction, input)
}
