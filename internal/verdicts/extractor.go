package verdicts

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
)

const (
	responseParseErrorTemplateConstant = "unable to extract JSON payload from model response: %.120s"
	envelopeResultFieldConstant        = "result"
	defaultCategoryConstant            = "General"
	unknownStatusMessageConstant       = "verdict with unrecognized status dropped"
	logFieldRuleConstant               = "rule"
	logFieldStatusConstant             = "status"
	openingBraceConstant               = "{"
	closingBraceConstant               = "}"
)

// codeFencePattern matches a fenced code block anywhere in the response,
// with or without a json language tag.
var codeFencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ResponseParseError reports that no JSON payload could be recovered from a
// model response. The raw response is retained for diagnostics.
type ResponseParseError struct {
	RawResponse string
}

// Error includes a truncated excerpt of the unparseable response.
func (parseError ResponseParseError) Error() string {
	return fmt.Sprintf(responseParseErrorTemplateConstant, parseError.RawResponse)
}

// Extractor recovers structured payloads from model responses that may wrap
// JSON in result envelopes, code fences, or surrounding prose.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor constructs an Extractor.
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// ExtractVerdicts recovers a VerdictSet from a raw model response. Extraction
// is idempotent: feeding an already extracted payload back through yields the
// same result.
func (extractor *Extractor) ExtractVerdicts(rawResponse string) (VerdictSet, error) {
	payloadBytes, recoveryError := extractor.recoverPayload(rawResponse, verdictSetSchemaLoader)
	if recoveryError != nil {
		return VerdictSet{}, recoveryError
	}

	var verdictSet VerdictSet
	if decodeError := json.Unmarshal(payloadBytes, &verdictSet); decodeError != nil {
		return VerdictSet{}, ResponseParseError{RawResponse: rawResponse}
	}

	return extractor.normalizeVerdictSet(verdictSet), nil
}

// ExtractInsights recovers an Insights payload from a raw model response.
func (extractor *Extractor) ExtractInsights(rawResponse string) (Insights, error) {
	payloadBytes, recoveryError := extractor.recoverPayload(rawResponse, insightsSchemaLoader)
	if recoveryError != nil {
		return Insights{}, recoveryError
	}

	var insights Insights
	if decodeError := json.Unmarshal(payloadBytes, &insights); decodeError != nil {
		return Insights{}, ResponseParseError{RawResponse: rawResponse}
	}

	return insights, nil
}

// recoverPayload walks the recovery chain: unwrap the CLI result envelope,
// try the text as direct JSON, then a fenced code block, then the widest
// brace-delimited span. The first candidate that parses and satisfies the
// schema wins.
func (extractor *Extractor) recoverPayload(rawResponse string, schemaLoader gojsonschema.JSONLoader) ([]byte, error) {
	responseText := unwrapResultEnvelope(strings.TrimSpace(rawResponse))

	for _, candidateText := range payloadCandidates(responseText) {
		candidateBytes := []byte(candidateText)
		if !json.Valid(candidateBytes) {
			continue
		}
		if validationError := validateAgainstSchema(schemaLoader, candidateBytes); validationError != nil {
			continue
		}
		return candidateBytes, nil
	}

	return nil, ResponseParseError{RawResponse: rawResponse}
}

// payloadCandidates yields JSON candidates in recovery order.
func payloadCandidates(responseText string) []string {
	var candidates []string
	candidates = append(candidates, responseText)

	if fenceMatch := codeFencePattern.FindStringSubmatch(responseText); fenceMatch != nil {
		candidates = append(candidates, strings.TrimSpace(fenceMatch[1]))
	}

	if braceSpan := widestBraceSpan(responseText); len(braceSpan) > 0 {
		candidates = append(candidates, braceSpan)
	}

	return candidates
}

// unwrapResultEnvelope peels the {"result": "..."} wrapper emitted by the
// claude CLI in JSON output mode. Non-envelope input passes through.
func unwrapResultEnvelope(responseText string) string {
	var envelope map[string]json.RawMessage
	if decodeError := json.Unmarshal([]byte(responseText), &envelope); decodeError != nil {
		return responseText
	}

	rawResult, hasResult := envelope[envelopeResultFieldConstant]
	if !hasResult {
		return responseText
	}

	var innerText string
	if decodeError := json.Unmarshal(rawResult, &innerText); decodeError != nil {
		return responseText
	}

	return strings.TrimSpace(innerText)
}

// widestBraceSpan returns the substring from the first opening brace to the
// last closing brace, the loosest recovery for JSON embedded in prose.
func widestBraceSpan(responseText string) string {
	openingIndex := strings.Index(responseText, openingBraceConstant)
	closingIndex := strings.LastIndex(responseText, closingBraceConstant)
	if openingIndex < 0 || closingIndex <= openingIndex {
		return ""
	}
	return responseText[openingIndex : closingIndex+1]
}

// normalizeVerdictSet fills the default category, uppercases statuses, and
// drops verdicts whose status is outside the recognized set.
func (extractor *Extractor) normalizeVerdictSet(verdictSet VerdictSet) VerdictSet {
	normalizedVerdicts := make([]Verdict, 0, len(verdictSet.Verdicts))
	for _, verdict := range verdictSet.Verdicts {
		if len(strings.TrimSpace(verdict.Category)) == 0 {
			verdict.Category = defaultCategoryConstant
		}
		verdict.Status = Status(strings.ToUpper(strings.TrimSpace(string(verdict.Status))))

		switch verdict.Status {
		case StatusPass, StatusFail, StatusSkip:
			normalizedVerdicts = append(normalizedVerdicts, verdict)
		default:
			extractor.logger.Warn(
				unknownStatusMessageConstant,
				zap.String(logFieldRuleConstant, verdict.Rule),
				zap.String(logFieldStatusConstant, string(verdict.Status)),
			)
		}
	}

	verdictSet.Verdicts = normalizedVerdicts
	return verdictSet
}
