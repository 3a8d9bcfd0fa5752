package analyzer

import (
	"errors"
	"strings"

	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/batch"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/credentials"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/inference"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/report"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/roster"
)

// FriendlyMessage turns a terminal error into a sentence for the user.
func FriendlyMessage(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, credentials.ErrMissing):
		return "API Key is missing. Please set it in the settings."
	case errors.Is(err, credentials.ErrExhausted):
		if inference.ClassOf(err) == inference.ErrorClassRateLimit {
			return "Every API Key is rate limited. Add another key or wait and resume."
		}
		return "Every API Key was rejected. Please go to Settings to correct them, then resume."
	case errors.Is(err, ErrRunInProgress):
		return "An analysis is already running. Please wait for it to finish."
	case errors.Is(err, ErrNoResults), errors.Is(err, report.ErrNoRecords):
		return "No processed data available. Please analyze a file first."
	case errors.Is(err, ErrNothingToResume):
		return "There is nothing left to resume."
	case errors.Is(err, roster.ErrInputInvalid):
		return "The file is empty or could not be parsed. Please upload a CSV or XLSX file with first_name and last_name columns."
	case errors.Is(err, batch.ErrAborted):
		return "The analysis was cancelled. Processed records are still available."
	case errors.Is(err, inference.ErrEmptyResponse):
		return "Received an empty response from the AI service. This might be due to a network issue or content filter."
	}

	switch inference.ClassOf(err) {
	case inference.ErrorClassNetwork:
		return "Network request failed. Please check your connection and try again."
	case inference.ErrorClassCredential:
		return "The provided API Key is invalid. Please go to Settings to correct it."
	}
	if strings.Contains(err.Error(), "API key not valid") {
		return "The provided API Key is invalid. Please go to Settings to correct it."
	}
	return err.Error()
}
