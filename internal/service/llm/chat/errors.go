package chat

import (
	"errors"
	"fmt"
	"strings"

	"voicechat/internal/capabilities"
	"voicechat/internal/domain"
	llmSvc "voicechat/internal/domain/services/llm"
)

const genericProviderMessage = "Server error while processing your request"

// translateProviderError maps a provider failure onto the client-facing error
// taxonomy. Messages name the provider's own configuration keys.
func translateProviderError(p *capabilities.ProviderCapabilities, err error) *domain.Error {
	var pe *llmSvc.ProviderError
	if !errors.As(err, &pe) {
		return domain.NewError(domain.KindProviderError, genericProviderMessage).
			WithDetails(err.Error()).
			Wrap(err)
	}

	var out *domain.Error
	switch pe.Kind {
	case llmSvc.FailureModelDecommissioned:
		out = domain.NewError(domain.KindProviderBadRequest, fmt.Sprintf(
			"The selected model is no longer available. Please update %s in your .env file to one of: %s",
			p.ModelEnv, strings.Join(p.ModelIDs(), ", "),
		)).WithDetails(pe.Message)

	case llmSvc.FailureBadRequest:
		out = domain.NewError(domain.KindProviderBadRequest, fmt.Sprintf("Invalid request to %s API", p.DisplayName)).
			WithDetails(orDefault(pe.Message, "Please check your request parameters"))

	case llmSvc.FailureAuth:
		out = domain.NewError(domain.KindProviderAuthFailure, fmt.Sprintf(
			"Invalid %s API key. Please check your %s in the .env file and ensure it's correct.",
			p.DisplayName, p.APIKeyEnv,
		)).WithDetails(fmt.Sprintf("You can get a free API key from %s", p.ConsoleURL))

	case llmSvc.FailureQuotaExceeded:
		out = domain.NewError(domain.KindProviderQuotaExceeded, fmt.Sprintf(
			"%s API quota exceeded. Please check your plan and billing details.", p.DisplayName,
		)).WithDetails(pe.Message)
		if p.QuotaStatus != 0 {
			out.WithStatus(p.QuotaStatus)
		}

	case llmSvc.FailureRateLimited:
		out = domain.NewError(domain.KindProviderRateLimited, fmt.Sprintf(
			"Rate limit exceeded. %s has usage limits. Please try again in a few moments.", p.DisplayName,
		)).WithDetails("Free tier has rate limits. Consider upgrading if you need higher limits.")

	case llmSvc.FailureNotFound:
		out = domain.NewError(domain.KindProviderNotFound, fmt.Sprintf(
			"Model not found. The specified %s model is not available.", p.DisplayName,
		)).WithDetails(orDefault(pe.Message, "Please check the model name in your .env file"))

	default:
		out = domain.NewError(domain.KindProviderError, genericProviderMessage).
			WithDetails(orDefault(pe.Message, err.Error()))
	}

	return out.Wrap(err)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
