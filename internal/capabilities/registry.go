package capabilities

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"voicechat/internal/domain"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry manages model catalogs across all providers
type Registry struct {
	providers map[string]*ProviderCapabilities
	mu        sync.RWMutex
}

// NewRegistry creates a new capability registry and loads embedded YAML files
func NewRegistry() (*Registry, error) {
	r := &Registry{
		providers: make(map[string]*ProviderCapabilities),
	}

	for _, provider := range []string{"groq", "gemini"} {
		if err := r.loadProviderFile(provider); err != nil {
			return nil, fmt.Errorf("failed to load %s capabilities: %w", provider, err)
		}
	}

	return r, nil
}

// loadProviderFile loads a provider's capability YAML file
func (r *Registry) loadProviderFile(provider string) error {
	filename := fmt.Sprintf("config/%s.yaml", provider)
	data, err := configFiles.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var providerCaps ProviderCapabilities
	if err := yaml.Unmarshal(data, &providerCaps); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", filename, err)
	}
	if providerCaps.DefaultModel == "" || !providerCaps.HasModel(providerCaps.DefaultModel) {
		return fmt.Errorf("%s: default model %q is not in the catalog", filename, providerCaps.DefaultModel)
	}

	r.mu.Lock()
	r.providers[provider] = &providerCaps
	r.mu.Unlock()

	return nil
}

// GetProvider returns the catalog for a provider
func (r *Registry) GetProvider(provider string) (*ProviderCapabilities, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providerCaps, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
	return providerCaps, nil
}

// GetModelCapabilities returns capabilities for a specific model
func (r *Registry) GetModelCapabilities(provider, model string) (*ModelCapabilities, error) {
	providerCaps, err := r.GetProvider(provider)
	if err != nil {
		return nil, err
	}

	for i := range providerCaps.Models {
		if providerCaps.Models[i].ID == model {
			return &providerCaps.Models[i], nil
		}
	}

	return nil, fmt.Errorf("unknown model %s for provider %s", model, provider)
}

// ListProviderModels returns all models for a provider (ordered as defined in YAML).
// The returned slice is a copy.
func (r *Registry) ListProviderModels(provider string) ([]ModelCapabilities, error) {
	providerCaps, err := r.GetProvider(provider)
	if err != nil {
		return nil, err
	}

	models := make([]ModelCapabilities, len(providerCaps.Models))
	copy(models, providerCaps.Models)
	return models, nil
}

// ResolveModel returns the configured model, or the provider default when unset.
func (r *Registry) ResolveModel(provider, configured string) (string, error) {
	providerCaps, err := r.GetProvider(provider)
	if err != nil {
		return "", err
	}
	if model := strings.TrimSpace(configured); model != "" {
		return model, nil
	}
	return providerCaps.DefaultModel, nil
}

// ValidateModel checks model against a strict catalog. Non-strict catalogs
// accept any model and leave the check to the provider.
func (r *Registry) ValidateModel(provider, model string) error {
	providerCaps, err := r.GetProvider(provider)
	if err != nil {
		return err
	}
	if !providerCaps.StrictModels || providerCaps.HasModel(model) {
		return nil
	}
	return domain.InvalidRequest(fmt.Sprintf(
		"Invalid model specified. Available models: %s",
		strings.Join(providerCaps.ModelIDs(), ", "),
	))
}

// GetAllProviders returns a sorted list of all registered providers
func (r *Registry) GetAllProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]string, 0, len(r.providers))
	for provider := range r.providers {
		providers = append(providers, provider)
	}
	sort.Strings(providers)
	return providers
}
