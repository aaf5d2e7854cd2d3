package capabilities

import "gopkg.in/yaml.v3"

// ModelCapabilities describes one model offered by a provider
type ModelCapabilities struct {
	// Model identifier (set during YAML unmarshaling)
	ID string `yaml:"-" json:"id"`

	// Display information
	DisplayName string `yaml:"display_name" json:"name"`
	Description string `yaml:"description" json:"description"`

	// MaxTokens is the context window advertised to clients
	MaxTokens int `yaml:"max_tokens" json:"max_tokens"`
}

// ProviderCapabilities represents all models for a provider
type ProviderCapabilities struct {
	Provider    string `yaml:"provider" json:"provider"`
	DisplayName string `yaml:"display_name" json:"display_name"`

	// ConsoleURL is where operators obtain an API key
	ConsoleURL string `yaml:"console_url" json:"console_url"`

	// APIKeyEnv and ModelEnv name the configuration keys for this provider
	APIKeyEnv string `yaml:"api_key_env" json:"-"`
	ModelEnv  string `yaml:"model_env" json:"-"`

	DefaultModel string `yaml:"default_model" json:"default_model"`

	// StrictModels rejects configured models that are not listed below
	StrictModels bool `yaml:"strict_models" json:"strict_models"`

	// QuotaStatus is the HTTP status reported when the provider quota is exhausted
	QuotaStatus int `yaml:"quota_status" json:"-"`

	Models []ModelCapabilities `yaml:"-" json:"models"` // Ordered slice, populated by custom unmarshaler
}

// UnmarshalYAML implements custom YAML unmarshaling to preserve model order from YAML file
func (p *ProviderCapabilities) UnmarshalYAML(node *yaml.Node) error {
	// Decode the scalar fields through an alias so this method isn't re-entered
	type plain ProviderCapabilities
	var head struct {
		plain  `yaml:",inline"`
		Models map[string]ModelCapabilities `yaml:"models"`
	}
	if err := node.Decode(&head); err != nil {
		return err
	}
	*p = ProviderCapabilities(head.plain)
	p.Models = nil

	// Extract model keys in YAML order and build the slice
	for i := 0; i < len(node.Content); i += 2 {
		if node.Content[i].Value != "models" {
			continue
		}
		modelsNode := node.Content[i+1]
		// modelsNode.Content alternates: key, value, key, value...
		for j := 0; j < len(modelsNode.Content); j += 2 {
			modelID := modelsNode.Content[j].Value
			if model, ok := head.Models[modelID]; ok {
				model.ID = modelID
				p.Models = append(p.Models, model)
			}
		}
		break
	}

	return nil
}

// ModelIDs returns the ids of all models in catalog order.
func (p *ProviderCapabilities) ModelIDs() []string {
	ids := make([]string, len(p.Models))
	for i := range p.Models {
		ids[i] = p.Models[i].ID
	}
	return ids
}

// HasModel reports whether id is listed in the catalog.
func (p *ProviderCapabilities) HasModel(id string) bool {
	for i := range p.Models {
		if p.Models[i].ID == id {
			return true
		}
	}
	return false
}
