package ai

import "strings"

// Capabilities are the per-model feature flags checked before dispatch.
type Capabilities struct {
	Chat      bool `json:"chat"`
	Vision    bool `json:"vision"`
	Code      bool `json:"code"`
	Streaming bool `json:"streaming"`
}

type Performance struct {
	Speed         string `json:"speed"`
	Quality       string `json:"quality"`
	ResourceUsage string `json:"resourceUsage"`
}

type Requirements struct {
	VRAM             string `json:"vram,omitempty"`
	RAM              string `json:"ram,omitempty"`
	InternetRequired bool   `json:"internetRequired"`
	APIKey           bool   `json:"apiKey,omitempty"`
}

// ModelConfig describes one cataloged upstream model.
type ModelConfig struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Provider      string       `json:"provider"`
	Type          string       `json:"type"`
	Capabilities  Capabilities `json:"capabilities"`
	Performance   Performance  `json:"performance"`
	Requirements  Requirements `json:"requirements"`
	ContextLength int          `json:"contextLength"`
	MaxTokens     int          `json:"maxTokens"`
	Description   string       `json:"description"`
}

// DefaultModelKey is used when a request names no model and no preference is stored.
const DefaultModelKey = "deepseek-r1t-chimera"

// Catalog maps internal short keys to upstream model configs.
var Catalog = map[string]ModelConfig{
	"deepseek-r1t-chimera": {
		ID:            "tngtech/deepseek-r1t-chimera:free",
		Name:          "DeepSeek Chimera (Roleplay)",
		Provider:      "openrouter",
		Type:          "chat",
		Capabilities:  Capabilities{Chat: true, Streaming: true},
		Performance:   Performance{Speed: "fast", Quality: "excellent", ResourceUsage: "low"},
		Requirements:  Requirements{InternetRequired: true, APIKey: true},
		ContextLength: 32768,
		MaxTokens:     8192,
		Description:   "Best for Roleplay - DeepSeek R1T Chimera",
	},
	"mimo-v2-flash": {
		ID:            "xiaomi/mimo-v2-flash:free",
		Name:          "Mimo V2 Flash (Academia/Finance)",
		Provider:      "openrouter",
		Type:          "chat",
		Capabilities:  Capabilities{Chat: true, Streaming: true},
		Performance:   Performance{Speed: "fast", Quality: "excellent", ResourceUsage: "low"},
		Requirements:  Requirements{InternetRequired: true, APIKey: true},
		ContextLength: 32768,
		MaxTokens:     8192,
		Description:   "Best for Academia, Translation, and Finance",
	},
	"deepseek-r1-0528": {
		ID:            "deepseek/deepseek-r1:free",
		Name:          "DeepSeek R1 (Reasoning)",
		Provider:      "openrouter",
		Type:          "chat",
		Capabilities:  Capabilities{Chat: true, Code: true, Streaming: true},
		Performance:   Performance{Speed: "medium", Quality: "excellent", ResourceUsage: "low"},
		Requirements:  Requirements{InternetRequired: true, APIKey: true},
		ContextLength: 65536,
		MaxTokens:     8192,
		Description:   "Reasoning model (like OpenAI o1)",
	},
	"blip2-caption": {
		ID:            "salesforce/blip2-flan-t5-xl",
		Name:          "BLIP-2 (Image Captioning)",
		Provider:      "openrouter",
		Type:          "vision",
		Capabilities:  Capabilities{Vision: true},
		Performance:   Performance{Speed: "medium", Quality: "good", ResourceUsage: "medium"},
		Requirements:  Requirements{InternetRequired: true, APIKey: true},
		ContextLength: 2048,
		MaxTokens:     512,
		Description:   "Vision-only captioning model, no text chat",
	},
	"qwen3-coder": {
		ID:            "qwen/qwen3-coder:free",
		Name:          "Qwen 3 Coder (Coding)",
		Provider:      "openrouter",
		Type:          "chat",
		Capabilities:  Capabilities{Chat: true, Vision: true, Code: true, Streaming: true},
		Performance:   Performance{Speed: "fast", Quality: "excellent", ResourceUsage: "low"},
		Requirements:  Requirements{InternetRequired: true, APIKey: true},
		ContextLength: 32768,
		MaxTokens:     8192,
		Description:   "Best for Coding tasks",
	},
}

// Resolve maps a request-supplied model id to a catalog entry. The id may be an
// internal short key or a literal upstream id. Ids with no catalog match resolve
// to a permissive synthetic config (full capabilities assumed) so models not yet
// cataloged keep working; capability gating is therefore only advisory for them.
// The returned key is empty for synthetic configs.
func Resolve(id string) (key string, cfg ModelConfig) {
	id = strings.TrimSpace(id)
	if id == "" {
		return DefaultModelKey, Catalog[DefaultModelKey]
	}
	if c, ok := Catalog[id]; ok {
		return id, c
	}
	for k, c := range Catalog {
		if c.ID == id {
			return k, c
		}
	}
	name := id
	if i := strings.Index(id, "/"); i >= 0 && i+1 < len(id) {
		name = id[i+1:]
	}
	return "", ModelConfig{
		ID:            id,
		Name:          name,
		Provider:      "openrouter",
		Type:          "chat",
		Capabilities:  Capabilities{Chat: true, Vision: true, Code: true, Streaming: true},
		Performance:   Performance{Speed: "medium", Quality: "good", ResourceUsage: "medium"},
		Requirements:  Requirements{InternetRequired: true, APIKey: true},
		ContextLength: 4096,
		MaxTokens:     4096,
		Description:   "Custom/New Model",
	}
}
