package config

import "time"

// Default returns a configuration with every optional field filled in.
func Default() *Config {
	return &Config{
		API: APIConfig{
			Addr: ":8080",
		},
		Database: DatabaseConfig{
			MinConns: 1,
			MaxConns: 5,
		},
		Gemini: GeminiConfig{
			Model:          "gemini-2.0-flash",
			EmbeddingModel: "gemini-embedding-001",
		},
		Vector: VectorConfig{
			Table:      "vector_chunks",
			Dimensions: 768,
			BatchSize:  100,
		},
		Storage: StorageConfig{
			Region:        "us-east-1",
			PresignExpiry: time.Hour,
		},
		Growjo: GrowjoConfig{
			URL:         "https://growjo.com/",
			WaitTimeout: 15 * time.Second,
		},
		Refine: RefineConfig{
			Workers: 4,
		},
		LogLevel: "info",
		Assistant: AssistantConfig{
			TopK:     5,
			MinScore: 0.2,
		},
	}
}
