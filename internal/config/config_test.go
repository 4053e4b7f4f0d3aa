package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	var cfg Config
	cfg.Corpus.Path = "data/corpus.parquet"
	cfg.Embedding.Model = "text-embedding-3-small"
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	if cfg.HTTP.Port != 8080 {
		t.Errorf("port: got %d", cfg.HTTP.Port)
	}
	if cfg.Index.NumLeaves != 25 {
		t.Errorf("num_leaves: got %d", cfg.Index.NumLeaves)
	}
	if cfg.Index.LeavesToSearch != 10 {
		t.Errorf("leaves_to_search: got %d", cfg.Index.LeavesToSearch)
	}
	if cfg.Index.TrainingSampleSize != 2000 {
		t.Errorf("training_sample_size: got %d", cfg.Index.TrainingSampleSize)
	}
	if cfg.Index.Seed != 42 {
		t.Errorf("seed: got %d", cfg.Index.Seed)
	}
	if cfg.Generation.Temperature != 0.2 {
		t.Errorf("temperature: got %v", cfg.Generation.Temperature)
	}
	if cfg.Generation.MaxOutputTokens != 1024 {
		t.Errorf("max_output_tokens: got %d", cfg.Generation.MaxOutputTokens)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("retry max_attempts: got %d", cfg.Retry.MaxAttempts)
	}
}

func TestApplyDefaultsInfersFormatFromExtension(t *testing.T) {
	var cfg Config
	cfg.Corpus.Path = "data/corpus.parquet"
	cfg.ApplyDefaults()
	if cfg.Corpus.Format != "parquet" {
		t.Errorf("format: got %q", cfg.Corpus.Format)
	}

	var csvCfg Config
	csvCfg.Corpus.Path = "data/corpus.csv"
	csvCfg.ApplyDefaults()
	if csvCfg.Corpus.Format != "csv" {
		t.Errorf("format: got %q", csvCfg.Corpus.Format)
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateRejectsMissingCorpusPath(t *testing.T) {
	cfg := validConfig()
	cfg.Corpus.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing corpus path")
	}
}

func TestValidateRejectsUnknownFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Corpus.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestValidateRejectsLeavesToSearchBeyondNumLeaves(t *testing.T) {
	cfg := validConfig()
	cfg.Index.LeavesToSearch = 30
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for leaves_to_search > num_leaves")
	}
}

func TestValidateRejectsMissingEmbeddingModel(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Model = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing embedding model")
	}
}

func TestValidateRequiresGenerationModelWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Generation.Enabled = true
	cfg.Generation.Model = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing generation model")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("SEMQA_TEST_VAR", "hello")

	out := string(expandEnvVars([]byte("value: ${SEMQA_TEST_VAR}")))
	if out != "value: hello" {
		t.Errorf("got %q", out)
	}
}

func TestExpandEnvVarsDefault(t *testing.T) {
	out := string(expandEnvVars([]byte("value: ${SEMQA_UNSET_VAR:-fallback}")))
	if out != "value: fallback" {
		t.Errorf("got %q", out)
	}

	t.Setenv("SEMQA_SET_VAR", "real")
	out = string(expandEnvVars([]byte("value: ${SEMQA_SET_VAR:-fallback}")))
	if out != "value: real" {
		t.Errorf("got %q", out)
	}
}

func TestExpandEnvVarsUnsetWithoutDefault(t *testing.T) {
	out := string(expandEnvVars([]byte("value: ${SEMQA_UNSET_VAR}")))
	if strings.Contains(out, "$") {
		t.Errorf("unexpanded variable in %q", out)
	}
}
