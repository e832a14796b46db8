// Package autoload registers all built-in LLM providers.
// Blank-import this package to make them available to llm.NewFromConfig.
package autoload

import (
	_ "lectern/pkg/llm/gemini"
	_ "lectern/pkg/llm/ollama"
	_ "lectern/pkg/llm/openailm"
)
