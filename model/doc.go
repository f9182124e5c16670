// Package model provides model constants for the supported providers, the
// "auto" model selection rule, and the flat cost rate table.
//
// # Auto Selection
//
// Each provider defines its own mapping for the "auto" model. Prompts shorter
// than [ShortPromptChars] use the lowest-latency tier:
//
//	model.Auto(ai.ProviderGroq, 120)    // llama-3.1-8b-instant
//	model.Auto(ai.ProviderGroq, 12000)  // llama-3.3-70b-versatile
//	model.Auto(ai.ProviderArcee, 120)   // auto (Arcee Conductor routes)
//
// # Cost Estimation
//
// [Rates] is a flat per-generation table in cents. It is a deliberate
// approximation and can be overridden:
//
//	rates := model.DefaultRates().With(model.Rates{ai.ProviderGroq: 0})
//	cents := rates.EstimateCents(ai.ProviderGroq)
package model
