// internal/generator/gemini.go
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"okuda/tabi-planner/internal/config"
)

// geminiGenerator implements ItineraryGenerator against the Gemini
// generateContent REST endpoint in JSON mode.
type geminiGenerator struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiGenerator creates a generator client from config. The endpoint is
// overridable for tests and proxies.
func NewGeminiGenerator(cfg config.GeminiConfig) (ItineraryGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is not configured")
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &geminiGenerator{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

const planSystemPrompt = "You are a professional AI assistant that builds travel plans for trips within Japan."

const checklistSystemPrompt = "You are a professional AI assistant that suggests packing lists for travel plans within Japan."

// planPromptTemplate asks for the strict JSON document the normalizer
// expects: plan_title, four labelled transport_options and a day-by-day
// itinerary whose details carry short-distance transport_notes only.
const planPromptTemplate = `Based on the conditions below, output a travel plan as strict JSON
with "plan_title", "transport_options" and "itinerary" keys.

# Conditions
- Destination: %s
- Days: %d
- Departure point: %s
- Purpose of the trip: %s
- Other wishes: %s

# Instructions
1. Under "transport_options", propose the main transport from the departure
   point to the destination in exactly these four patterns, keyed by label:
   "price-priority", "speed-priority", "recommended", "car".
   Each proposal carries "method", "estimated_cost" (yen), "estimated_time"
   (minutes), "transit_count", "departure_time" and "arrival_time".
   Rough estimates are fine; use null when unknown.
2. In the itinerary "details", only suggest short-distance movement at the
   destination (walking, bus, taxi) as a concise "transport_notes" value.

# Output JSON shape
{
  "plan_title": "...",
  "transport_options": {
    "price-priority": {"method": "night bus + walk", "estimated_cost": 8000, "estimated_time": 480, "transit_count": 1, "departure_time": "07:00", "arrival_time": "14:00"},
    "speed-priority": {"method": "shinkansen + train", "estimated_cost": 25000, "estimated_time": 180, "transit_count": 3, "departure_time": "07:00", "arrival_time": "10:00"},
    "recommended": {"method": "LCC flight + train", "estimated_cost": 15000, "estimated_time": 240, "transit_count": 3, "departure_time": "07:00", "arrival_time": "12:00"},
    "car": {"method": "own car via expressway", "estimated_cost": 12000, "estimated_time": 420}
  },
  "itinerary": [
    {"day": 1, "details": [
      {"time": "09:00", "activity": "hotel arrival", "transport_notes": "train from the airport (about 30 min)"},
      {"time": "12:00", "activity": "lunch: local speciality", "transport_notes": "5 min walk from the hotel"}
    ]}
  ]
}`

const checklistPromptTemplate = `Based on the travel plan below, output a packing list as strict JSON.

# Travel plan
%s

# Output JSON shape
{
  "checklist": [
    {"category": "valuables", "required_items": ["wallet", "phone"], "items": []},
    {"category": "clothing", "required_items": ["underwear"], "items": ["t-shirts (one per day)"]},
    {"category": "bath and cosmetics", "required_items": ["sunscreen"], "items": ["shampoo"]},
    {"category": "other", "required_items": ["insurance card"], "items": ["insect repellent"]}
  ]
}`

// --- Gemini wire types ---

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMIMEType string `json:"response_mime_type,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"system_instruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// GeneratePlan calls the model with the plan prompt and returns the raw JSON
// text of the first candidate.
func (g *geminiGenerator) GeneratePlan(ctx context.Context, req PlanRequest) ([]byte, error) {
	style := strings.Join(req.StyleTags, ", ")
	if style == "" {
		style = "nothing in particular"
	}
	prompt := fmt.Sprintf(planPromptTemplate,
		req.Destination, req.Days, req.Departure, req.Purpose, style)

	return g.generate(ctx, planSystemPrompt, prompt)
}

// GenerateChecklist calls the model with the checklist prompt.
func (g *geminiGenerator) GenerateChecklist(ctx context.Context, planSummary string) ([]byte, error) {
	prompt := fmt.Sprintf(checklistPromptTemplate, planSummary)
	return g.generate(ctx, checklistSystemPrompt, prompt)
}

func (g *geminiGenerator) generate(ctx context.Context, systemPrompt, userPrompt string) ([]byte, error) {
	body := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}},
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: userPrompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			ResponseMIMEType: "application/json",
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generation request returned status %d", resp.StatusCode)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("generation response is not valid JSON: %w", err)
	}

	text := ""
	if len(parsed.Candidates) > 0 && len(parsed.Candidates[0].Content.Parts) > 0 {
		text = parsed.Candidates[0].Content.Parts[0].Text
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("generation response contained no text")
	}

	log.Printf("INFO: generation call took %s", time.Since(start).Round(time.Millisecond))
	return []byte(text), nil
}
