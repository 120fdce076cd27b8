package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// themeOption is an ephemeral proposal. It is generated on demand, applied
// by copying its values onto the settings singleton, and never persisted.
type themeOption struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
	AccentColor    string `json:"accentColor"`
	FontFamily     string `json:"fontFamily"`
	Style          string `json:"style"`
	Mood           string `json:"mood"`
	Reasoning      string `json:"reasoning"`
}

type themeGenerationResult struct {
	BusinessAnalysis string        `json:"businessAnalysis"`
	Themes           []themeOption `json:"themes"`
}

// themeGenerator talks to an OpenAI-compatible chat completion endpoint.
// The HTTP client and base URL are injected so tests can point it at a fake.
type themeGenerator struct {
	client  *http.Client
	apiKey  string
	baseURL string
	model   string
}

func newThemeGenerator(client *http.Client, apiKey, baseURL string) *themeGenerator {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &themeGenerator{
		client:  client,
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   "gpt-4o",
	}
}

// ---------------------------------------------------------------------------
// Generation
// ---------------------------------------------------------------------------

const themeSystemPrompt = "You are an expert brand designer with deep knowledge of color psychology, typography, and industry design trends. Always respond with valid JSON."

const themePromptTemplate = `You are an expert brand designer creating website themes for businesses.

Business Description: %q

Analyze this business and create 3 distinct theme options that would appeal to their target customers. Each theme should have a different personality but all should be appropriate for the business type.

Consider:
- Industry conventions and customer expectations
- Geographic/regional factors if mentioned
- Business personality (traditional, modern, family-owned, etc.)
- Target demographic
- Competition differentiation

For colors, use HSL format (hue saturation%% lightness%%) and ensure good contrast and accessibility.

For fonts, choose from these options:
- Inter (modern, clean)
- Merriweather (traditional, readable)
- Poppins (friendly, approachable)
- Playfair Display (elegant, serif)
- Montserrat (professional, versatile)
- Source Sans Pro (neutral, corporate)

Respond with JSON in this exact format:
{
  "businessAnalysis": "Brief analysis of the business type and target audience",
  "themes": [
    {
      "id": "theme-1",
      "name": "Theme Name",
      "description": "Brief description of this theme's personality",
      "primaryColor": "210 15%% 25%%",
      "secondaryColor": "45 25%% 85%%",
      "accentColor": "25 85%% 55%%",
      "fontFamily": "Inter",
      "style": "modern",
      "mood": "Professional and trustworthy",
      "reasoning": "Why this theme works for this business"
    }
  ]
}`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// errQuotaExceeded marks a rate-limit or quota failure from the generative
// service. Callers convert it to the demo fallback instead of surfacing it.
var errQuotaExceeded = errors.New("generation quota exceeded")

// generateThemes asks the generative service for exactly three theme
// proposals. A quota failure degrades to a fixed demo set so the admin UI
// stays usable without a live key.
func (g *themeGenerator) generateThemes(ctx context.Context, businessDescription string) (themeGenerationResult, error) {
	if strings.TrimSpace(businessDescription) == "" {
		return themeGenerationResult{}, &validationError{Fields: []string{"businessDescription"}}
	}

	result, err := g.requestThemes(ctx, businessDescription)
	if err != nil {
		if errors.Is(err, errQuotaExceeded) {
			return demoThemes(), nil
		}
		return themeGenerationResult{}, fmt.Errorf("failed to generate themes: %w", err)
	}
	return result, nil
}

func (g *themeGenerator) requestThemes(ctx context.Context, businessDescription string) (themeGenerationResult, error) {
	reqBody := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: themeSystemPrompt},
			{Role: "user", Content: fmt.Sprintf(themePromptTemplate, businessDescription)},
		},
	}
	reqBody.ResponseFormat.Type = "json_object"

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return themeGenerationResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return themeGenerationResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return themeGenerationResult{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return themeGenerationResult{}, err
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return themeGenerationResult{}, errQuotaExceeded
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return themeGenerationResult{}, fmt.Errorf("invalid completion response: %w", err)
	}
	if parsed.Error != nil {
		if parsed.Error.Code == "insufficient_quota" {
			return themeGenerationResult{}, errQuotaExceeded
		}
		return themeGenerationResult{}, errors.New(parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return themeGenerationResult{}, fmt.Errorf("completion request failed with status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return themeGenerationResult{}, errors.New("no content received from completion")
	}

	var result themeGenerationResult
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &result); err != nil {
		return themeGenerationResult{}, fmt.Errorf("invalid theme JSON: %w", err)
	}
	if len(result.Themes) != 3 {
		return themeGenerationResult{}, fmt.Errorf("expected exactly 3 themes in response, got %d", len(result.Themes))
	}
	for i := range result.Themes {
		if result.Themes[i].ID == "" {
			result.Themes[i].ID = fmt.Sprintf("theme-%d", i+1)
		}
	}
	return result, nil
}

// ---------------------------------------------------------------------------
// Demo fallback
// ---------------------------------------------------------------------------

func demoThemes() themeGenerationResult {
	return themeGenerationResult{
		BusinessAnalysis: "This appears to be a rural veterinary clinic with a traditional, trustworthy atmosphere that serves both farm animals and family pets. The 25-year history suggests established community relationships and reliability.",
		Themes: []themeOption{
			{
				ID:             "theme-1",
				Name:           "Trusted Countryside",
				Description:    "Warm, traditional colors that reflect rural heritage and trustworthiness",
				PrimaryColor:   "200 15% 35%",
				SecondaryColor: "120 25% 85%",
				AccentColor:    "35 60% 55%",
				FontFamily:     "Merriweather",
				Style:          "traditional",
				Mood:           "Trustworthy and established",
				Reasoning:      "Earth tones and traditional serif fonts convey reliability and experience, perfect for a long-established rural practice",
			},
			{
				ID:             "theme-2",
				Name:           "Modern Care",
				Description:    "Clean, professional design emphasizing medical expertise",
				PrimaryColor:   "210 30% 25%",
				SecondaryColor: "210 15% 90%",
				AccentColor:    "160 50% 45%",
				FontFamily:     "Inter",
				Style:          "professional",
				Mood:           "Modern and capable",
				Reasoning:      "Clean blues and modern typography reflect medical professionalism while remaining approachable for rural clients",
			},
			{
				ID:             "theme-3",
				Name:           "Gentle Touch",
				Description:    "Soft, caring colors that emphasize compassion for animals",
				PrimaryColor:   "25 20% 30%",
				SecondaryColor: "45 35% 88%",
				AccentColor:    "90 40% 50%",
				FontFamily:     "Poppins",
				Style:          "friendly",
				Mood:           "Caring and approachable",
				Reasoning:      "Warm browns and gentle greens create a nurturing atmosphere that appeals to pet owners while staying professional",
			},
		},
	}
}

// ---------------------------------------------------------------------------
// Color conversion
// ---------------------------------------------------------------------------

// hslToHex converts an "H S% L%" color string to "#rrggbb". Malformed input
// is an error; themes carry model-generated colors and a bad one should fail
// the apply, not write garbage into the settings row.
func hslToHex(hsl string) (string, error) {
	parts := strings.Fields(strings.TrimSpace(hsl))
	if len(parts) != 3 {
		return "", fmt.Errorf("malformed HSL color %q", hsl)
	}
	h, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", fmt.Errorf("malformed HSL hue in %q", hsl)
	}
	s, err := strconv.ParseFloat(strings.TrimSuffix(parts[1], "%"), 64)
	if err != nil {
		return "", fmt.Errorf("malformed HSL saturation in %q", hsl)
	}
	l, err := strconv.ParseFloat(strings.TrimSuffix(parts[2], "%"), 64)
	if err != nil {
		return "", fmt.Errorf("malformed HSL lightness in %q", hsl)
	}
	s /= 100
	l /= 100

	a := s * math.Min(l, 1-l)
	channel := func(n float64) int {
		k := math.Mod(n+h/30, 12)
		c := l - a*math.Max(math.Min(math.Min(k-3, 9-k), 1), -1)
		return int(math.Round(255 * c))
	}
	return fmt.Sprintf("#%02x%02x%02x", channel(0), channel(8), channel(4)), nil
}

// themeToSettingsInput converts a theme's three HSL colors to hex and packs
// them, with the font family, into a merge payload for applySettings.
func themeToSettingsInput(theme themeOption) (settingsInput, error) {
	primary, err := hslToHex(theme.PrimaryColor)
	if err != nil {
		return settingsInput{}, err
	}
	secondary, err := hslToHex(theme.SecondaryColor)
	if err != nil {
		return settingsInput{}, err
	}
	accent, err := hslToHex(theme.AccentColor)
	if err != nil {
		return settingsInput{}, err
	}
	font := theme.FontFamily
	return settingsInput{
		PrimaryColor:   &primary,
		SecondaryColor: &secondary,
		AccentColor:    &accent,
		FontFamily:     &font,
	}, nil
}
