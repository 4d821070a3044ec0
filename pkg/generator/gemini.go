package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// conceptSchema constrains Gemini to the {"name", "emoji"} object.
var conceptSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"name": {
			Type:        genai.TypeString,
			Description: "The name of the resulting element (e.g., 'Steam', 'Mud', 'Robot').",
		},
		"emoji": {
			Type:        genai.TypeString,
			Description: "A single emoji representing the result.",
		},
	},
	Required: []string{"name", "emoji"},
}

func newGeminiCaller(apiKey, model, baseURL string, timeout time.Duration) (CallFunc, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(context.Background(), clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	genCfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   conceptSchema,
	}

	return func(ctx context.Context, prompt string) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), genCfg)
		if err != nil {
			return "", fmt.Errorf("gemini request: %w", err)
		}

		text := strings.TrimSpace(resp.Text())
		if text == "" {
			return "", ErrEmptyResponse
		}
		return text, nil
	}, nil
}
