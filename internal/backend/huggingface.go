// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/morganforge/memai/internal/config"
)

// HuggingFace inference endpoints. Overridable for tests.
const (
	defaultHFInferenceURL = "https://api-inference.huggingface.co/models/"
	defaultHFWhoAmIURL    = "https://huggingface.co/api/whoami"
)

// HuggingFace streams generations through the hosted Inference API.
// Responses arrive either as SSE token events or as a single JSON body,
// depending on the model; both shapes are handled.
type HuggingFace struct {
	apiKey       string
	model        string
	cfg          *config.Config
	inferenceURL string
	httpClient   *http.Client
}

// NewHuggingFace creates the HuggingFace backend. The API key is required.
func NewHuggingFace(cfg *config.Config) (*HuggingFace, error) {
	if cfg.HuggingFace.APIKey == "" {
		return nil, errors.New("HuggingFace API key required: set huggingface.api_key or MEMAI_HF_API_KEY")
	}
	return &HuggingFace{
		apiKey:       cfg.HuggingFace.APIKey,
		model:        cfg.HuggingFace.Model,
		cfg:          cfg,
		inferenceURL: defaultHFInferenceURL,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Name implements Backend.
func (h *HuggingFace) Name() string {
	return config.BackendHuggingFace
}

// hfRequest is the Inference API request body.
type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Options    hfOptions    `json:"options"`
	Stream     bool         `json:"stream"`
}

type hfParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfOptions struct {
	UseCache bool `json:"use_cache"`
}

// hfTokenEvent is one SSE data payload during streaming.
type hfTokenEvent struct {
	Token struct {
		Text string `json:"text"`
	} `json:"token"`
	GeneratedText *string `json:"generated_text"`
}

// Stream implements Backend.
func (h *HuggingFace) Stream(ctx context.Context, messages []Message, onToken func(string)) (*Result, error) {
	system, prompt := flattenTranscript(messages)
	if system != "" {
		prompt = system + "\n" + prompt
	}
	prompt += "\nAssistant:"

	body, err := json.Marshal(hfRequest{
		Inputs: prompt,
		Parameters: hfParameters{
			MaxNewTokens:   h.cfg.Generation.MaxTokens,
			Temperature:    h.cfg.Generation.Temperature,
			ReturnFullText: false,
		},
		Options: hfOptions{UseCache: false},
		Stream:  true,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.inferenceURL+h.model, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+h.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HuggingFace request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, errors.New("HuggingFace rejected the API key")
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("HuggingFace error: %s", apiErr.Error)
		}
		return nil, fmt.Errorf("HuggingFace request failed: %s", resp.Status)
	}

	var out strings.Builder
	var ttft time.Duration
	emit := func(text string) {
		if text == "" {
			return
		}
		if ttft == 0 {
			ttft = time.Since(start)
		}
		out.WriteString(text)
		if onToken != nil {
			onToken(text)
		}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if payload, ok := strings.CutPrefix(line, "data: "); ok {
			// SSE token event
			if payload == "[DONE]" {
				break
			}
			var ev hfTokenEvent
			if err := json.Unmarshal([]byte(payload), &ev); err != nil {
				continue
			}
			if ev.GeneratedText != nil && out.Len() == 0 {
				// Non-incremental model: the whole response in one event.
				emit(*ev.GeneratedText)
				break
			}
			emit(ev.Token.Text)
			continue
		}

		// Plain JSON fallback: a list or object with generated_text.
		if text := parseHFPlainJSON(line); text != "" {
			emit(text)
			break
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("HuggingFace stream failed: %w", err)
	}

	result := &Result{
		Text:     strings.TrimSpace(out.String()),
		Duration: time.Since(start),
		TTFT:     ttft,
	}
	words := len(strings.Fields(result.Text))
	if words > 0 && result.Duration > 0 {
		result.CompletionTokens = words
		result.TokensPerSec = float64(words) / result.Duration.Seconds()
	}
	return result, nil
}

// parseHFPlainJSON extracts generated_text from a non-streaming response
// body, which is either a JSON array or a single object.
func parseHFPlainJSON(line string) string {
	var asList []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.Unmarshal([]byte(line), &asList); err == nil && len(asList) > 0 {
		return asList[0].GeneratedText
	}
	var asObj struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.Unmarshal([]byte(line), &asObj); err == nil {
		return asObj.GeneratedText
	}
	return ""
}

// Stop implements Backend.
func (h *HuggingFace) Stop() {}
