// ABOUTME: One-shot speech synthesis and reasoning queries through genai
// ABOUTME: Synthesize returns 24kHz PCM for the scheduler, Reason returns grounded text
package live

import (
	"context"
	"fmt"
	"log"

	"google.golang.org/genai"
)

// generator is the part of genai.Models that Speech needs
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// SpeechConfig selects models for synthesis and reasoning
type SpeechConfig struct {
	TTSModel       string
	Voice          string
	ReasonModel    string
	ThinkingBudget int32
}

// Citation is a web source used to ground an answer
type Citation struct {
	Title string
	URI   string
}

// Answer is the result of a reasoning query
type Answer struct {
	Text      string
	Citations []Citation
}

// Speech wraps the non-streaming genai models
type Speech struct {
	gen    generator
	config SpeechConfig
}

// NewSpeech creates a Speech client
func NewSpeech(client *genai.Client, config SpeechConfig) *Speech {
	return &Speech{gen: client.Models, config: config}
}

// Synthesize renders text as raw PCM in the session output format
func (s *Speech) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := s.gen.GenerateContent(ctx, s.config.TTSModel, genai.Text(text), &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityAudio)},
		SpeechConfig:       speechConfig(s.config.Voice),
	})
	if err != nil {
		return nil, fmt.Errorf("speech synthesis failed: %w", err)
	}

	var pcm []byte
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part != nil && part.InlineData != nil {
				pcm = append(pcm, part.InlineData.Data...)
			}
		}
	}
	if len(pcm) == 0 {
		return nil, ErrNoAudio
	}
	return pcm, nil
}

// Reason answers a query with the thinking model, optionally grounded in
// Google Search results
func (s *Speech) Reason(ctx context.Context, query string, grounded bool) (Answer, error) {
	config := &genai.GenerateContentConfig{
		ThinkingConfig: &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(s.config.ThinkingBudget)},
	}
	if grounded {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	resp, err := s.gen.GenerateContent(ctx, s.config.ReasonModel, genai.Text(query), config)
	if err != nil {
		return Answer{}, fmt.Errorf("reasoning query failed: %w", err)
	}

	answer := Answer{Text: resp.Text()}
	if len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
			if chunk == nil || chunk.Web == nil {
				continue
			}
			answer.Citations = append(answer.Citations, Citation{Title: chunk.Web.Title, URI: chunk.Web.URI})
		}
	}

	if len(answer.Citations) > 0 {
		log.Printf("Reasoning answer grounded in %d sources", len(answer.Citations))
	}
	return answer, nil
}
