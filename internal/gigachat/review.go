package gigachat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"speech-coach-go/internal/types"
)

// Status is the explicit outcome of one review attempt. The review call never
// fails its caller; failures are values, not errors.
type Status int

const (
	StatusSucceeded Status = iota
	StatusSkipped
	StatusFailed
)

type Outcome struct {
	Status Status
	Review *types.AIReview
	Reason string
}

func succeeded(r *types.AIReview) Outcome { return Outcome{Status: StatusSucceeded, Review: r} }
func skipped(reason string) Outcome       { return Outcome{Status: StatusSkipped, Reason: reason} }
func failed(reason string) Outcome        { return Outcome{Status: StatusFailed, Reason: reason} }

const systemPrompt = `You are an expert in public speaking and rhetoric.
Analyze the speech using the provided metrics and transcript.
Give a thorough, personalized assessment.
Answer strictly as JSON with this structure:
{
    "overall_assessment": "string - overall assessment",
    "strengths": ["array of strings - strong points"],
    "areas_for_improvement": ["array of strings - growth areas"],
    "detailed_recommendations": ["array of strings - concrete recommendations"],
    "key_insights": ["array of strings - key insights"],
    "confidence_score": number between 0 and 1
}`

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Review submits the baseline analysis for a narrative assessment. Whatever
// goes wrong, the caller gets an Outcome, never an error.
func (c *Client) Review(ctx context.Context, result types.AnalysisResult) Outcome {
	if !c.cfg.Enabled {
		c.log.Debug("gigachat review disabled")
		return skipped("disabled by configuration")
	}

	if err := c.Authenticate(ctx); err != nil {
		if errors.Is(err, ErrRateLimited) {
			c.log.Warn("gigachat rate limited, skipping review")
		} else {
			c.log.WithError(err).Error("gigachat authentication failed, skipping review")
		}
		return failed(err.Error())
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(result)},
		},
		Temperature: 0.7,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return failed(fmt.Sprintf("encode request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.APIURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return failed(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	c.log.Info("requesting gigachat review")
	resp, err := c.httpClient().Do(req)
	if err != nil {
		c.log.WithError(err).Error("gigachat review request failed")
		return failed(err.Error())
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusTooManyRequests {
		c.log.Warn("gigachat rate limited on review request")
		return failed("rate limited")
	}
	if resp.StatusCode != http.StatusOK {
		c.log.WithField("status", resp.StatusCode).Error("gigachat review request rejected")
		return failed(fmt.Sprintf("status %d", resp.StatusCode))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.log.WithError(err).Error("gigachat response is not valid JSON")
		return failed("malformed response envelope")
	}
	if len(parsed.Choices) == 0 {
		c.log.Error("no choices in gigachat response")
		return failed("empty choices")
	}

	review := parseReview(parsed.Choices[0].Message.Content, c.log)
	c.log.WithField("confidence", review.ConfidenceScore).Info("gigachat review received")
	return succeeded(review)
}
