// Package gemini implements the generation.Summarizer and
// generation.QuizGenerator contracts on Google's Gemini API.
//
// Video summaries are requested multimodally: the prompt travels with the
// public watch URL as file data, so the model reads the video itself. Quiz
// prompts carry the combined summaries of a playlist and ask for a strict
// JSON array, which the generation package parses.
//
// Every call is paced by a shared rate limiter, bounded by a per-call
// timeout, and retried with exponential backoff when the API fails
// transiently. Safety blocks and empty answers are returned without retry so
// that the caller's own attempt accounting stays authoritative.
package gemini
