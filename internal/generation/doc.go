// Package generation defines the contracts the enrichment pipeline needs from
// an external language model: a Summarizer that turns a video into a short
// summary and a QuizGenerator that turns combined summaries into
// multiple-choice questions. It also owns the strict parse step for model
// quiz output, which never lets malformed text past its boundary.
package generation
