// Package reembed provides functionality for reembedding existing utterances
// with new or updated embedding models.
//
// This package supports batch processing of utterances with keyset
// pagination, progress tracking, retry logic with exponential backoff, and
// vector normalization to keep stored vectors compatible with cosine
// similarity search.
package reembed
