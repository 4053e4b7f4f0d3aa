package domain

import "context"

// Generator synthesizes a fresh answer from retrieved context and the query.
type Generator interface {
	Generate(ctx context.Context, promptContext, query string) (string, error)
}
