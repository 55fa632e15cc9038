// Package identity carries the acting user through a request.
package identity

import (
	"context"
	"strings"
)

// Actor is the user on whose behalf a mutation runs.
type Actor struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Valid reports whether the actor carries an id.
func (a Actor) Valid() bool {
	return strings.TrimSpace(a.ID) != ""
}

type ctxKey string

const actorKey ctxKey = "buyerleads.actor"

// WithActor stores the actor in context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext extracts the actor if present.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok && actor.Valid()
}
