package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxUsername ctxKey = iota
	ctxRole
	ctxAgentID
)

func WithIdentity(ctx context.Context, username, role, agentID string) context.Context {
	ctx = context.WithValue(ctx, ctxUsername, username)
	ctx = context.WithValue(ctx, ctxRole, role)
	ctx = context.WithValue(ctx, ctxAgentID, agentID)
	return ctx
}

func Username(ctx context.Context) (string, error) {
	if s, ok := ctx.Value(ctxUsername).(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("username not in context")
}

func Role(ctx context.Context) (string, error) {
	if s, ok := ctx.Value(ctxRole).(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("role not in context")
}

// AgentID may legitimately be empty for admin users.
func AgentID(ctx context.Context) string {
	if s, ok := ctx.Value(ctxAgentID).(string); ok {
		return s
	}
	return ""
}
