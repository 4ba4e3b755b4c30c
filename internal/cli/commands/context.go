package commands

import (
	"context"

	"github.com/forgelabs/modforge/internal/config"
	"github.com/forgelabs/modforge/internal/resolve"
)

type configKey struct{}
type resolverKey struct{}

// WithConfig stores the loaded tool configuration on the context.
func WithConfig(ctx context.Context, cfg *config.Options) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// WithResolver stores the resolver on the context.
func WithResolver(ctx context.Context, r *resolve.Resolver) context.Context {
	return context.WithValue(ctx, resolverKey{}, r)
}

func getConfig(ctx context.Context) *config.Options {
	if c, ok := ctx.Value(configKey{}).(*config.Options); ok {
		return c
	}
	return &config.Options{NamingScheme: config.DefaultNamingScheme}
}

func getResolver(ctx context.Context) *resolve.Resolver {
	if r, ok := ctx.Value(resolverKey{}).(*resolve.Resolver); ok {
		return r
	}
	return resolve.New(getConfig(ctx), nil)
}
