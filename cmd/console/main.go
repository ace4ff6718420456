package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"hbnb_api/internal/adapters/observability"
	"hbnb_api/internal/cli"
	"hbnb_api/internal/shared"
	"hbnb_api/internal/store"
)

func main() {
	cfg, err := shared.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log.Logger = observability.NewLogger(cfg.Env)

	open := func(ctx context.Context) (*store.Store, error) {
		eng, err := shared.OpenEngine(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s := store.New(eng)
		if err := s.Reload(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	}

	if err := cli.Execute(context.Background(), open, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
