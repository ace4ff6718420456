// Package cli is the administrative console: object CRUD straight against
// the configured storage engine, without the HTTP layer.
package cli

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"hbnb_api/internal/domain"
	"hbnb_api/internal/store"
)

// Console error messages.
var (
	ErrClassMissing = errors.New("** class name missing **")
	ErrClassUnknown = errors.New("** class doesn't exist **")
	ErrIDMissing    = errors.New("** instance id missing **")
	ErrNoInstance   = errors.New("** no instance found **")
)

// Opener returns a reloaded store for one command invocation.
type Opener func(ctx context.Context) (*store.Store, error)

type console struct {
	open  Opener
	store *store.Store
}

// Execute runs the console with args, writing results to out. The store is
// opened before the subcommand runs and always closed afterwards.
func Execute(ctx context.Context, open Opener, args []string, out io.Writer) error {
	c := &console{open: open}
	defer func() {
		if c.store != nil {
			if err := c.store.Close(); err != nil {
				log.Warn().Err(err).Msg("close store")
			}
		}
	}()

	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	return root.ExecuteContext(ctx)
}

func (c *console) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hbnb",
		Short:         "hbnb console: inspect and edit stored objects",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			c.store = s
			return nil
		},
	}
	root.AddCommand(
		c.createCmd(),
		c.showCmd(),
		c.destroyCmd(),
		c.allCmd(),
		c.countCmd(),
		c.updateCmd(),
		c.seedCmd(),
	)
	return root
}

// kindArg resolves args[0] as a class name.
func kindArg(args []string) (domain.Kind, error) {
	if len(args) == 0 {
		return "", ErrClassMissing
	}
	k, ok := domain.ParseKind(args[0])
	if !ok {
		return "", ErrClassUnknown
	}
	return k, nil
}

// instanceArgs resolves "<Class> <id>" to a live object.
func (c *console) instanceArgs(args []string) (domain.Entity, error) {
	k, err := kindArg(args)
	if err != nil {
		return nil, err
	}
	if len(args) < 2 {
		return nil, ErrIDMissing
	}
	e, ok := c.store.Get(k, args[1])
	if !ok {
		return nil, ErrNoInstance
	}
	return e, nil
}
