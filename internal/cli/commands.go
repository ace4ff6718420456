package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"hbnb_api/internal/domain"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// build fills a fresh entity of kind from attrs. Unlike HTTP updates, parent
// ids and the user email may be given here. Server-assigned and unknown
// fields are ignored; a value of the wrong type is an error.
func build(kind domain.Kind, attrs map[string]json.RawMessage) (domain.Entity, error) {
	e := domain.New(kind)
	rest := make(map[string]json.RawMessage, len(attrs))
	for key, raw := range attrs {
		dst := creationField(e, key)
		if dst == nil {
			rest[key] = raw
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return nil, &domain.FieldError{Field: key, Err: domain.ErrInvalidValue}
		}
	}
	if err := domain.ApplyAll(e, rest); err != nil {
		return nil, err
	}
	return e, nil
}

// creationField returns the string field behind key when it may only be set
// at creation, or nil.
func creationField(e domain.Entity, key string) *string {
	switch v := e.(type) {
	case *domain.User:
		if key == "email" {
			return &v.Email
		}
	case *domain.City:
		if key == "state_id" {
			return &v.StateID
		}
	case *domain.Place:
		switch key {
		case "city_id":
			return &v.CityID
		case "user_id":
			return &v.UserID
		}
	case *domain.Review:
		switch key {
		case "place_id":
			return &v.PlaceID
		case "user_id":
			return &v.UserID
		}
	}
	return nil
}

func (c *console) createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <Class> [key=value ...]",
		Short: "Create an object and print its id",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := kindArg(args)
			if err != nil {
				return err
			}
			e, err := build(k, parseParams(args[1:]))
			if err != nil {
				return err
			}
			if err := c.store.Commit(cmd.Context(), func() error { return c.store.New(e) }); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), e.Meta().ID)
			return err
		},
	}
}

func (c *console) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <Class> <id>",
		Short: "Print one object",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.instanceArgs(args)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), e)
		},
	}
}

func (c *console) destroyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "destroy <Class> <id>",
		Short: "Delete an object and its dependents",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.instanceArgs(args)
			if err != nil {
				return err
			}
			return c.store.Commit(cmd.Context(), func() error {
				c.store.Delete(e.Kind(), e.Meta().ID)
				return nil
			})
		},
	}
}

func (c *console) allCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "all [Class]",
		Short: "Print every object, or every object of one class",
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := domain.Kinds
			if len(args) > 0 {
				k, err := kindArg(args)
				if err != nil {
					return err
				}
				kinds = []domain.Kind{k}
			}
			out := []domain.Entity{}
			for _, k := range kinds {
				out = append(out, c.store.List(k)...)
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func (c *console) countCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count <Class>",
		Short: "Print the number of objects of a class",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := kindArg(args)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), c.store.Count(k))
			return err
		},
	}
}

func (c *console) updateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <Class> <id> key=value [key=value ...]",
		Short: "Change fields of an object",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.instanceArgs(args)
			if err != nil {
				return err
			}
			if len(args) < 3 {
				return fmt.Errorf("** attribute name missing **")
			}
			attrs := parseParams(args[2:])
			return c.store.Commit(cmd.Context(), func() error {
				return c.store.Update(e.Kind(), e.Meta().ID, func(e domain.Entity) error {
					return domain.ApplyAll(e, attrs)
				})
			})
		},
	}
}
