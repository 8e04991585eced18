package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/heroes/internal/domain/model"
)

var errNotFound = errors.New("hero not found")

func (c *cli) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every hero",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.newSession()
			if err != nil {
				return err
			}
			heroes := s.client.ListHeroes(cmd.Context())
			if err := c.finish(s); err != nil {
				return err
			}
			return c.printHeroes(heroes)
		},
	}
}

func (c *cli) getCommand() *cobra.Command {
	var lenient bool
	cmd := &cobra.Command{
		Use:   "get ID",
		Short: "Show one hero",
		Long: `Show one hero. By default the hero is fetched by its URL and a missing
hero is an error reported by the backend. With --lenient the collection is
filtered by id instead, and a missing hero is simply not found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := c.newSession()
			if err != nil {
				return err
			}
			var h *model.Hero
			if lenient {
				h = s.client.GetHeroLenient(cmd.Context(), id)
			} else {
				h = s.client.GetHero(cmd.Context(), id)
			}
			if err := c.finish(s); err != nil {
				return err
			}
			if h == nil {
				return fmt.Errorf("%w: id=%d", errNotFound, id)
			}
			return c.printHero(h)
		},
	}
	cmd.Flags().BoolVar(&lenient, "lenient", false, "filter the collection by id instead of fetching the hero URL")
	return cmd
}

func (c *cli) searchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search TERM",
		Short: "Find heroes whose name contains TERM",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.newSession()
			if err != nil {
				return err
			}
			heroes := s.client.SearchHeroes(cmd.Context(), args[0])
			if err := c.finish(s); err != nil {
				return err
			}
			return c.printHeroes(heroes)
		},
	}
}

func (c *cli) addCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME...",
		Short: "Create a hero",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(strings.Join(args, " "))
			if name == "" {
				return errors.New("hero name must not be blank")
			}
			s, err := c.newSession()
			if err != nil {
				return err
			}
			h := s.client.AddHero(cmd.Context(), model.Hero{Name: name})
			if err := c.finish(s); err != nil {
				return err
			}
			if h == nil {
				return errors.New("backend returned no hero")
			}
			return c.printHero(h)
		},
	}
}

func (c *cli) updateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update ID NAME...",
		Short: "Rename a hero",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			name := strings.TrimSpace(strings.Join(args[1:], " "))
			s, err := c.newSession()
			if err != nil {
				return err
			}
			h := s.client.UpdateHero(cmd.Context(), model.Hero{ID: id, Name: name})
			if err := c.finish(s); err != nil {
				return err
			}
			if h == nil {
				// the backend accepted the update without echoing the hero
				h = &model.Hero{ID: id, Name: name}
			}
			return c.printHero(h)
		},
	}
}

func (c *cli) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a hero",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := c.newSession()
			if err != nil {
				return err
			}
			h := s.client.DeleteHero(cmd.Context(), model.ID(id))
			if err := c.finish(s); err != nil {
				return err
			}
			if h == nil {
				return fmt.Errorf("%w: id=%d", errNotFound, id)
			}
			return c.printHero(h)
		},
	}
}
