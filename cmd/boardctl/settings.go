package main

import (
	"fmt"

	"github.com/samvad-hq/samvad-board-client/pkg/themesettings"
	"github.com/spf13/cobra"
)

func (c *cli) settingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Show the public project settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := c.client.GetSettings(cmd.Context())
			if err != nil {
				return err
			}
			return c.printJSON(settings)
		},
	}
}

func (c *cli) themeCmd() *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show the theme settings merged with defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := themesettings.NewStore(c.client, c.log)
			if err := store.Load(cmd.Context()); err != nil {
				return err
			}
			if key == "" {
				return c.printJSON(store.Snapshot())
			}
			v, ok := store.Get(key)
			if !ok {
				if !themesettings.IsKnownKey(key) {
					return fmt.Errorf("theme setting %q is not set", key)
				}
				// Known settings without a default print as null.
				v = themesettings.Null()
			}
			return c.printJSON(v)
		},
	}
	cmd.Flags().StringVarP(&key, "key", "k", "", "Print a single setting")
	return cmd
}

func (c *cli) newsletterCmd() *cobra.Command {
	newsletterCmd := &cobra.Command{Use: "newsletter", Short: "Newsletter subscription operations"}

	newsletterCmd.AddCommand(&cobra.Command{
		Use:   "subscribe EMAIL",
		Short: "Subscribe an email address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.client.SubscribeToNewsletter(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.printJSON(res)
		},
	})

	newsletterCmd.AddCommand(&cobra.Command{
		Use:   "unsubscribe EMAIL",
		Short: "Unsubscribe an email address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.client.UnsubscribeFromNewsletter(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.printJSON(res)
		},
	})

	newsletterCmd.AddCommand(&cobra.Command{
		Use:   "status EMAIL",
		Short: "Check the subscription status of an email address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.client.CheckNewsletterSubscription(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.printJSON(res)
		},
	})

	return newsletterCmd
}

func (c *cli) footerLinksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "footer-links",
		Short: "Show footer links grouped by column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			links, err := c.client.GetFooterLinksByColumn(cmd.Context())
			if err != nil {
				return err
			}
			return c.printJSON(links)
		},
	}
}

func (c *cli) tagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tags, err := c.client.GetTags(cmd.Context())
			if err != nil {
				return err
			}
			return c.printJSON(tags)
		},
	}
}
