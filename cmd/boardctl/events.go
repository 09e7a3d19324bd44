package main

import (
	"time"

	"github.com/spf13/cobra"
)

func (c *cli) eventsCmd() *cobra.Command {
	eventsCmd := &cobra.Command{Use: "events", Short: "Event operations"}

	eventsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			events, err := c.client.GetEvents(cmd.Context())
			if err != nil {
				return err
			}
			return c.printJSON(events)
		},
	})

	eventsCmd.AddCommand(&cobra.Command{
		Use:   "by-category",
		Short: "List events grouped by category of the active theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			grouped, err := c.client.GetEventsByCategory(cmd.Context())
			if err != nil {
				return err
			}
			return c.printJSON(grouped)
		},
	})

	eventsCmd.AddCommand(&cobra.Command{
		Use:   "get EVENT_ID",
		Short: "Get an event by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			evt, err := c.client.GetEvent(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.printJSON(evt)
		},
	})

	eventsCmd.AddCommand(&cobra.Command{
		Use:   "slug SLUG",
		Short: "Get an event by slug",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			evt, err := c.client.GetEventBySlug(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.printJSON(evt)
		},
	})

	return eventsCmd
}

func (c *cli) voteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vote EVENT_ID",
		Short: "Vote for an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			res, err := c.client.VoteEvent(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.printJSON(res)
		},
	}
}

func (c *cli) voteStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vote-status EVENT_ID",
		Short: "Check whether this client has voted for an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			res, err := c.client.CheckVoteStatus(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.printJSON(res)
		},
	}
}

// defaultFillTime is how long before submission the form is assumed to have
// been opened when --form-start-ms is not given.
const defaultFillTime = 10 * time.Second

func (c *cli) feedbackCmd() *cobra.Command {
	var title, content string
	var formStartMs int64
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Submit feedback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if formStartMs <= 0 {
				formStartMs = time.Now().Add(-defaultFillTime).UnixMilli()
			}
			res, err := c.client.SubmitFeedback(cmd.Context(), title, content, formStartMs)
			if err != nil {
				return err
			}
			return c.printJSON(res)
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "Feedback title (required)")
	cmd.Flags().StringVarP(&content, "content", "c", "", "Feedback body (required)")
	cmd.Flags().Int64Var(&formStartMs, "form-start-ms", 0, "Unix time in ms the form was opened")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}
