package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"statuslookup/application"
	"statuslookup/wizard"
)

var checkNoDelay bool

var checkCmd = &cobra.Command{
	Use:   "check [submission-id]",
	Short: "Look up one submission and print its status",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkNoDelay, "no-delay", false, "skip the simulated lookup delay")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id := args[0]

	finder, cleanup, err := newFinder(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	svc := newService(finder, cfg)
	if checkNoDelay {
		svc.WithDelay(0)
	}

	if !application.LooksLikeSubmissionID(id) {
		fmt.Fprintf(cmd.ErrOrStderr(), "note: submission ids usually look like %s\n", application.FormatHint)
	}

	rec, err := svc.Find(ctx, id)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			return errors.New(wizard.NotFoundMessage)
		}
		return fmt.Errorf("check %s: %w", id, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Submission ID: %s\n", rec.SubmissionID)
	fmt.Fprintf(out, "Current Status: %s\n", rec.Status)
	fmt.Fprintf(out, "Last Updated: %s\n", rec.LastUpdatedDate())
	return nil
}
