package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AhmeWagih/resume-analyzer/internal/extract"
	"github.com/AhmeWagih/resume-analyzer/internal/resumes"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/storage/object"
)

type session struct {
	Manager   *resumes.Manager
	Artifacts object.ObjectStore
	Close     func()
}

type opener func(ctx context.Context, userID string) (session, error)

type options struct {
	userID string
	yes    bool
	asJSON bool
}

func newRootCmd(open opener) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "resumectl",
		Short:         "Inspect and delete stored resumes",
		Long:          "resumectl lists, shows and deletes a user's resume records and their artifacts.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.userID, "user", "u", "", "User id whose resumes to manage (required)")
	_ = root.MarkPersistentFlagRequired("user")

	withSession := func(run func(cmd *cobra.Command, s session, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(opts.userID) == "" {
				return errors.New("--user is required")
			}
			s, err := open(cmd.Context(), opts.userID)
			if err != nil {
				return err
			}
			if s.Close != nil {
				defer s.Close()
			}
			return run(cmd, s, args)
		}
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List resumes",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, s session, _ []string) error {
			if err := s.Manager.LoadAll(cmd.Context()); err != nil {
				return err
			}
			state := s.Manager.Snapshot()
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), state)
			}
			return writeTable(cmd.OutOrStdout(), state.Resumes)
		}),
	}
	listCmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the full state as JSON")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one resume record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, s session, args []string) error {
			r, err := s.Manager.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), r)
		}),
	}

	textCmd := &cobra.Command{
		Use:   "text <id>",
		Short: "Print the text of a resume's source document",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, s session, args []string) error {
			r, err := s.Manager.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if r.ResumePath == "" {
				return fmt.Errorf("resume %s has no source document", r.ID)
			}
			text, err := extract.Text(cmd.Context(), s.Artifacts, r.ResumePath)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		}),
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one resume and its artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, s session, args []string) error {
			if !opts.yes && !confirm(cmd, fmt.Sprintf("Delete resume %s?", args[0])) {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
			out, err := s.Manager.DeleteByID(cmd.Context(), args[0])
			printOutcome(cmd.OutOrStdout(), out)
			return err
		}),
	}

	deleteAllCmd := &cobra.Command{
		Use:   "delete-all",
		Short: "Delete every resume for the user",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, s session, _ []string) error {
			ctx := cmd.Context()
			if err := s.Manager.LoadAll(ctx); err != nil {
				return err
			}
			count := len(s.Manager.Snapshot().Resumes)
			if count == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No resumes to delete.")
				return nil
			}

			if _, err := s.Manager.RequestDeleteAll(ctx); err != nil {
				return err
			}
			if !opts.yes && !confirm(cmd, fmt.Sprintf("Delete all %d resumes?", count)) {
				s.Manager.Disarm()
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}

			res, err := s.Manager.RequestDeleteAll(ctx)
			if res.Outcome != nil {
				for _, item := range res.Outcome.Items {
					printOutcome(cmd.OutOrStdout(), item)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted=%d failed=%d skipped=%d\n",
					res.Outcome.Deleted, res.Outcome.Failed, res.Outcome.Skipped)
			}
			return err
		}),
	}

	for _, c := range []*cobra.Command{deleteCmd, deleteAllCmd} {
		c.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Skip the confirmation prompt")
	}

	root.AddCommand(listCmd, showCmd, textCmd, deleteCmd, deleteAllCmd)
	return root
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(w io.Writer, list []resumes.Resume) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOMPANY\tJOB TITLE\tSCORE")
	for _, r := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f\n", r.ID, r.CompanyName, r.JobTitle, r.Feedback.OverallScore)
	}
	return tw.Flush()
}

func printOutcome(w io.Writer, out resumes.DeleteOutcome) {
	if out.ResumeID == "" {
		return
	}
	fmt.Fprintf(w, "%s: record %s", out.ResumeID, out.Record.Status)
	for _, a := range out.Artifacts {
		fmt.Fprintf(w, ", %s %s", a.Kind, a.Status)
	}
	fmt.Fprintln(w)
}
