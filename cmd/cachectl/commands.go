package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"career-gap-backend/internal/analyses"
	"career-gap-backend/internal/fingerprint"
)

func newStatsCmd(open openCacheFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the number of cached analyses and their average access count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cache, release, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			stats, err := cache.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "total analyses:       %d\n", stats.TotalAnalyses)
			fmt.Fprintf(out, "average access count: %.2f\n", stats.AverageAccessCount)
			return nil
		},
	}
}

func newCleanupCmd(open openCacheFunc, confirm confirmFunc) *cobra.Command {
	var (
		days int
		yes  bool
	)
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete analyses older than --days that were never reused",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days < 0 {
				return analyses.ErrInvalidDaysOld
			}
			if !yes {
				ok, err := confirm(fmt.Sprintf("Delete single-use analyses older than %d days", days))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "aborted")
					return nil
				}
			}

			cache, release, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			deleted, err := cache.Cleanup(cmd.Context(), days)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d old analyses\n", deleted)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", analyses.DefaultCleanupDays, "minimum age in days")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newFingerprintCmd() *cobra.Command {
	var resumePath, jobPath string
	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the cache key for a resume and job description pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if resumePath == "" || jobPath == "" {
				return errors.New("--resume and --job are required")
			}
			resume, err := os.ReadFile(resumePath)
			if err != nil {
				return fmt.Errorf("read resume: %w", err)
			}
			job, err := os.ReadFile(jobPath)
			if err != nil {
				return fmt.Errorf("read job description: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), fingerprint.Key(string(resume), string(job)))
			return nil
		},
	}
	cmd.Flags().StringVar(&resumePath, "resume", "", "path to the resume text")
	cmd.Flags().StringVar(&jobPath, "job", "", "path to the job description text")
	return cmd
}
