package main

import (
	"context"
	"errors"
	"fmt"

	"swiftjobs-backend/internal/bootstrap"
	"swiftjobs-backend/internal/domain"
	"swiftjobs-backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var negotiateCmd = &cobra.Command{
	Use:   "negotiate",
	Short: "Run a salary negotiation between a candidate and a job",
	Long: `Runs one negotiation to completion and prints the transcript and verdict.
With --demo a sample applicant, employer and job are created first, which is
handy against the in-memory store.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		req := domain.NegotiationRequest{
			SessionID:   viper.GetString("negotiate.session"),
			CandidateID: viper.GetString("negotiate.candidate"),
			JobID:       viper.GetString("negotiate.job"),
		}
		if v := viper.GetFloat64("negotiate.budget"); v > 0 {
			req.EmployerBudget = &v
		}
		if v := viper.GetFloat64("negotiate.target"); v > 0 {
			req.CandidateTargetSalary = &v
		}

		if viper.GetBool("negotiate.demo") {
			if req.CandidateID, req.JobID, err = seedDemo(cmd.Context(), a); err != nil {
				return fmt.Errorf("seeding demo data: %w", err)
			}
		}
		if req.CandidateID == "" || req.JobID == "" {
			return errors.New("--candidate and --job are required unless --demo is set")
		}

		result, err := a.NegotiationUC.Negotiate(cmd.Context(), req)
		if result != nil {
			if perr := printJSON(cmd, result); perr != nil {
				return perr
			}
		}
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && result != nil {
			return fmt.Errorf("negotiation %s: %s", result.SessionStatus, appErr.Message)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(negotiateCmd)

	negotiateCmd.Flags().String("session", "", "session id (generated when empty)")
	negotiateCmd.Flags().String("candidate", "", "applicant profile id")
	negotiateCmd.Flags().String("job", "", "job id")
	negotiateCmd.Flags().Float64("budget", 0, "employer budget (default: the job's budget_max)")
	negotiateCmd.Flags().Float64("target", 0, "candidate target salary (default: the profile's salary expectation)")
	negotiateCmd.Flags().Bool("demo", false, "create a sample applicant and job first")

	for _, key := range []string{"session", "candidate", "job", "budget", "target", "demo"} {
		_ = viper.BindPFlag("negotiate."+key, negotiateCmd.Flags().Lookup(key))
	}
}

func seedDemo(ctx context.Context, a *bootstrap.App) (candidateID, jobID string, err error) {
	target, budgetMin, budgetMax := 5200.0, 4000.0, 5500.0

	applicant, err := a.ProfileUC.SaveProfile(ctx, &domain.Profile{
		ID:                uuid.NewString(),
		Role:              domain.RoleApplicant,
		FullName:          "Demo Applicant",
		ResumeText:        "Backend engineer, six years of Go and PostgreSQL, built payment services on Kubernetes.",
		Skills:            []string{"Go", "PostgreSQL", "Kubernetes"},
		SalaryExpectation: &target,
	})
	if err != nil {
		return "", "", err
	}
	employer, err := a.ProfileUC.SaveProfile(ctx, &domain.Profile{
		ID:       uuid.NewString(),
		Role:     domain.RoleEmployer,
		FullName: "Demo Employer",
	})
	if err != nil {
		return "", "", err
	}
	job, err := a.JobUC.CreateJob(ctx, employer.ID, &domain.Job{
		Title:        "Senior Go Engineer",
		Description:  "Design and run high-throughput Go services backed by PostgreSQL.",
		Requirements: []string{"Go", "PostgreSQL", "gRPC"},
		BudgetMin:    &budgetMin,
		BudgetMax:    &budgetMax,
	})
	if err != nil {
		return "", "", err
	}
	return applicant.ID, job.ID, nil
}
