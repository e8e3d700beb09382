package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/asset-portal/internal"
	"github.com/frahmantamala/asset-portal/internal/approval"
	approvalmodel "github.com/frahmantamala/asset-portal/internal/core/datamodel/approval"
)

var (
	submitTitle    string
	submitRequired int
	submitDue      string
)

var approvalsCmd = &cobra.Command{
	Use:   "approvals",
	Short: "Investment items and equipment requests awaiting decisions",
}

var approvalsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List investment items and equipment requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		deps, err := initializeDependencies(ctx)
		if err != nil {
			return err
		}
		defer deps.Close()

		if _, err := deps.restoreSession(ctx); err != nil {
			return err
		}
		items, err := deps.Approvals.InvestmentItems(ctx)
		if err != nil {
			return err
		}
		requests, err := deps.Approvals.Requests(ctx)
		if err != nil {
			return err
		}

		tbl := subjectTable()
		addSubjects(tbl, items)
		addSubjects(tbl, requests)
		return render(cmd.OutOrStdout(), map[string][]approvalmodel.Subject{
			"investmentItems": items,
			"requests":        requests,
		}, tbl)
	},
}

var approvalsDecideCmd = &cobra.Command{
	Use:   "decide <investment|request> <id> <approve|reject>",
	Short: "Record a decision on an investment item or equipment request",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		decision, err := parseDecision(args[2])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		deps, err := initializeDependencies(ctx)
		if err != nil {
			return err
		}
		defer deps.Close()

		st, err := deps.restoreSession(ctx)
		if err != nil {
			return err
		}
		subject, err := deps.Approvals.Find(ctx, kind, id)
		if err != nil {
			return err
		}
		projected, err := deps.Approvals.Decide(ctx, st.Identity, *subject, decision)
		if err != nil {
			return err
		}

		tbl := subjectTable()
		addSubjects(tbl, []approvalmodel.Subject{*projected})
		return render(cmd.OutOrStdout(), projected, tbl)
	},
}

var approvalsSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Reject pending investment items whose due date has passed",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		deps, err := initializeDependencies(ctx)
		if err != nil {
			return err
		}
		defer deps.Close()

		if _, err := deps.restoreSession(ctx); err != nil {
			return err
		}
		_, report, err := deps.Approvals.LoadAndSweep(ctx)
		if err != nil {
			return err
		}

		tbl := &table{header: []string{"SUBJECT", "RESULT"}}
		for _, id := range report.Rejected {
			tbl.add(strconv.FormatInt(id, 10), "rejected")
		}
		for _, f := range report.Failures {
			tbl.add(strconv.FormatInt(f.SubjectID, 10), "failed: "+f.Message)
		}
		if err := render(cmd.OutOrStdout(), report, tbl); err != nil {
			return err
		}
		if report.Failed() {
			return fmt.Errorf("%d of %d overdue items could not be rejected", len(report.Failures), len(report.Failures)+len(report.Rejected))
		}
		return nil
	},
}

var approvalsSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a new investment item",
	RunE: func(cmd *cobra.Command, args []string) error {
		dto := approval.SubmitDTO{Title: submitTitle, RequiredApprovals: submitRequired}
		if submitDue != "" {
			due, err := time.Parse(time.DateOnly, submitDue)
			if err != nil {
				return fmt.Errorf("invalid --due %q, want YYYY-MM-DD: %w", submitDue, err)
			}
			// the whole due day counts
			end := due.Add(24*time.Hour - time.Second)
			dto.DueDate = &end
		}

		ctx := cmd.Context()
		deps, err := initializeDependencies(ctx)
		if err != nil {
			return err
		}
		defer deps.Close()

		st, err := deps.restoreSession(ctx)
		if err != nil {
			return err
		}
		subject, err := deps.Approvals.Submit(ctx, st.Identity, dto)
		if err != nil {
			return err
		}

		tbl := subjectTable()
		addSubjects(tbl, []approvalmodel.Subject{*subject})
		return render(cmd.OutOrStdout(), subject, tbl)
	},
}

func subjectTable() *table {
	return &table{header: []string{"ID", "KIND", "TITLE", "STATUS", "APPROVALS", "DUE"}}
}

func addSubjects(tbl *table, subjects []approvalmodel.Subject) {
	for _, s := range subjects {
		due := "-"
		if s.DueDate != nil {
			due = s.DueDate.Format(time.DateOnly)
		}
		tbl.add(
			strconv.FormatInt(s.ID, 10),
			string(s.Kind),
			s.Title,
			string(s.Status),
			fmt.Sprintf("%d/%d", s.CurrentApprovals, s.RequiredApprovals),
			due,
		)
	}
}

func parseDecision(arg string) (approvalmodel.Decision, error) {
	switch strings.ToLower(arg) {
	case "approve", "approved":
		return approvalmodel.DecisionApprove, nil
	case "reject", "rejected":
		return approvalmodel.DecisionReject, nil
	}
	return "", internal.ErrInvalidStatus
}

func parseKind(arg string) (approvalmodel.Kind, error) {
	kind := approvalmodel.Kind(strings.ToLower(arg))
	if !kind.Valid() {
		return "", internal.ErrInvalidKind
	}
	return kind, nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func init() {
	approvalsSubmitCmd.Flags().StringVar(&submitTitle, "title", "", "item title")
	approvalsSubmitCmd.Flags().IntVar(&submitRequired, "required", 1, "number of approvals required")
	approvalsSubmitCmd.Flags().StringVar(&submitDue, "due", "", "due date, YYYY-MM-DD")

	approvalsCmd.AddCommand(approvalsListCmd, approvalsDecideCmd, approvalsSweepCmd, approvalsSubmitCmd)
	rootCmd.AddCommand(approvalsCmd)
}
