package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ahoque32/mission-control-dashboard-sub001/internal/domain"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/escalation"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/hierarchy"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/routing"
)

// newCheckCmd creates the "missionctl check" command group. Checks run
// offline and never touch the store.
func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate hierarchy, routing and escalation rules offline",
	}

	cmd.AddCommand(
		newCheckPermissionCmd(),
		newCheckDelegateCmd(),
		newCheckRouteCmd(),
		newCheckEscalationCmd(),
	)
	return cmd
}

func newCheckPermissionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "permission <agent> <action>",
		Short: "Check whether an agent may perform an action",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			printDecision(cmd.OutOrStdout(), hierarchy.CheckPermission(args[0], args[1]))
			return nil
		},
	}
}

func newCheckDelegateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delegate <caller> <target>",
		Short: "Check whether caller may delegate to target",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			printDecision(cmd.OutOrStdout(), hierarchy.CanDelegate(args[0], args[1]))
			return nil
		},
	}
}

func newCheckRouteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route <task description>",
		Short: "Suggest a worker for a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task := strings.Join(args, " ")
			out := cmd.OutOrStdout()
			agent, ok := routing.SuggestTargetAgent(task)
			if !ok {
				fmt.Fprintln(out, "no match")
				return nil
			}
			scores := routing.Score(task)
			fmt.Fprintf(out, "%s", agent)
			for _, w := range routing.Workers() {
				fmt.Fprintf(out, " %s=%d", w.Agent, scores[w.Agent])
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}

func newCheckEscalationCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "escalation <message>",
		Short: "Classify a message against the escalation triggers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := domain.SessionMode(mode)
			if !m.Valid() {
				return fmt.Errorf("mode must be operator or advisor")
			}
			hit := escalation.CheckTriggers(strings.Join(args, " "), m)
			if hit == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no escalation")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "escalate %s (%s)\n", hit.Trigger, hit.Severity)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(domain.SessionModeOperator), "session mode: operator or advisor")
	return cmd
}

func printDecision(out io.Writer, d hierarchy.Decision) {
	verdict := "denied"
	if d.Allowed {
		verdict = "allowed"
	}
	fmt.Fprintf(out, "%s: %s\n", verdict, d.Reason)
}
