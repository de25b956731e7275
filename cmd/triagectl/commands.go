package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smartcity/governance/internal/domain"
	"github.com/smartcity/governance/internal/triage"
)

// rulesFlag is the persistent --rules flag name
const rulesFlag = "rules"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "triagectl",
		Short:         "Classify, score and route citizen service requests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String(rulesFlag, "", "YAML rule table (default: built-in rules)")

	root.AddCommand(newClassifyCmd(), newScoreCmd(), newRouteCmd(), newDistrictsCmd())
	return root
}

func newClassifyCmd() *cobra.Command {
	var district string

	cmd := &cobra.Command{
		Use:   "classify [description]",
		Short: "Triage a request description",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := loadRules(cmd)
			if err != nil {
				return err
			}
			classifier, err := triage.NewClassifier(rules)
			if err != nil {
				return err
			}

			description := ""
			if len(args) == 1 {
				description = args[0]
			}
			result, err := classifier.Classify(description, district)
			if err != nil {
				return err
			}
			return writeJSON(cmd, result)
		},
	}
	cmd.Flags().StringVar(&district, "district", "", "district the request comes from")
	_ = cmd.MarkFlagRequired("district")
	return cmd
}

func newScoreCmd() *cobra.Command {
	var (
		urgency  string
		feedback int
		days     int
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute a priority score",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, ok := domain.ParseUrgency(urgency)
			if !ok {
				return domain.NewValidationError("urgency", urgency, "must be one of low, medium, high, critical")
			}
			score, err := triage.Score(u, feedback, days)
			if err != nil {
				return err
			}
			return writeJSON(cmd, map[string]int{"priority_score": score})
		},
	}
	cmd.Flags().StringVar(&urgency, "urgency", "", "urgency level (low, medium, high, critical)")
	cmd.Flags().IntVar(&feedback, "feedback", domain.DefaultFeedbackScore, "citizen feedback score (1-5)")
	cmd.Flags().IntVar(&days, "days", 1, "estimated resolution days")
	_ = cmd.MarkFlagRequired("urgency")
	return cmd
}

func newRouteCmd() *cobra.Command {
	var (
		category  string
		suggested string
		load      string
	)

	cmd := &cobra.Command{
		Use:   "route",
		Short: "Pick a department given the current backlog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := loadRules(cmd)
			if err != nil {
				return err
			}
			c, ok := domain.ParseCategory(category)
			if !ok {
				return domain.NewValidationError("category", category, "not a known category")
			}
			parsed, err := parseLoad(load)
			if err != nil {
				return err
			}

			department := triage.NewRouter(rules.Departments).Route(c, suggested, parsed)
			return writeJSON(cmd, map[string]string{"department": department})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "service category")
	cmd.Flags().StringVar(&suggested, "suggested", "", "department suggested by triage")
	cmd.Flags().StringVar(&load, "load", "", `pending counts, e.g. "Health Services=3,General Hospital=1"`)
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("suggested")
	return cmd
}

func newDistrictsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "districts",
		Short: "List the districts requests may come from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := loadRules(cmd)
			if err != nil {
				return err
			}
			classifier, err := triage.NewClassifier(rules)
			if err != nil {
				return err
			}
			return writeJSON(cmd, classifier.Districts())
		},
	}
}

func loadRules(cmd *cobra.Command) (triage.RuleSet, error) {
	path, err := cmd.Flags().GetString(rulesFlag)
	if err != nil {
		return triage.RuleSet{}, err
	}
	if path == "" {
		return triage.DefaultRuleSet(), nil
	}
	return triage.LoadRuleSet(path)
}

// parseLoad reads "Dept A=3,Dept B=1" into a DepartmentLoad
func parseLoad(s string) (domain.DepartmentLoad, error) {
	load := domain.DepartmentLoad{}
	if strings.TrimSpace(s) == "" {
		return load, nil
	}
	for _, pair := range strings.Split(s, ",") {
		name, count, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, domain.NewValidationError("load", pair, "expected department=count")
		}
		n, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil || n < 0 {
			return nil, domain.NewValidationError("load", pair, "count must be a non-negative integer")
		}
		load[name] = n
	}
	return load, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("triagectl: failed to write output: %w", err)
	}
	return nil
}
