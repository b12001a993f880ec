package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/kqlcatalog/internal/catalog"
	"github.com/ziadkadry99/kqlcatalog/internal/content"
	"github.com/ziadkadry99/kqlcatalog/internal/table"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the detection rules in the catalog",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List detection rules",
	Long:  `Lists the catalog's detection rules, optionally narrowed by platform, severity and a search term.`,
	RunE:  runRulesList,
}

var rulesShowCmd = &cobra.Command{
	Use:   "show [resource-id]",
	Short: "Print a rule's KQL query",
	Long:  `Fetches the KQL query of the rule with the given query or sample-log resource id and prints it.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesShow,
}

func init() {
	rulesListCmd.Flags().String("platform", "", "only list rules of this platform key")
	rulesListCmd.Flags().StringSlice("severity", nil, "only list rules with these severities")
	rulesListCmd.Flags().String("search", "", "case-insensitive search term")
	rulesShowCmd.Flags().String("platform", "", "platform key, when the id is ambiguous")
	rulesShowCmd.Flags().Bool("copy", false, "copy the query to the clipboard")
	rulesCmd.AddCommand(rulesListCmd, rulesShowCmd)
	rootCmd.AddCommand(rulesCmd)
}

func runRulesList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	platformKey, _ := cmd.Flags().GetString("platform")
	severities, _ := cmd.Flags().GetStringSlice("severity")
	term, _ := cmd.Flags().GetString("search")

	var keep []catalog.Severity
	for _, s := range severities {
		sev := catalog.Severity(strings.ToLower(strings.TrimSpace(s)))
		if !sev.Valid() {
			return fmt.Errorf("invalid severity %q: must be one of low, medium, high, critical", s)
		}
		keep = append(keep, sev)
	}

	if platformKey != "" {
		if _, ok := cat.Platform(platformKey); !ok {
			return fmt.Errorf("unknown platform %q", platformKey)
		}
	}

	total := 0
	for i := range cat.Platforms {
		p := &cat.Platforms[i]
		if platformKey != "" && p.Key != platformKey {
			continue
		}
		rules := table.Search(p.Rules, term)
		if len(keep) > 0 {
			rules = table.Filter(rules, table.BySeverity(keep...))
		}
		if len(rules) == 0 {
			continue
		}
		fmt.Printf("%s (%s)\n", p.Name, table.ResultsCount(len(rules)))
		for _, r := range rules {
			fmt.Printf("  [%-8s] %s\n", r.Severity, r.Name)
			if r.QueryResourceID != "" {
				fmt.Printf("             query: %s\n", r.QueryResourceID)
			}
		}
		total += len(rules)
	}
	if total == 0 {
		fmt.Println("No matching detection rules.")
	}
	return nil
}

func runRulesShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	platformKey, _ := cmd.Flags().GetString("platform")
	p, rule, err := findRule(cat, platformKey, args[0])
	if err != nil {
		return err
	}
	if rule.QueryResourceID == "" {
		return fmt.Errorf("rule %q has no query", rule.Name)
	}

	file := rule.QueryFileName
	if file == "" {
		file = rule.QueryResourceID
	}
	query, err := newFetcher(cfg, logger).Fetch(context.Background(), content.KindQuery, p.Source(), file)
	if err != nil {
		return err
	}

	fmt.Printf("// %s (%s, %s)\n", rule.Name, p.Name, rule.Severity)
	fmt.Println(strings.TrimRight(query, "\n"))

	if cp, _ := cmd.Flags().GetBool("copy"); cp {
		if err := clipboard.WriteAll(query); err != nil {
			return fmt.Errorf("copying to clipboard: %w", err)
		}
		fmt.Println("// copied to clipboard")
	}
	return nil
}

// findRule resolves a resource id to its rule, searching every platform
// unless platformKey is set.
func findRule(cat *catalog.Catalog, platformKey, id string) (*catalog.Platform, catalog.Rule, error) {
	if platformKey != "" {
		p, ok := cat.Platform(platformKey)
		if !ok {
			return nil, catalog.Rule{}, fmt.Errorf("unknown platform %q", platformKey)
		}
		r, ok := p.FindRule(id)
		if !ok {
			return nil, catalog.Rule{}, fmt.Errorf("no rule with resource id %q in %s", id, p.Name)
		}
		return p, r, nil
	}
	for i := range cat.Platforms {
		if r, ok := cat.Platforms[i].FindRule(id); ok {
			return &cat.Platforms[i], r, nil
		}
	}
	return nil, catalog.Rule{}, fmt.Errorf("no rule with resource id %q", id)
}
