package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ericmann/firebreak/pkg/policy"
)

var lintFlags struct {
	file string
	dir  string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate policy files",
	Long: `Validate Firebreak policy files for syntax and semantic errors.

The lint command parses policy files and performs full validation:
  - YAML syntax validation
  - Required metadata (policy name, version)
  - Rule structure (id, decision, match_categories)
  - Category references against the declared category set
  - Reserved sentinel category and duplicate rule detection

Examples:
  # Lint single file
  firebreak lint --file policies/policy.yaml

  # Lint directory
  firebreak lint --dir policies/`,
	RunE: lintPolicies,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.file, "file", "f", "", "policy file to validate")
	lintCmd.Flags().StringVarP(&lintFlags.dir, "dir", "d", "", "directory of policy files")
}

func lintPolicies(cmd *cobra.Command, args []string) error {
	if lintFlags.file == "" && lintFlags.dir == "" {
		return fmt.Errorf("either --file or --dir must be specified")
	}

	var files []string
	if lintFlags.file != "" {
		files = append(files, lintFlags.file)
	}
	if lintFlags.dir != "" {
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(lintFlags.dir, pattern))
			if err != nil {
				return fmt.Errorf("failed to list policy files: %w", err)
			}
			files = append(files, matches...)
		}
	}

	if len(files) == 0 {
		return fmt.Errorf("no policy files found")
	}

	failed := 0
	for _, file := range files {
		pol, err := policy.Load(file)
		if err != nil {
			failed++
			var verr *policy.ValidationError
			if errors.As(err, &verr) {
				fmt.Printf("✗ %s: %s\n", file, verr.Error())
			} else {
				fmt.Printf("✗ %s: %v\n", file, err)
			}
			continue
		}
		fmt.Printf("✓ %s: policy %q version %s (%d rules, %d categories)\n",
			file, pol.Name, pol.Version, len(pol.Rules), len(pol.Categories))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d policy files failed validation", failed, len(files))
	}
	return nil
}
