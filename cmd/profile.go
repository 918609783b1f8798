package cmd

import (
	"fmt"
	"math/rand"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/quickfinder/internal/browser/stealth"
)

// profileOutput is what `quickfinder profile` prints.
type profileOutput struct {
	Profile stealth.Profile        `json:"profile"`
	Flags   map[string]interface{} `json:"launchFlags"`
}

func newProfileCmd(a *app) *cobra.Command {
	var seed int64
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Sample and print a session fingerprint profile without launching a browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("seed") {
				seed = time.Now().UnixNano()
			}
			p, err := stealth.NewProfile(rand.New(rand.NewSource(seed)), a.cfg.Workflow.Profiles)
			if err != nil {
				return fmt.Errorf("failed to sample profile: %w", err)
			}
			out := profileOutput{
				Profile: p,
				Flags:   stealth.LaunchFlags(p, a.cfg.Browser.Headless, a.cfg.Browser.Args),
			}
			enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed for a reproducible profile")
	return cmd
}
