package app

import (
	"fmt"
	"io"
	"os"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/autopeer-io/efls/internal/bridge/core"
	"github.com/autopeer-io/efls/internal/bridge/exchange"
	"github.com/autopeer-io/efls/internal/bridge/splice"
)

type spliceOptions struct {
	mission string
	plan    string
	frame   uint8
}

// newSpliceCommand runs the splice engine offline against a saved mission and
// an inbound plan file.
func newSpliceCommand() *cobra.Command {
	o := &spliceOptions{frame: core.FrameGlobalRelativeAlt}
	cmd := &cobra.Command{
		Use:   "splice",
		Short: "Splice a landing plan into a mission file and print the result",
		Long: `Loads a mission (JSON or YAML list of mission items) and a landing plan in
the inbound protobuf format, replaces everything from the last DO_LAND_START
with the plan and prints the mission that would be uploaded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplice(cmd.OutOrStdout(), o)
		},
	}

	cmd.Flags().StringVar(&o.mission, "mission", o.mission, "Mission file, JSON or YAML.")
	cmd.Flags().StringVar(&o.plan, "plan", o.plan, "Landing plan file in the inbound protobuf format.")
	cmd.Flags().Uint8Var(&o.frame, "frame", o.frame, "MAV_FRAME of the generated landing items.")
	_ = cmd.MarkFlagRequired("mission")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}

func runSplice(w io.Writer, o *spliceOptions) error {
	mission, err := loadMission(o.mission)
	if err != nil {
		return err
	}
	plan, err := loadPlan(o.plan)
	if err != nil {
		return err
	}

	res, err := splice.NewEngine(splice.WithFrame(o.frame)).Splice(mission, plan)
	if err != nil {
		return fmt.Errorf("splice failed: %w", err)
	}

	printMission(w, res.Apply(mission), res.Index)
	return nil
}

func loadMission(path string) (core.Mission, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mission: %w", err)
	}

	var mission core.Mission
	if err := yaml.Unmarshal(b, &mission); err != nil {
		return nil, fmt.Errorf("failed to decode mission %s: %w", path, err)
	}
	if err := mission.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mission %s: %w", path, err)
	}
	return mission, nil
}

func loadPlan(path string) (*core.LandingPlan, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}
	plan, err := exchange.UnmarshalPlan(b)
	if err != nil {
		return nil, fmt.Errorf("failed to decode plan %s: %w", path, err)
	}
	return plan, nil
}

func printMission(w io.Writer, mission core.Mission, index uint16) {
	table := uitable.New()
	table.AddRow("SEQ", "COMMAND", "FRAME", "LAT", "LON", "ALT", "")
	for _, item := range mission {
		marker := ""
		if item.Seq == index {
			marker = "<- jump"
		}
		table.AddRow(item.Seq, item.Command, item.Frame,
			fmt.Sprintf("%.7f", item.Lat), fmt.Sprintf("%.7f", item.Lon), fmt.Sprintf("%.1f", item.Alt), marker)
	}
	fmt.Fprintln(w, table)
}
