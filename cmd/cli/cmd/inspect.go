package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/resopt/internal/dex"
	"github.com/resopt/internal/remap"
	"github.com/resopt/pkg/config"
	"github.com/resopt/pkg/writer"
)

var (
	// Inspect command flags
	inspectInput   string
	inspectOutput  string
	inspectHolders []string
	inspectRoles   map[string]string
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List the resource holder classes of a program dump",
	Long: `Inspect scans a program dump for resource holder classes and lists
each one with its role, its id groups and any structural problems,
without rewriting anything.

Useful for checking which classes a remap pass would touch and whether
app-specific holders need the --holder flag.`,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	binName := BinName()
	inspectCmd.Example = `  # List holder classes and their groups
  ` + binName + ` inspect -i ./dump.json

  # Include an app-specific holder and save the inventory as JSON
  ` + binName + ` inspect -i ./dump.json --holder "Lcom/app/Res;" -o inventory.json`

	inspectCmd.Flags().StringVarP(&inspectInput, "input", "i", "", "Input program dump (required)")
	inspectCmd.Flags().StringVarP(&inspectOutput, "output", "o", "", "Write the inventory as JSON to this file")
	inspectCmd.Flags().StringSliceVar(&inspectHolders, "holder", nil, "Customized holder class descriptor (repeatable)")
	inspectCmd.Flags().StringToStringVar(&inspectRoles, "role", nil, "Role override, descriptor=role (sequential, positional, skip)")
	inspectCmd.MarkFlagRequired("input")
}

func runInspect(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	if _, err := os.Stat(inspectInput); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inspectInput)
	}

	roleFilter, err := remap.FilterFromConfig(&config.ResourcesConfig{
		CustomizedHolders: inspectHolders,
		RoleOverrides:     inspectRoles,
	})
	if err != nil {
		return err
	}

	prog, err := dex.LoadProgram(inspectInput)
	if err != nil {
		return fmt.Errorf("failed to load program dump: %w", err)
	}

	pass := remap.NewPass(&remap.Config{Filter: roleFilter, Logger: log})
	inventories, err := pass.Inspect(context.Background(), prog)
	if err != nil {
		return err
	}

	if len(inventories) == 0 {
		log.Info("No resource holder classes found")
		return nil
	}

	log.Info("Found %d holder classes:", len(inventories))
	for _, inv := range inventories {
		elements := 0
		for _, g := range inv.Groups {
			elements += len(g)
		}
		line := fmt.Sprintf("  %-50s role=%-10s groups=%d elements=%d",
			inv.ClassName, inv.Role, len(inv.Groups), elements)
		if inv.Skipped > 0 {
			line += fmt.Sprintf(" skipped=%d", inv.Skipped)
		}
		if inv.Customized {
			line += " customized"
		}
		log.Info("%s", line)
		if inv.Error != "" {
			log.Warn("  %s: %s", inv.ClassName, inv.Error)
		}
	}

	if inspectOutput != "" {
		w := writer.NewPrettyJSONWriter[[]remap.ClassInventory]()
		if err := w.WriteToFile(inventories, inspectOutput); err != nil {
			return fmt.Errorf("failed to write inventory: %w", err)
		}
		log.Info("")
		log.Info("Inventory written to %s", inspectOutput)
	}

	return nil
}
