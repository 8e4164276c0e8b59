package portapack

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

func handleCleanupCommand(args []string, cfg *Config) error {
	cleanupCmd := flag.NewFlagSet("cleanup", flag.ExitOnError)
	cleanWorkspace := cleanupCmd.Bool("workspace", false, "Remove a leftover build workspace.")
	cleanDist := cleanupCmd.Bool("dist", false, "Remove built distribution output.")
	cleanAll := cleanupCmd.Bool("all", false, "workspace and distribution output.")

	if err := cleanupCmd.Parse(args); err != nil {
		return err // Should not happen with flag.ExitOnError
	}

	// If no flags are provided, show help and exit
	if !*cleanWorkspace && !*cleanDist && !*cleanAll {
		fmt.Println("Usage: portapack cleanup [flag]")
		fmt.Println("You must specify what to clean up. Use one of the following flags:")
		cleanupCmd.PrintDefaults()
		return nil
	}

	if *cleanAll {
		*cleanWorkspace = true
		*cleanDist = true
	}

	if *cleanWorkspace {
		wsDir := filepath.Join(projectRoot, workspaceDirName)
		if askForConfirmation(colWarn, "Permanently delete the build workspace at %s?", wsDir) {
			if err := os.RemoveAll(wsDir); err != nil {
				return fmt.Errorf("failed to remove workspace: %w", err)
			}
			_ = os.Remove(wsDir + ".lock")
			colArrow.Print("-> ")
			colSuccess.Println("Workspace removed successfully.")
		} else {
			colArrow.Print("-> ")
			colSuccess.Println("Cleanup of workspace canceled.")
		}
	}

	if *cleanDist {
		if askForConfirmation(colWarn, "Permanently delete all build output at %s?", distDir) {
			if err := os.RemoveAll(distDir); err != nil {
				return fmt.Errorf("failed to remove distribution output: %w", err)
			}
			colArrow.Print("-> ")
			colSuccess.Println("Distribution output removed successfully.")
		} else {
			colArrow.Print("-> ")
			colSuccess.Println("Cleanup of distribution output canceled.")
		}
	}

	return nil
}
