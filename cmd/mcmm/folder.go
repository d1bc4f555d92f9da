package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/DonovanMods/mc-mod-manager/internal/core"
	"github.com/DonovanMods/mc-mod-manager/internal/domain"
	"github.com/DonovanMods/mc-mod-manager/internal/storage/config"

	"github.com/spf13/cobra"
)

var (
	folderGameVersion string
	folderLoader      string
	folderSetDefault  bool
)

type folderJSON struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	GameVersion string `json:"game_version,omitempty"`
	Loader      string `json:"loader,omitempty"`
	Default     bool   `json:"default"`
}

var folderCmd = &cobra.Command{
	Use:   "folder",
	Short: "Manage mod folders",
	Long: `Manage the mod folders mcmm operates on.

Each folder has a name used with --folder. The folder's game version and
loader are used for mods whose metadata does not declare them.`,
}

var folderAddCmd = &cobra.Command{
	Use:   "add <name> <path>",
	Short: "Add or replace a mod folder",
	Long: `Add a mod folder, or replace the one with the same name.

Examples:
  mcmm folder add survival ~/.minecraft/mods --game-version 1.20.1 --loader fabric
  mcmm folder add modpack /srv/minecraft/mods --default`,
	Args: cobra.ExactArgs(2),
	RunE: runFolderAdd,
}

var folderListCmd = &cobra.Command{
	Use:   "list",
	Short: "List mod folders",
	Args:  cobra.NoArgs,
	RunE:  runFolderList,
}

var folderRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Forget a mod folder (files are not touched)",
	Args:  cobra.ExactArgs(1),
	RunE:  runFolderRemove,
}

var folderDefaultCmd = &cobra.Command{
	Use:   "default <name>",
	Short: "Set the folder used when --folder is not given",
	Args:  cobra.ExactArgs(1),
	RunE:  runFolderDefault,
}

func init() {
	folderAddCmd.Flags().StringVar(&folderGameVersion, "game-version", "", "Minecraft version of the folder (e.g. 1.20.1)")
	folderAddCmd.Flags().StringVar(&folderLoader, "loader", "", "mod loader of the folder (fabric, forge, neoforge, quilt)")
	folderAddCmd.Flags().BoolVar(&folderSetDefault, "default", false, "make this the default folder")

	folderCmd.AddCommand(folderAddCmd)
	folderCmd.AddCommand(folderListCmd)
	folderCmd.AddCommand(folderRemoveCmd)
	folderCmd.AddCommand(folderDefaultCmd)
	rootCmd.AddCommand(folderCmd)
}

func runFolderAdd(cmd *cobra.Command, args []string) error {
	path, err := config.ParseFolderPath(args[1])
	if err != nil {
		return err
	}
	folder := domain.Folder{
		Name:        args[0],
		Path:        path,
		GameVersion: folderGameVersion,
		Loader:      folderLoader,
	}

	return withService(func(svc *core.Service) error {
		cfg := svc.Config()
		cfg.SetFolder(folder)
		if folderSetDefault || len(cfg.Folders) == 1 {
			cfg.DefaultFolder = folder.Name
		}
		if err := svc.SaveConfig(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Printf("Added folder %s (%s)\n", folder.Name, folder.Path)
		return nil
	})
}

func runFolderList(cmd *cobra.Command, args []string) error {
	return withService(func(svc *core.Service) error {
		cfg := svc.Config()
		folders := cfg.ListFolders()

		if jsonOutput {
			out := make([]folderJSON, 0, len(folders))
			for _, f := range folders {
				out = append(out, folderJSON{
					Name:        f.Name,
					Path:        f.Path,
					GameVersion: f.GameVersion,
					Loader:      f.Loader,
					Default:     f.Name == cfg.DefaultFolder,
				})
			}
			return writeJSON(os.Stdout, out)
		}

		if len(folders) == 0 {
			fmt.Println("No folders configured. Add one with:\n  mcmm folder add <name> <path>")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tPATH\tGAME VERSION\tLOADER")
		fmt.Fprintln(w, "----\t----\t------------\t------")
		for _, f := range folders {
			name := f.Name
			if f.Name == cfg.DefaultFolder {
				name += " *"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, f.Path, orDash(f.GameVersion), orDash(f.Loader))
		}
		w.Flush()
		return nil
	})
}

func runFolderRemove(cmd *cobra.Command, args []string) error {
	return withService(func(svc *core.Service) error {
		if err := svc.Config().RemoveFolder(args[0]); err != nil {
			return err
		}
		if err := svc.SaveConfig(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Printf("Removed folder %s\n", args[0])
		return nil
	})
}

func runFolderDefault(cmd *cobra.Command, args []string) error {
	return withService(func(svc *core.Service) error {
		folder, err := svc.Folder(args[0])
		if err != nil {
			return err
		}
		svc.Config().DefaultFolder = folder.Name
		if err := svc.SaveConfig(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Printf("Default folder: %s\n", folder.Name)
		return nil
	})
}
