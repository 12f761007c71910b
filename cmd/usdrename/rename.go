package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mhamid3d/maya-usd/internal/cli"
	"github.com/mhamid3d/maya-usd/internal/config"
	"github.com/mhamid3d/maya-usd/internal/presentation/tui"
	"github.com/mhamid3d/maya-usd/pkg/domain"
	"github.com/spf13/cobra"
)

var renameCmd = &cobra.Command{
	Use:   "rename <path> <new-name>",
	Short: "Rename a prim and save the edited layer",
	Long: `Loads the configured layer stack, renames the prim at <path> to <new-name>
inside the layer that defines it, and writes the layers back to the store.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		palette := tui.NewPalette(cfg.UI.Accent)
		if err := runRename(cmd.Context(), cfg, args[0], args[1], dryRun, cmd.OutOrStdout(), palette); err != nil {
			fmt.Println(palette.Failure(err.Error()))
			os.Exit(1)
		}
	},
}

func runRename(ctx context.Context, cfg *config.Config, rawPath, newName string, dryRun bool, out io.Writer, palette tui.Palette) error {
	path, err := domain.ParsePath(rawPath)
	if err != nil {
		return err
	}

	b, err := cli.NewBackend(cfg.Store)
	if err != nil {
		return err
	}
	defer b.Close()

	logger := cli.NewLogger(cfg.Log, os.Stderr)
	ed, err := cli.OpenEditor(ctx, cfg, b.Store, cli.EditorOptions(cfg, logger)...)
	if err != nil {
		return err
	}
	defer ed.Close()

	if dryRun {
		layer, err := ed.CheckRename(path)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, palette.Success(fmt.Sprintf("%s can be renamed in %s", palette.Accent(string(path)), layer)))
		return nil
	}

	item, err := ed.RenamePath(ctx, path, newName)
	if err != nil {
		var renameErr *domain.RenameError
		if errors.As(err, &renameErr) {
			return renameErr
		}
		return fmt.Errorf("rename failed: %w", err)
	}
	if err := ed.Save(ctx, b.Store); err != nil {
		return err
	}

	fmt.Fprintln(out, palette.Success(fmt.Sprintf("%s -> %s", path, palette.Accent(string(item.Path)))))
	return nil
}

func init() {
	rootCmd.AddCommand(renameCmd)
	renameCmd.Flags().Bool("dry-run", false, "Only check that the rename would be accepted")
}
