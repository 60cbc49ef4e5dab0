package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/recipebox/internal"
	pkgconfig "github.com/starford/recipebox/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadWithDefaults(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

func main() {
	userFlag := &cli.StringFlag{
		Name:     "user",
		Aliases:  []string{"u"},
		Usage:    "User id",
		Required: true,
		Sources:  cli.EnvVars("RECIPEBOX_USER"),
	}

	cmd := &cli.Command{
		Name:   "recipebox",
		Usage:  "Recipe discovery with saved recipes, ratings and a virtual fridge",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API with change events",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: serveMCP,
			},
			{
				Name:      "view",
				Usage:     "Show a recipe by key",
				ArgsUsage: "<key>",
				Action:    viewRecipe,
			},
			{
				Name:      "import",
				Usage:     "Create a custom recipe from a Markdown file and save it",
				ArgsUsage: "<file.md>",
				Flags:     []cli.Flag{userFlag},
				Action:    importRecipe,
			},
			{
				Name:  "saved",
				Usage: "List saved recipes",
				Flags: []cli.Flag{
					userFlag,
					&cli.BoolFlag{Name: "favourites", Aliases: []string{"f"}, Usage: "Only favourites"},
				},
				Action: listSaved,
			},
			{
				Name:   "fridge",
				Usage:  "List fridge items",
				Flags:  []cli.Flag{userFlag},
				Action: listFridge,
				Commands: []*cli.Command{
					{
						Name:      "add",
						Usage:     "Add an item",
						ArgsUsage: "<item>",
						Flags:     []cli.Flag{userFlag},
						Action:    addFridgeItem,
					},
					{
						Name:      "remove",
						Usage:     "Remove an item",
						ArgsUsage: "<item>",
						Flags:     []cli.Flag{userFlag},
						Action:    removeFridgeItem,
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
