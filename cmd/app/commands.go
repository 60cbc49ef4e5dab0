package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/starford/recipebox/internal"
	"github.com/starford/recipebox/internal/apperr"
	"github.com/starford/recipebox/internal/models"
	"github.com/starford/recipebox/internal/parser"
	"github.com/starford/recipebox/internal/recipeservice"
	"github.com/starford/recipebox/internal/resolver"
)

// withRuntime opens the stores for a one-shot command. Logs go to stderr so
// stdout only carries the command output.
func withRuntime(cmd *cli.Command, fn func(rt *internal.Runtime) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	rt, err := internal.Open(internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil {
			rt.Logger.Error("close stores", slog.String("error", cerr.Error()))
		}
	}()
	return fn(rt)
}

func userArg(cmd *cli.Command) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(cmd.String("user")), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("--user must be an integer")
	}
	return id, nil
}

func firstArg(cmd *cli.Command, what string) (string, error) {
	arg := strings.TrimSpace(cmd.Args().First())
	if arg == "" {
		return "", fmt.Errorf("missing %s", what)
	}
	return arg, nil
}

// userError returns the friendly message for recoverable failures.
func userError(err error) error {
	if recipeservice.IsRecoverable(err) {
		return errors.New(apperr.Message(err))
	}
	return err
}

func viewRecipe(ctx context.Context, cmd *cli.Command) error {
	key, err := firstArg(cmd, "recipe key")
	if err != nil {
		return err
	}
	return withRuntime(cmd, func(rt *internal.Runtime) error {
		recipe, err := rt.Service.ViewRecipe(ctx, key)
		if err != nil {
			return userError(err)
		}
		printRecipe(os.Stdout, recipe)
		return nil
	})
}

func printRecipe(w io.Writer, r models.Recipe) {
	fmt.Fprintf(w, "%s (%s)\n", r.Title, r.Key)
	if r.Description != "" {
		fmt.Fprintln(w, r.Description)
	}
	fmt.Fprintf(w, "Serves %d, ready in %d minutes\n", r.Servings, r.PrepTimeMinutes)
	if r.SourceName != "" || r.SourceURL != "" {
		fmt.Fprintf(w, "Source: %s %s\n", r.SourceName, r.SourceURL)
	}

	rows := make([][]string, 0, len(r.Ingredients))
	for _, in := range r.Ingredients {
		unit := " " + in.Unit
		rows = append(rows, []string{resolver.Quantity(in.Amount, &unit), in.Name})
	}
	fmt.Fprintln(w, renderTable([]string{"Amount", "Ingredient"}, rows, []columnAlignment{alignRight, alignLeft}))

	for _, step := range r.Instructions {
		fmt.Fprintf(w, "%d. %s\n", step.Number, step.Text)
	}

	if n := r.Nutrition; n != nil {
		fmt.Fprintln(w, renderTable(
			[]string{"Calories", "Protein", "Fat", "Carbohydrates"},
			[][]string{{n.Calories, n.Protein, n.Fat, n.Carbohydrates}},
			nil))
	}
}

func importRecipe(ctx context.Context, cmd *cli.Command) error {
	path, err := firstArg(cmd, "markdown file")
	if err != nil {
		return err
	}
	user, err := userArg(cmd)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	recipe, err := parser.ParseRecipe(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	return withRuntime(cmd, func(rt *internal.Runtime) error {
		importID := uuid.NewString()
		logger := rt.Logger.With(slog.String("import_id", importID), slog.String("file", path))
		logger.Info("importing recipe", slog.String("title", recipe.Title))

		created, err := rt.Service.CreateCustomRecipe(ctx, user, recipe)
		if err != nil {
			logger.Error("import failed", slog.String("error", err.Error()))
			return userError(err)
		}
		fmt.Fprintf(os.Stdout, "created %s %q\n", created.Key, created.Title)
		return nil
	})
}

func listSaved(ctx context.Context, cmd *cli.Command) error {
	user, err := userArg(cmd)
	if err != nil {
		return err
	}
	return withRuntime(cmd, func(rt *internal.Runtime) error {
		saved := rt.Service.SavedRecipes(ctx, user)
		if cmd.Bool("favourites") {
			saved = rt.Service.FavouriteRecipes(ctx, user)
		}
		if len(saved) == 0 {
			fmt.Fprintln(os.Stdout, "No saved recipes.")
			return nil
		}

		rows := make([][]string, 0, len(saved))
		for _, s := range saved {
			stars := "-"
			if rating, err := rt.Service.RatingFor(ctx, user, s.RecipeKey); err == nil {
				stars = strconv.FormatFloat(rating.Stars, 'f', 1, 64)
			}
			fav := ""
			if s.Favourite {
				fav = "yes"
			}
			rows = append(rows, []string{s.RecipeKey, s.SavedAt.Local().Format(time.DateTime), fav, stars})
		}
		fmt.Fprintln(os.Stdout, renderTable(
			[]string{"Key", "Saved", "Favourite", "Stars"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}))
		return nil
	})
}

func listFridge(ctx context.Context, cmd *cli.Command) error {
	user, err := userArg(cmd)
	if err != nil {
		return err
	}
	return withRuntime(cmd, func(rt *internal.Runtime) error {
		printFridge(rt.Service.FridgeItems(ctx, user))
		return nil
	})
}

func printFridge(items []string) {
	if len(items) == 0 {
		fmt.Fprintln(os.Stdout, "Fridge is empty.")
		return
	}
	rows := make([][]string, 0, len(items))
	for i, item := range items {
		rows = append(rows, []string{strconv.Itoa(i + 1), item})
	}
	fmt.Fprintln(os.Stdout, renderTable([]string{"#", "Item"}, rows, []columnAlignment{alignRight, alignLeft}))
}

func addFridgeItem(ctx context.Context, cmd *cli.Command) error {
	item, err := firstArg(cmd, "item")
	if err != nil {
		return err
	}
	user, err := userArg(cmd)
	if err != nil {
		return err
	}
	return withRuntime(cmd, func(rt *internal.Runtime) error {
		if _, err := rt.Service.AddFridgeItem(ctx, user, item); err != nil {
			return userError(err)
		}
		printFridge(rt.Service.FridgeItems(ctx, user))
		return nil
	})
}

func removeFridgeItem(ctx context.Context, cmd *cli.Command) error {
	item, err := firstArg(cmd, "item")
	if err != nil {
		return err
	}
	user, err := userArg(cmd)
	if err != nil {
		return err
	}
	return withRuntime(cmd, func(rt *internal.Runtime) error {
		if err := rt.Service.RemoveFridgeItem(ctx, user, item); err != nil {
			return userError(err)
		}
		printFridge(rt.Service.FridgeItems(ctx, user))
		return nil
	})
}
