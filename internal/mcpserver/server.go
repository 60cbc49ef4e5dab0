// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes recipebox tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/recipebox/internal/apperr"
	"github.com/starford/recipebox/internal/parser"
	"github.com/starford/recipebox/internal/recipeservice"
)

const formatURI = "recipebox://recipe-format"

// Server wraps the MCP server with recipebox tools.
type Server struct {
	mcp *server.MCPServer
	svc *recipeservice.Service
}

// New creates a new MCP server with all recipebox tools registered.
func New(svc *recipeservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Recipebox",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_recipe",
		mcp.WithDescription("Fetch a full recipe by its namespaced key. "+
			"Keys starting with 'a' are external recipes, keys starting with 'c' are user-created."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Recipe key, e.g. a716429 or c7")),
	), s.getRecipe)

	s.mcp.AddTool(mcp.NewTool("list_saved_recipes",
		mcp.WithDescription("List the recipes a user has saved, oldest first."),
		mcp.WithNumber("user_id", mcp.Required(), mcp.Description("User id")),
		mcp.WithBoolean("favourites_only", mcp.Description("Only return favourites")),
	), s.listSaved)

	s.mcp.AddTool(mcp.NewTool("save_recipe",
		mcp.WithDescription("Save a recipe for a user. Fails if it is already saved."),
		mcp.WithNumber("user_id", mcp.Required(), mcp.Description("User id")),
		mcp.WithString("key", mcp.Required(), mcp.Description("Recipe key")),
	), s.saveRecipe)

	s.mcp.AddTool(mcp.NewTool("rate_recipe",
		mcp.WithDescription("Rate a recipe from 0 to 5 in steps of 0.5. Rating again replaces the old value."),
		mcp.WithNumber("user_id", mcp.Required(), mcp.Description("User id")),
		mcp.WithString("key", mcp.Required(), mcp.Description("Recipe key")),
		mcp.WithNumber("stars", mcp.Required(), mcp.Description("Stars, e.g. 4.5")),
	), s.rateRecipe)

	s.mcp.AddTool(mcp.NewTool("list_fridge_items",
		mcp.WithDescription("List the ingredients a user has in the fridge."),
		mcp.WithNumber("user_id", mcp.Required(), mcp.Description("User id")),
	), s.listFridge)

	s.mcp.AddTool(mcp.NewTool("add_fridge_item",
		mcp.WithDescription("Add an ingredient to a user's fridge. Adding an item twice is a no-op."),
		mcp.WithNumber("user_id", mcp.Required(), mcp.Description("User id")),
		mcp.WithString("item", mcp.Required(), mcp.Description("Ingredient name")),
	), s.addFridgeItem)

	s.mcp.AddTool(mcp.NewTool("create_recipe",
		mcp.WithDescription("Create a custom recipe from Markdown and save it for the user. "+
			"Content MUST follow the recipe format contract. Read it first via "+
			"the get_recipe_contract tool or the "+formatURI+" resource."),
		mcp.WithNumber("user_id", mcp.Required(), mcp.Description("User id")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown recipe with YAML frontmatter")),
	), s.createRecipe)

	s.mcp.AddTool(mcp.NewTool("get_recipe_contract",
		mcp.WithDescription("Returns the Markdown recipe format contract. "+
			"Call this before creating recipes to ensure correct structure."),
	), s.getRecipeContract)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Recipe Format Contract",
			mcp.WithResourceDescription("Markdown format for user-created recipes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRecipeFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// toolError renders err for the model. User-facing failures use the
// friendly message; storage faults keep their detail.
func toolError(err error) *mcp.CallToolResult {
	if recipeservice.IsRecoverable(err) {
		return mcp.NewToolResultError(apperr.Message(err))
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func requireUser(req mcp.CallToolRequest) (int64, error) {
	v, err := req.RequireFloat("user_id")
	if err != nil {
		return 0, err
	}
	if v != float64(int64(v)) {
		return 0, fmt.Errorf("user_id must be an integer")
	}
	return int64(v), nil
}

func (s *Server) getRecipe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	recipe, err := s.svc.ViewRecipe(ctx, key)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(recipe), nil
}

func (s *Server) listSaved(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, err := requireUser(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if req.GetBool("favourites_only", false) {
		return jsonResult(s.svc.FavouriteRecipes(ctx, user)), nil
	}
	return jsonResult(s.svc.SavedRecipes(ctx, user)), nil
}

func (s *Server) saveRecipe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, err := requireUser(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	saved, err := s.svc.SaveRecipe(ctx, user, key)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved: %s", saved.RecipeKey)), nil
}

func (s *Server) rateRecipe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, err := requireUser(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	stars, err := req.RequireFloat("stars")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rating, err := s.svc.RateRecipe(ctx, user, key, stars)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(rating), nil
}

func (s *Server) listFridge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, err := requireUser(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items := s.svc.FridgeItems(ctx, user)
	if len(items) == 0 {
		return mcp.NewToolResultText("fridge is empty"), nil
	}
	return mcp.NewToolResultText(strings.Join(items, "\n")), nil
}

func (s *Server) addFridgeItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, err := requireUser(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	item, err := req.RequireString("item")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	added, err := s.svc.AddFridgeItem(ctx, user, item)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("in fridge: %s", added)), nil
}

func (s *Server) createRecipe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, err := requireUser(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	recipe, err := parser.ParseRecipe([]byte(content))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	created, err := s.svc.CreateCustomRecipe(ctx, user, recipe)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", created.Key)), nil
}

func (s *Server) getRecipeContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RecipeFormatContract), nil
}

func (s *Server) readRecipeFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     RecipeFormatContract,
		},
	}, nil
}
