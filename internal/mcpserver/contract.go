package mcpserver

// RecipeFormatContract describes the Markdown format accepted by the
// create_recipe tool and the import command.
const RecipeFormatContract = `# Recipebox Recipe Format Contract

A user-created recipe is a Markdown document with YAML frontmatter.

## Structure

` + "```" + `markdown
---
title: Human-readable title        # REQUIRED unless the body has a "# " heading
description: One or two sentences  # OPTIONAL
servings: 4                        # OPTIONAL - integer
prep_time: 30                      # OPTIONAL - minutes
source: Where it came from         # OPTIONAL
source_url: https://example.com    # OPTIONAL
image: https://example.com/a.jpg   # OPTIONAL
ingredients:                        # OPTIONAL - list
  - 2 cups flour                    # "<amount> <unit> <name>"
  - 1/2 tsp salt                    # fractions are allowed
  - name: butter                    # or a mapping
    amount: 100
    unit: g
nutrition:                          # OPTIONAL - rendered strings
  calories: "450"
  protein: 12g
---

# Title

1. First step.
2. Second step.
` + "```" + `

## Rules

1. **Title** comes from frontmatter; the first ` + "`" + `# ` + "`" + ` heading is used when it is missing.
2. **Steps** are the numbered list items of the body, in order. Other text is ignored.
3. **Ingredients** given as strings are split on whitespace: a leading number is the
   amount, the next word the unit and the rest the name. Without a leading number
   the whole string is the name.
4. **Every ingredient needs a name.**
5. **Encoding** is UTF-8.

The created recipe gets a key of the form ` + "`" + `c<N>` + "`" + ` and is saved for the user.
`
