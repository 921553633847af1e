// Package api serves the recipe index over HTTP.
//
// Routes:
//
//	POST /search        {query, healthy}             -> {results, query, healthy}
//	GET  /recipe/{id}                                -> {recipe}
//	POST /feedback      {recipe_id, query, helpful}  -> {status}
//	GET  /top-feedback  ?limit=N                     -> {recipes}
//	GET  /healthz                                    -> {status, recipes, dimensions, generation}
//
// Errors are returned as {"error": "..."}.
package api
