/*
Package prompts loads the JSON message templates used to talk to the model
and renders them with a caller supplied context.

Each template is a file named <id>.json holding a name, a token budget and an
ordered list of role/content messages. Content may reference variables as
{{ name }}; rendering fails if a referenced variable is absent from the context.

Usage:

	registry, err := prompts.NewRegistry(prompts.Embedded(), logger)
	if err != nil {
		// a template file is missing or unreadable
	}

	data, err := registry.Render(prompts.TemplateDetermineType, map[string]string{
		"prompt":  "How many rows are there?",
		"choices": "TEXT, DATAFRAME",
		"example": "TEXT",
	})

The embedded catalog can be replaced by any fs.FS, such as os.DirFS, holding
files with the same names.
*/
package prompts
