package lint

// Dialect identifies the output format a linter writes to stdout.
type Dialect string

// Supported linter output dialects.
const (
	// DialectESLint is the eslint --format json array of
	// {filePath, messages: [{line, column, message, ruleId}]}.
	DialectESLint Dialect = "eslint"

	// DialectStylelint is the stylelint --formatter json array of
	// {source, warnings: [{line, column, text, rule}]}.
	DialectStylelint Dialect = "stylelint"

	// DialectHTMLHint is the htmlhint --format json array of
	// {file, messages: [{line, col, message, rule: {id}}]}.
	DialectHTMLHint Dialect = "htmlhint"

	// DialectParsable is the line format "file:line:col: [level] message
	// (rule)" used by yamllint and friends.
	DialectParsable Dialect = "parsable"
)

// Category describes one lint category: which files it covers, which tool
// lints them, and how that tool's output is parsed.
type Category struct {
	// Name is the category identifier (script, markup, style, json, yaml).
	Name string

	// Extensions are the file extensions bucketed into this category,
	// without the leading dot.
	Extensions []string

	// Command is the default linter executable.
	Command string

	// Args are passed before the file list.
	Args []string

	// Dialect selects the output parser.
	Dialect Dialect
}

// Categories returns the fixed set of lint categories in execution order.
func Categories() []Category {
	return []Category{
		{
			Name:       "script",
			Extensions: []string{"js", "mjs", "cjs"},
			Command:    "eslint",
			Args:       []string{"--format", "json"},
			Dialect:    DialectESLint,
		},
		{
			Name:       "markup",
			Extensions: []string{"html", "htm"},
			Command:    "htmlhint",
			Args:       []string{"--format", "json"},
			Dialect:    DialectHTMLHint,
		},
		{
			Name:       "style",
			Extensions: []string{"css", "scss"},
			Command:    "stylelint",
			Args:       []string{"--formatter", "json"},
			Dialect:    DialectStylelint,
		},
		{
			Name:       "json",
			Extensions: []string{"json"},
			Command:    "jsonlint",
			Args:       []string{"--quiet", "--compact"},
			Dialect:    DialectParsable,
		},
		{
			Name:       "yaml",
			Extensions: []string{"yaml", "yml"},
			Command:    "yamllint",
			Args:       []string{"--format", "parsable"},
			Dialect:    DialectParsable,
		},
	}
}
