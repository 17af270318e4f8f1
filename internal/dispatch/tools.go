package dispatch

// ToolSchema describes one entry of the static tool catalog returned
// by tools/list. The catalog is never mutated at runtime.
type ToolSchema struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func objectSchema(props map[string]interface{}, required ...string) map[string]interface{} {
	if required == nil {
		required = []string{}
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{"type": typ, "description": description}
}

var toolCatalog = []ToolSchema{
	{
		Name:        "readFile",
		Description: "Read a file's contents with an optional character encoding ('utf-8' default, 'auto' detects)",
		InputSchema: objectSchema(map[string]interface{}{
			"path":     prop("string", "File path"),
			"encoding": prop("string", "Character encoding, or 'auto'"),
		}, "path"),
	},
	{
		Name:        "writeFile",
		Description: "Write content to a file, overwriting it; optionally keep a .backup copy of an existing target",
		InputSchema: objectSchema(map[string]interface{}{
			"path":    prop("string", "File path"),
			"content": prop("string", "Content to write"),
			"backup":  prop("boolean", "Copy an existing target to path+'.backup' first"),
		}, "path", "content"),
	},
	{
		Name:        "listDirectory",
		Description: "List a directory, flat or recursive, with an optional filename pattern filter",
		InputSchema: objectSchema(map[string]interface{}{
			"path":      prop("string", "Directory path"),
			"recursive": prop("boolean", "Walk the full subtree"),
			"pattern":   prop("string", "Filename glob pattern (e.g. '*.txt')"),
		}, "path"),
	},
	{
		Name:        "searchFiles",
		Description: "Search file contents line by line under a directory; returns per-file matches with 1-based line numbers",
		InputSchema: objectSchema(map[string]interface{}{
			"path":    prop("string", "Root directory"),
			"query":   prop("string", "Text to search for"),
			"pattern": prop("string", "Filename glob pattern (default '*.go')"),
		}, "path", "query"),
	},
	{
		Name:        "normalizePath",
		Description: "Convert a path into the canonical forward-slash notation used by the server",
		InputSchema: objectSchema(map[string]interface{}{
			"path": prop("string", "Path to normalize"),
		}, "path"),
	},
	{
		Name:        "copyFile",
		Description: "Copy a file; both endpoints must be inside the allowed directories",
		InputSchema: objectSchema(map[string]interface{}{
			"source":      prop("string", "Source file path"),
			"destination": prop("string", "Destination path"),
			"overwrite":   prop("boolean", "Replace an existing destination"),
		}, "source", "destination"),
	},
	{
		Name:        "moveFile",
		Description: "Move or rename a file or directory (rename semantics)",
		InputSchema: objectSchema(map[string]interface{}{
			"source":      prop("string", "Source path"),
			"destination": prop("string", "Destination path"),
			"overwrite":   prop("boolean", "Replace an existing destination"),
		}, "source", "destination"),
	},
	{
		Name:        "deleteFile",
		Description: "Delete a file or directory; recursive delete removes children before parents",
		InputSchema: objectSchema(map[string]interface{}{
			"path":      prop("string", "Path to delete"),
			"recursive": prop("boolean", "Delete directory contents recursively"),
		}, "path"),
	},
	{
		Name:        "createDirectory",
		Description: "Create a directory and any missing parents",
		InputSchema: objectSchema(map[string]interface{}{
			"path": prop("string", "Directory path"),
		}, "path"),
	},
	{
		Name:        "getFileInfo",
		Description: "Return size, timestamps, mode and MIME type for a file or directory",
		InputSchema: objectSchema(map[string]interface{}{
			"path": prop("string", "Path to inspect"),
		}, "path"),
	},
	{
		Name:        "executeScript",
		Description: "Run a script in the sandbox and return its structured result",
		InputSchema: objectSchema(map[string]interface{}{
			"script":     prop("string", "Script source"),
			"workingDir": prop("string", "Working directory exposed to the script"),
		}, "script"),
	},
	{
		Name:        "getAllowedDirectories",
		Description: "Return the configured allow-list of directory roots",
		InputSchema: objectSchema(map[string]interface{}{}),
	},
	{
		Name:        "isSymlinksAllowed",
		Description: "Report whether operating on symbolic links is permitted",
		InputSchema: objectSchema(map[string]interface{}{}),
	},
	{
		Name:        "watchDirectory",
		Description: "Register a best-effort watch on a directory for CREATE/MODIFY/DELETE events",
		InputSchema: objectSchema(map[string]interface{}{
			"path":   prop("string", "Directory to watch"),
			"events": map[string]interface{}{"type": "array", "items": prop("string", "CREATE, MODIFY or DELETE"), "description": "Event kinds of interest (default all)"},
		}, "path"),
	},
	{
		Name:        "pollDirectoryWatch",
		Description: "Drain buffered events for a watch registration; never blocks, an empty set is valid",
		InputSchema: objectSchema(map[string]interface{}{
			"watchId": prop("string", "Registration id returned by watchDirectory"),
		}, "watchId"),
	},
}

// Tools returns the static catalog.
func Tools() []ToolSchema {
	return toolCatalog
}
