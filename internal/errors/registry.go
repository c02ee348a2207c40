package errors

import "sort"

// ErrorTemplate defines a registered error.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

var registry = map[string]ErrorTemplate{
	// Runtime

	"E001": {
		Category: CategoryRuntime,
		Message:  "Runtime closed",
		Detail:   "Work was posted to a runtime after Close. Sessions close their runtime when the connection ends.",
	},
	"E002": {
		Category: CategoryRuntime,
		Message:  "Task queue full",
		Detail:   "The runtime's task queue is at capacity. Raise runtime.queueSize or slow the producer.",
	},
	"E003": {
		Category: CategoryRuntime,
		Message:  "Scope cleanup registered outside a component",
		Detail:   "OnScopeCleanup needs an enclosing Component or Func. Use OnCleanup to attach to the root scope instead.",
	},
	"E004": {
		Category: CategoryRuntime,
		Message:  "Component panicked",
		Detail:   "A component function panicked while computing its contents. Its scope was disposed.",
	},
	"E005": {
		Category: CategoryRuntime,
		Message:  "Material disposed",
		Detail:   "The material was used after Dispose. Its cells no longer notify and its node is detached.",
	},
	"E006": {
		Category: CategoryRuntime,
		Message:  "Circular dependency detected",
		Detail:   "A flush did not settle within its round budget, or a derived value read itself. Check which cells write each other.",
	},
	"E010": {
		Category: CategoryRuntime,
		Message:  "Unsupported event handler type",
		Detail:   "Event handlers must be func(), func(dom.Event) or func(string).",
	},
	"E011": {
		Category: CategoryRuntime,
		Message:  "Invalid tree operation",
		Detail:   "A node cannot be inserted into itself or one of its descendants.",
	},
	"E012": {
		Category: CategoryRuntime,
		Message:  "Session limit reached",
		Detail:   "The server refused a connection because server.maxSessions sessions are already open.",
	},

	// Protocol

	"E060": {
		Category: CategoryProtocol,
		Message:  "Malformed client frame",
		Detail:   "The client sent a frame that is not valid JSON or lacks a type, target or event name.",
	},
	"E061": {
		Category: CategoryProtocol,
		Message:  "Event handler not found",
		Detail:   "No node with the target hid handles the event. The page is probably out of date.",
	},
	"E062": {
		Category: CategoryProtocol,
		Message:  "Event handler failed",
		Detail:   "The handler returned an error or panicked. The session stays open.",
	},
	"E063": {
		Category: CategoryProtocol,
		Message:  "Event queue full",
		Detail:   "The session is receiving events faster than it can process them.",
	},

	// Config

	"E120": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "Looked for tide.yaml, tide.yml and tide.json in the project directory.",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration field holds a value of the wrong shape or out of range.",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Configuration syntax error",
		Detail:   "The configuration file could not be parsed.",
	},
	"E123": {
		Category: CategoryConfig,
		Message:  "Unknown snapshot backend",
		Detail:   "snapshot.backend must be one of memory, file, redis or s3.",
	},

	// CLI

	"E140": {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "The HTTP server stopped with an error. The address may already be in use.",
	},
	"E141": {
		Category: CategoryCLI,
		Message:  "Render failed",
		Detail:   "The page could not be rendered or stored.",
	},
	"E142": {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
	},

	// Storage

	"E180": {
		Category: CategoryStorage,
		Message:  "Snapshot not found",
	},
	"E181": {
		Category: CategoryStorage,
		Message:  "Snapshot backend unavailable",
		Detail:   "The snapshot backend could not be reached. Check its address and credentials.",
	},
	"E182": {
		Category: CategoryStorage,
		Message:  "Invalid snapshot key",
		Detail:   "Keys are non-empty and may contain letters, digits, '-', '_', '.' and '/', without '..' segments.",
	},
}

// GetAllCodes returns every registered code in order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds or replaces a template.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
