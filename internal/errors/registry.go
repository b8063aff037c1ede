package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Configuration Errors (E100-E109)
	// ============================================

	"E100": {
		Category:   CategoryConfig,
		Message:    "Host is missing a capability required by the attribute strategy",
		Suggestion: "Implement the named capability interface on the host passed to reconcile.New",
	},
	"E101": {
		Category:   CategoryConfig,
		Message:    "Focus-sensitive strategy bound to an element that cannot hold focus for it",
		Suggestion: "Only pin boolean strategies on input/option and value strategies on input/textarea",
	},
	"E102": {
		Category:   CategoryConfig,
		Message:    "Unknown attribute strategy",
		Suggestion: "Use one of the reconcile.Kind constants",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
	},
	"E104": {
		Category:   CategoryConfig,
		Message:    "Configuration file could not be read",
		Suggestion: "Check that attrsync.json exists and is valid JSON",
	},

	// ============================================
	// Validation Errors (E110-E119)
	// ============================================

	"E110": {
		Category:   CategoryValidation,
		Message:    "Attribute value must be a string or nil",
		Suggestion: "Convert the value to a string before passing it, or use nil to remove the attribute",
	},
	"E111": {
		Category: CategoryValidation,
		Message:  "Attribute name must not be empty",
	},

	// ============================================
	// Protocol Errors (E120-E129)
	// ============================================

	"E120": {
		Category: CategoryProtocol,
		Message:  "Malformed frame",
	},
	"E121": {
		Category: CategoryProtocol,
		Message:  "Malformed desired-state message",
	},
	"E122": {
		Category: CategoryProtocol,
		Message:  "Unknown element",
	},

	// ============================================
	// Runtime Errors (E130-E139)
	// ============================================

	"E130": {
		Category: CategoryRuntime,
		Message:  "WebSocket connection failed",
	},
	"E131": {
		Category: CategoryRuntime,
		Message:  "Session closed",
	},

	// ============================================
	// CLI Errors (E140-E149)
	// ============================================

	"E140": {
		Category:   CategoryCLI,
		Message:    "Scenario file could not be read",
		Suggestion: "Check the path passed to the command",
	},
	"E141": {
		Category:   CategoryCLI,
		Message:    "Invalid scenario",
		Suggestion: "Each step needs an attrs map; see `attrsync replay --help`",
	},
}

// GetAllCodes returns all registered error codes in sorted order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
