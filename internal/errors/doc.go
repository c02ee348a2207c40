// Package errors provides coded, actionable errors for the tide command and
// its configuration loader.
//
// Every registered code maps to a category, a short message and a longer
// explanation:
//
//	E001-E019  runtime: reactive engine and mounting
//	E060-E063  protocol: the live session wire format
//	E120-E129  config: tide.json / tide.yaml
//	E140-E149  cli: command line usage
//	E180-E189  storage: snapshot backends
//
// The protocol codes match the codes the server sends in error frames.
//
// # Usage
//
//	err := errors.New("E121").
//	    WithLocation("tide.yaml", 4, 3).
//	    WithSuggestion(`durations look like "30s" or "1m"`)
//
//	errors.PrintError(err)
//	// ERROR E121: Invalid configuration value
//	//
//	//   tide.yaml:4:3
//	//   ...
package errors
