// Package gologger names and resolves the glog loggers used by the client's
// components.
package gologger

import (
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

// RootName is the logger name of the manager itself.
const RootName = "apiclient"

const (
	ComponentJobs     = "jobs"
	ComponentCommands = "commands"
)

// Name roots component under RootName, so "jobs" becomes "apiclient.jobs".
// Blank components and names already rooted pass through.
func Name(component string) string {
	component = strings.Trim(strings.TrimSpace(component), ".")
	switch {
	case component == "" || component == RootName:
		return RootName
	case strings.HasPrefix(component, RootName+"."):
		return component
	default:
		return RootName + "." + component
	}
}

// ForComponent resolves the component logger with precedence provider >
// logger > nop. Loggers that accept fields tag every record with the
// component.
func ForComponent(component string, provider glog.LoggerProvider, logger glog.Logger) glog.Logger {
	name := Name(component)
	_, resolved := glog.Resolve(name, provider, logger)
	if name == RootName {
		return resolved
	}
	if fields, ok := resolved.(glog.FieldsLogger); ok {
		if tagged := fields.WithFields(map[string]any{"component": strings.TrimPrefix(name, RootName+".")}); tagged != nil {
			return tagged
		}
	}
	return resolved
}
