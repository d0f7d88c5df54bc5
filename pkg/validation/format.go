// Package validation checks plan configuration and CLI choices before a run.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iwvelando/finance-planner/pkg/constants"
)

// ErrUnsupportedOutputFormat is wrapped by ValidateOutputFormat.
var ErrUnsupportedOutputFormat = errors.New("unsupported output format")

// OutputFormats lists the report renderers in the order they are documented.
var OutputFormats = []string{
	constants.OutputFormatPretty,
	constants.OutputFormatCSV,
	constants.OutputFormatJSON,
	constants.OutputFormatXLSX,
}

// ValidateOutputFormat accepts exactly one of OutputFormats. Matching is case sensitive.
func ValidateOutputFormat(format string) error {
	for _, supported := range OutputFormats {
		if format == supported {
			return nil
		}
	}
	return fmt.Errorf("%w %q: expected one of %s", ErrUnsupportedOutputFormat, format, strings.Join(OutputFormats, ", "))
}
