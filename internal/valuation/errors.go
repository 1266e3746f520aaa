package valuation

import "fmt"

// MissingInputError reports an input file that is absent or unreadable.
type MissingInputError struct {
	Input string
	Path  string
	Err   error
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing %s input %s: %v", e.Input, e.Path, e.Err)
}

func (e *MissingInputError) Unwrap() error { return e.Err }

// SchemaError reports a table that does not match its expected shape: an
// absent column, a duplicate key or a value that cannot be parsed.
type SchemaError struct {
	Input  string
	Column string
	// Line is the 1-based CSV line, zero when the problem is not row specific.
	Line   int
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s input: column %q line %d: %s", e.Input, e.Column, e.Line, e.Reason)
	}
	return fmt.Sprintf("%s input: column %q: %s", e.Input, e.Column, e.Reason)
}

// UnresolvedConfigurationError reports a configuration identifier with no
// matching series in its source table.
type UnresolvedConfigurationError struct {
	Utility    Utility
	Source     string
	Identifier string
}

func (e *UnresolvedConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s: %s identifier %q matched no rows", e.Utility, e.Source, e.Identifier)
}

// UnhandledTariffVersionError marks a site whose NEM tariff is neither 1.0
// nor 2.0. It is a warning: the site's NEM value is left empty.
type UnhandledTariffVersionError struct {
	Line    int
	Utility Utility
	Tariff  string
}

func (e *UnhandledTariffVersionError) Error() string {
	return fmt.Sprintf("site on line %d (%s): unhandled NEM tariff %q", e.Line, e.Utility, e.Tariff)
}
