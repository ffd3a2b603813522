package qparse

import (
	"reflect"
	"time"

	"github.com/google/uuid"
)

// constants for list and date handling
const (
	ListSeparator  = ","
	DateLayout     = "2006-01-02"
	DatetimeLayout = "2006-01-02 15:04:05"

	// MaxSafeInteger is the largest integer Integer and Natural accept.
	// Values past it lose precision once they travel as JSON numbers.
	MaxSafeInteger int64 = 1<<53 - 1
)

// constants for struct binding tags
const (
	QueryTagName   = "query"
	CoerceTagName  = "coerce"
	DefaultTagName = "default"
	SkipTagValue   = "-"
)

// constants for coercer expressions
const (
	ExprArgDelimiter = byte('\'')
	ExprKVDelimiter  = ":"
	ExprListDelim    = ","
)

// Coercer names for the built-in factories.
const (
	StringCoercerName          = "string"
	NumberCoercerName          = "number"
	IntegerCoercerName         = "integer"
	NaturalCoercerName         = "natural"
	BooleanCoercerName         = "boolean"
	EnumCoercerName            = "enum"
	RegExpCoercerName          = "regexp"
	ArrayCoercerName           = "array"
	UUIDCoercerName            = "uuid"
	DateCoercerName            = "date"
	DatePatternCoercerName     = "datePattern"
	DatetimePatternCoercerName = "datetimePattern"
)

// Reducer names accepted by the date coercer expressions.
const (
	StartOfDayReducerName = "startOfDay"
	EndOfDayReducerName   = "endOfDay"
)

// Mime Type constants for content types.
const (
	ContentTypeApplicationJSON string = "application/json"
	ContentTypeDelimiter              = ";"
)

// reflect.TypeOf constants for type checks
var (
	TimeType = reflect.TypeOf(time.Time{})
	UUIDType = reflect.TypeOf(uuid.UUID{})
)
