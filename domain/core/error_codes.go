package core

import "fmt"

// ErrorCode is a stable, documented identifier for request and query errors.
type ErrorCode string

const (
	E2200 ErrorCode = "E2200"
	E2201 ErrorCode = "E2201"
	E2202 ErrorCode = "E2202"
	E2203 ErrorCode = "E2203"
	E2204 ErrorCode = "E2204"
	E2205 ErrorCode = "E2205"
	E2206 ErrorCode = "E2206"
	E2207 ErrorCode = "E2207"
	E2208 ErrorCode = "E2208"
	E2209 ErrorCode = "E2209"
	E2210 ErrorCode = "E2210"
	E2211 ErrorCode = "E2211"
	E2212 ErrorCode = "E2212"
)

var errorMessages = map[ErrorCode]string{
	E2200: "At least one data element must be specified",
	E2201: "Start date and end date must be specified",
	E2202: "Start date must be before end date",
	E2203: "At least one organisation unit must be specified",
	E2204: "Threshold must be a positive number",
	E2205: "Max results must be a positive number",
	E2206: "Max results exceeds the allowed max limit: %v",
	E2207: "Non-numeric data values encountered during outlier value detection",
	E2208: "Non-numeric data values encountered during modified z-score outlier value detection",
	E2209: "Data start date must be before data end date",
	E2210: "Order by %v is not supported for algorithm %v",
	E2211: "Organisation unit %v must have a hierarchy path",
	E2212: "Unknown value for %v: %v",
}

// Message formats the documented message of the code.
func (c ErrorCode) Message(args ...any) string {
	msg, ok := errorMessages[c]
	if !ok {
		return string(c)
	}
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}
