// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// Fatal run errors carry an operation, the resource involved, remediation
// suggestions and optionally a catalog Id whose Markdown guidance the CLI
// renders with glamour.
package issue
