// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
// Fixture archives are built in memory with the same compression libraries
// the extractors read with.
package testutil
