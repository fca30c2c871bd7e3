// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the unnest command line: the extraction run, the
// config subcommands and the formats listing.
package cmd
