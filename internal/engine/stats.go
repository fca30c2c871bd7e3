// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"time"

	"github.com/unnest/unnest/internal/archive"
)

// StopReason records why the extraction loop ended.
type StopReason string

const (
	// StopNone means the loop has not finished.
	StopNone StopReason = ""
	// StopNoArchives means a scan found nothing left to extract.
	StopNoArchives StopReason = "no-archives"
	// StopStalled means a round found archives but extracted none of them.
	StopStalled StopReason = "stalled"
	// StopRoundLimit means the configured round cap was reached.
	StopRoundLimit StopReason = "round-limit"
	// StopInterrupted means the context was cancelled.
	StopInterrupted StopReason = "interrupted"
)

type (
	// ArchiveDescriptor is one archive found by a scan. It is rebuilt by
	// every scan and never reused across rounds.
	ArchiveDescriptor struct {
		Path   string
		Size   int64
		Format archive.Format
	}

	// ArchiveFailure describes one archive that could not be extracted.
	ArchiveFailure struct {
		Round  int
		Path   string
		Kind   archive.Kind
		Reason string
	}

	// RoundResult summarizes one extraction round.
	RoundResult struct {
		Round        int
		ArchivesSeen int
		SuccessCount int
		ErrorCount   int
	}

	// Stats are the run-wide counters. Only the Controller mutates them and
	// every counter only grows.
	Stats struct {
		// Found and TotalSize come from the survey scan before the loop.
		Found     int
		TotalSize int64

		Processed      int
		Success        int
		Error          int
		FreedSize      int64
		ExtractedFiles int

		// Rounds counts rounds that found at least one archive.
		Rounds     int
		StopReason StopReason
		Elapsed    time.Duration

		RoundResults []RoundResult
		Failures     []ArchiveFailure
	}
)

// Consistent reports whether the processed counter matches its parts.
func (s *Stats) Consistent() bool {
	return s.Processed == s.Success+s.Error
}
