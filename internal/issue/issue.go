// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

// Id identifies a catalog entry.
type Id int

const (
	DirectoryInvalidId Id = iota + 1
	BackupFailedId
	ConfigLoadFailedId
	InterruptedId
	LogFileFailedId
)

type MarkdownMsg string

type Issue struct {
	id    Id          // ID used to lookup the issue
	title string      // one-line summary for plain output
	mdMsg MarkdownMsg // Markdown text that will be rendered
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) Title() string {
	return i.title
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// Render renders the issue's markdown with the given glamour style
// ("dark", "light", "notty", ...).
func (i *Issue) Render(stylePath string) (string, error) {
	return render(string(i.mdMsg), stylePath)
}

var (
	render = glamour.Render

	directoryInvalidIssue = &Issue{
		id:    DirectoryInvalidId,
		title: "working directory is missing or not a directory",
		mdMsg: `
# Cannot process this path!

The path you passed must be an existing directory. Nothing was extracted.

## Things you can try:
- Check the path for typos
- Pass the directory that *contains* your archives, not an archive itself:
~~~
$ unnest ~/Downloads/batch
~~~`,
	}

	backupFailedIssue = &Issue{
		id:    BackupFailedId,
		title: "backup copy could not be created",
		mdMsg: `
# Backup failed, nothing was touched!

Extraction deletes the original archives, so a full copy of the directory is
made first. That copy could not be completed and the run was stopped.

## Things you can try:
- Make sure the parent directory is writable
- Free some disk space (the backup needs as much room as the directory itself)
- Skip the backup if you already have one:
~~~
$ unnest --no-backup ~/Downloads/batch
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id:    ConfigLoadFailedId,
		title: "configuration could not be loaded",
		mdMsg: `
# Failed to load configuration!

The configuration file is not valid CUE or does not match the expected schema.

## Things you can try:
- Show the effective configuration and where it was read from:
~~~
$ unnest config show
$ unnest config path
~~~

- Write a fresh default file and edit it:
~~~
$ unnest config init
~~~

## Example:
~~~cue
create_backup:   true
delete_original: true
max_rounds:      50
encodings: ["utf-8", "gbk", "big5", "shift_jis", "latin1"]
log: level: "info"
~~~`,
	}

	interruptedIssue = &Issue{
		id:    InterruptedId,
		title: "run was interrupted",
		mdMsg: `
# Interrupted!

The run stopped before it finished. Files that were being written at that
moment may be incomplete. Archives that were not fully extracted are still in
place, so running again continues where this run stopped.

## Things you can try:
- Restore from the backup directory (named *<dir>_backup_<timestamp>*) if needed
- Run the same command again`,
	}

	logFileFailedIssue = &Issue{
		id:    LogFileFailedId,
		title: "log file could not be created",
		mdMsg: `
# Cannot write the log file!

Each run writes *unnest_<timestamp>.log* inside the working directory.

## Things you can try:
- Check that the directory is writable
- Run without a log file:
~~~
$ unnest --no-log-file ~/Downloads/batch
~~~`,
	}

	issues = map[Id]*Issue{
		directoryInvalidIssue.Id(): directoryInvalidIssue,
		backupFailedIssue.Id():     backupFailedIssue,
		configLoadFailedIssue.Id(): configLoadFailedIssue,
		interruptedIssue.Id():      interruptedIssue,
		logFileFailedIssue.Id():    logFileFailedIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
