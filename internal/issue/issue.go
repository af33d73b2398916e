// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

const (
	// TranslationsNotFoundId: the translation root is missing or unreadable.
	TranslationsNotFoundId Id = iota + 1
	// TranslationParseErrorId: a translation file is not valid JSON.
	TranslationParseErrorId
	// ConfigLoadFailedId: the project config could not be loaded.
	ConfigLoadFailedId
	// DevServerStartFailedId: the dev server could not listen.
	DevServerStartFailedId
	// WatcherFailedId: the file watcher stopped.
	WatcherFailedId
	// BundleWriteFailedId: one or more bundles were not written.
	BundleWriteFailedId
	// InvalidOutOptionsId: the out setting has an unsupported shape.
	InvalidOutOptionsId
)

// DocsURL is the project documentation root.
const DocsURL HttpLink = "https://github.com/dvcol/i18nbundle#readme"

type (
	// Id identifies a catalogued issue.
	Id int

	// MarkdownMsg is Markdown help text.
	MarkdownMsg string

	// HttpLink is a documentation URL.
	HttpLink string

	// Issue is a catalogued problem with rendered help.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

// Id returns the issue id.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the raw help text.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// DocLinks returns a copy of the documentation links.
func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the help with glamour. stylePath is a glamour style name
// ("dark", "light", "notty", "auto") or a path to a JSON style.
func (i *Issue) Render(stylePath string) (string, error) {
	var sb strings.Builder
	sb.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 {
		sb.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			sb.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(sb.String(), stylePath)
}

var (
	render = glamour.Render

	translationsNotFoundIssue = &Issue{
		id:       TranslationsNotFoundId,
		docLinks: []HttpLink{DocsURL},
		mdMsg: `
# Translations not found!

The translation root could not be listed.

## Things you can try:
- Check the ` + "`path`" + ` setting or the ` + "`--path`" + ` flag
- Make sure the directory exists and is readable
- Translation files must be named ` + "`<section>.<language>.json`" + `, for example:
~~~
src/locales/common.en.json
src/locales/home/home.fr.json
~~~`,
	}

	translationParseErrorIssue = &Issue{
		id:       TranslationParseErrorId,
		docLinks: []HttpLink{DocsURL},
		mdMsg: `
# A translation file is not valid JSON!

Every ` + "`<section>.<language>.json`" + ` file must contain one JSON document.
An empty file is also rejected.

## Things you can try:
- Open the file named above and fix the syntax
- Validate it with your editor or ` + "`jq . file.json`" + `
- Rename files that are not translations so they no longer match the pattern`,
	}

	configLoadFailedIssue = &Issue{
		id:       ConfigLoadFailedId,
		docLinks: []HttpLink{DocsURL},
		mdMsg: `
# Failed to load configuration!

## Things you can try:
- Show the accepted fields:
~~~
$ i18nbundle config schema
~~~
- Create a starter file:
~~~
$ i18nbundle config init
~~~
- Check ` + "`I18NBUNDLE_*`" + ` environment variables and the ` + "`.env`" + ` file`,
	}

	devServerStartFailedIssue = &Issue{
		id:       DevServerStartFailedId,
		docLinks: []HttpLink{DocsURL},
		mdMsg: `
# The dev server could not start!

Most often the address is already in use.

## Things you can try:
- Pick another address:
~~~
$ i18nbundle dev --addr 127.0.0.1:0
~~~
- Stop the other process listening on the port`,
	}

	watcherFailedIssue = &Issue{
		id:       WatcherFailedId,
		docLinks: []HttpLink{DocsURL},
		mdMsg: `
# The file watcher stopped!

The operating system refused more file watches.

## Things you can try:
- Raise the inotify limit on Linux:
~~~
$ sudo sysctl fs.inotify.max_user_watches=524288
~~~
- Add large directories to ` + "`dev.ignore`",
	}

	bundleWriteFailedIssue = &Issue{
		id:       BundleWriteFailedId,
		docLinks: []HttpLink{DocsURL},
		mdMsg: `
# Some bundles were not written!

Each locale is written independently; the others were written normally.

## Things you can try:
- Check that the output directory is writable
- Make sure no file exists where a directory is expected`,
	}

	invalidOutOptionsIssue = &Issue{
		id:       InvalidOutOptionsId,
		docLinks: []HttpLink{DocsURL},
		mdMsg: `
# Unsupported out setting!

## Accepted forms:
~~~cue
out: true                          // dist/locales/<language>.json
out: "public/i18n"                 // public/i18n/<language>.json
out: {dir: "build", name: "app"}   // build/app.<language>.json
~~~`,
	}

	issues = map[Id]*Issue{
		translationsNotFoundIssue.Id():  translationsNotFoundIssue,
		translationParseErrorIssue.Id(): translationParseErrorIssue,
		configLoadFailedIssue.Id():      configLoadFailedIssue,
		devServerStartFailedIssue.Id():  devServerStartFailedIssue,
		watcherFailedIssue.Id():         watcherFailedIssue,
		bundleWriteFailedIssue.Id():     bundleWriteFailedIssue,
		invalidOutOptionsIssue.Id():     invalidOutOptionsIssue,
	}
)

// Values returns every issue ordered by id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
}

// Get returns the issue for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
