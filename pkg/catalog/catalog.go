// SPDX-License-Identifier: MPL-2.0

// Package catalog turns a locale map into a go-i18n message bundle so that
// individual messages can be looked up and rendered.
//
// Section trees are flattened into dotted message IDs: the value
// Map["en"]["home"]["nav"]["title"] becomes message "home.nav.title" for
// language "en". Array elements use their index as key. A nested object whose
// keys are all CLDR plural categories (zero, one, two, few, many, other) and
// that has an "other" entry is a plural message rather than a subtree.
//
// Lookups never fall back to another language.
package catalog

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/dvcol/i18nbundle/pkg/locale"
)

// Problem kinds reported for languages of the map.
const (
	KindInvalidTag   ProblemKind = "invalid-tag"
	KindNonCanonical ProblemKind = "non-canonical"
	KindUnsupported  ProblemKind = "unsupported"
)

var (
	// ErrLanguageNotFound is returned when a lookup names a language that is
	// not in the catalog.
	ErrLanguageNotFound = errors.New("language not found")
	// ErrMessageNotFound is returned when a lookup names a message ID that
	// the language does not define.
	ErrMessageNotFound = errors.New("message not found")

	pluralKeys = []string{"zero", "one", "two", "few", "many", "other"}
)

type (
	// ProblemKind classifies a Problem.
	ProblemKind string

	// Problem describes a language of the locale map that could not be
	// registered as-is.
	Problem struct {
		Language string
		Kind     ProblemKind
		Detail   string
	}

	// Catalog is an immutable message catalog built from a locale.Map.
	Catalog struct {
		bundle   *i18n.Bundle
		tags     map[string]language.Tag
		ids      map[string][]string
		problems []Problem
	}
)

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s: %s", p.Language, p.Kind, p.Detail)
}

// New builds a Catalog from m. Languages whose identifier is not a valid
// BCP 47 tag, or for which no plural rule is known, are reported through
// Problems and left out of the catalog. Non-canonical identifiers are kept
// and reported too.
func New(m locale.Map) *Catalog {
	c := &Catalog{
		bundle: i18n.NewBundle(language.Und),
		tags:   make(map[string]language.Tag, len(m)),
		ids:    make(map[string][]string, len(m)),
	}

	for _, lang := range m.Languages() {
		tag, err := language.Parse(lang)
		if err != nil {
			c.problems = append(c.problems, Problem{Language: lang, Kind: KindInvalidTag, Detail: err.Error()})
			continue
		}
		if canonical := tag.String(); canonical != lang {
			c.problems = append(c.problems, Problem{
				Language: lang,
				Kind:     KindNonCanonical,
				Detail:   fmt.Sprintf("canonical form is %q", canonical),
			})
		}

		messages := Flatten(m[lang])
		if err := c.bundle.AddMessages(tag, messages...); err != nil {
			c.problems = append(c.problems, Problem{Language: lang, Kind: KindUnsupported, Detail: err.Error()})
			continue
		}

		ids := make([]string, 0, len(messages))
		for _, msg := range messages {
			ids = append(ids, msg.ID)
		}
		slices.Sort(ids)
		c.tags[lang] = tag
		c.ids[lang] = ids
	}

	return c
}

// Bundle exposes the underlying go-i18n bundle.
func (c *Catalog) Bundle() *i18n.Bundle {
	return c.bundle
}

// Languages returns the registered languages in sorted order.
func (c *Catalog) Languages() []string {
	return slices.Sorted(maps.Keys(c.tags))
}

// Problems returns the issues found while building the catalog.
func (c *Catalog) Problems() []Problem {
	return slices.Clone(c.problems)
}

// Tag returns the parsed tag of a registered language.
func (c *Catalog) Tag(lang string) (language.Tag, bool) {
	tag, ok := c.tags[lang]
	return tag, ok
}

// IDs returns the message IDs of lang in sorted order.
func (c *Catalog) IDs(lang string) []string {
	return slices.Clone(c.ids[lang])
}

// Count returns the number of messages of lang.
func (c *Catalog) Count(lang string) int {
	return len(c.ids[lang])
}

// Has reports whether lang defines id.
func (c *Catalog) Has(lang, id string) bool {
	_, found := slices.BinarySearch(c.ids[lang], id)
	return found
}

// Localize renders message id of lang with data as template data.
func (c *Catalog) Localize(lang, id string, data map[string]any) (string, error) {
	return c.localize(lang, &i18n.LocalizeConfig{MessageID: id, TemplateData: data})
}

// LocalizeCount renders a plural message of lang, selecting the form for
// count. count is also available to the template as .Count unless data
// already sets it.
func (c *Catalog) LocalizeCount(lang, id string, count int, data map[string]any) (string, error) {
	merged := map[string]any{"Count": count}
	maps.Copy(merged, data)
	return c.localize(lang, &i18n.LocalizeConfig{MessageID: id, TemplateData: merged, PluralCount: count})
}

func (c *Catalog) localize(lang string, cfg *i18n.LocalizeConfig) (string, error) {
	tag, ok := c.tags[lang]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrLanguageNotFound, lang)
	}
	if !c.Has(lang, cfg.MessageID) {
		return "", fmt.Errorf("%w: %s/%s", ErrMessageNotFound, lang, cfg.MessageID)
	}

	out, err := i18n.NewLocalizer(c.bundle, tag.String()).Localize(cfg)
	if err != nil {
		return "", fmt.Errorf("render %s/%s: %w", lang, cfg.MessageID, err)
	}
	return out, nil
}

// Flatten converts a Sections tree into go-i18n messages with dotted IDs.
// Messages are returned in ID order.
func Flatten(sections locale.Sections) []*i18n.Message {
	var out []*i18n.Message
	for _, name := range sections.SectionNames() {
		out = flattenValue(out, name, sections[name])
	}
	slices.SortFunc(out, func(a, b *i18n.Message) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func flattenValue(out []*i18n.Message, id string, v any) []*i18n.Message {
	switch val := v.(type) {
	case map[string]any:
		if msg, ok := pluralMessage(id, val); ok {
			return append(out, msg)
		}
		for _, key := range slices.Sorted(maps.Keys(val)) {
			out = flattenValue(out, id+"."+key, val[key])
		}
		return out
	case []any:
		for i, item := range val {
			out = flattenValue(out, id+"."+strconv.Itoa(i), item)
		}
		return out
	case nil:
		return out
	default:
		return append(out, &i18n.Message{ID: id, Other: leafText(val)})
	}
}

func pluralMessage(id string, m map[string]any) (*i18n.Message, bool) {
	if len(m) == 0 {
		return nil, false
	}
	if _, ok := m["other"].(string); !ok {
		return nil, false
	}
	for k, v := range m {
		if _, isStr := v.(string); !isStr || !slices.Contains(pluralKeys, k) {
			return nil, false
		}
	}

	str := func(k string) string {
		s, _ := m[k].(string)
		return s
	}
	return &i18n.Message{
		ID:    id,
		Zero:  str("zero"),
		One:   str("one"),
		Two:   str("two"),
		Few:   str("few"),
		Many:  str("many"),
		Other: str("other"),
	}, true
}

func leafText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
