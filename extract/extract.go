package extract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nijaru/yt-transcribe/errors"
	"github.com/nijaru/yt-transcribe/models"
)

// Entity categories used by the detection route.
const (
	CategoryPerson       = "person_name"
	CategoryOrganization = "organization"
	CategoryLocation     = "location"
)

var ErrUnknownField = errors.New("unknown utterance field")

// Field selects which utterance attribute UtterancesByField collects.
type Field int

const (
	FieldText Field = iota
	FieldSpeaker
	FieldStart
	FieldEnd
)

var fieldNames = map[Field]string{
	FieldText:    "text",
	FieldSpeaker: "speaker",
	FieldStart:   "start",
	FieldEnd:     "end",
}

func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

// ParseField maps a field name to its Field. Unknown names are rejected.
func ParseField(name string) (Field, error) {
	const op = "extract.ParseField"
	for f, n := range fieldNames {
		if n == strings.ToLower(strings.TrimSpace(name)) {
			return f, nil
		}
	}
	return 0, errors.InvalidInput(op, ErrUnknownField, fmt.Sprintf("unknown utterance field %q", name))
}

// Set is an unordered collection of unique values.
type Set[T comparable] map[T]struct{}

func (s Set[T]) Add(v T) { s[v] = struct{}{} }

func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

func (s Set[T]) Len() int { return len(s) }

// Values returns the members in no particular order.
func (s Set[T]) Values() []T {
	out := make([]T, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	return out
}

type StringSet = Set[string]

// UtteranceSet holds either strings or millisecond timestamps depending on
// the field it was built for.
type UtteranceSet struct {
	Field   Field
	Strings StringSet
	Times   Set[int64]
}

func (u UtteranceSet) Len() int {
	if u.Strings != nil {
		return u.Strings.Len()
	}
	return u.Times.Len()
}

// EntitiesByCategory returns the distinct texts of entities whose type is
// exactly category.
func EntitiesByCategory(entities []models.Entity, category string) StringSet {
	out := StringSet{}
	for _, e := range entities {
		if e.EntityType == category {
			out.Add(e.Text)
		}
	}
	return out
}

// UtterancesByField collects the distinct values of field across utterances.
// Text values are formatted as "Speaker X: text". The input is not modified.
func UtterancesByField(utterances []models.Utterance, field Field) (UtteranceSet, error) {
	const op = "extract.UtterancesByField"

	switch field {
	case FieldText, FieldSpeaker:
		out := UtteranceSet{Field: field, Strings: StringSet{}}
		for _, u := range utterances {
			if field == FieldText {
				out.Strings.Add(FormatUtterance(u))
			} else {
				out.Strings.Add(u.Speaker)
			}
		}
		return out, nil
	case FieldStart, FieldEnd:
		out := UtteranceSet{Field: field, Times: Set[int64]{}}
		for _, u := range utterances {
			if field == FieldStart {
				out.Times.Add(u.Start)
			} else {
				out.Times.Add(u.End)
			}
		}
		return out, nil
	default:
		return UtteranceSet{}, errors.InvalidInput(op, ErrUnknownField, fmt.Sprintf("unknown utterance field %s", field))
	}
}

func FormatUtterance(u models.Utterance) string {
	return fmt.Sprintf("Speaker %s: %s", u.Speaker, u.Text)
}

// Sorted returns the members of a string set in lexical order, for stable
// responses. The order carries no meaning.
func Sorted(s StringSet) []string {
	out := s.Values()
	sort.Strings(out)
	return out
}

// SortedTimes is Sorted for timestamp sets.
func SortedTimes(s Set[int64]) []int64 {
	out := s.Values()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
