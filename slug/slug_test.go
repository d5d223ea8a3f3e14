package slug

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memLookup is a set of taken slugs keyed to their owning row id.
type memLookup map[string]uint

func (m memLookup) Exists(_ context.Context, s string, excludeID uint) (bool, error) {
	id, ok := m[s]
	if !ok {
		return false, nil
	}
	return excludeID == 0 || id != excludeID, nil
}

func TestMake(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Hello, World! 2026", "hello-world-2026"},
		{"  Суп  ", "sup"},
		{"Щи да каша — пища наша", "schi-da-kasha-pischa-nasha"},
		{"Ёжик в тумане", "yozhik-v-tumane"},
		{"Їжак і ґанок", "yizhak-i-ganok"},
		{"Crème brûlée", "creme-brulee"},
		{"-leading and trailing-", "leading-and-trailing"},
		{"--- 5 ways to lose ---", "5-ways-to-lose"},
		{"123", "123"},
		{"!!!", ""},
		{"日本語", ""},
		{"Salat «Оливье» (classic)", "salat-olive-classic"},
		{"Њујорк", "njujork"},
		{"Ђорђе", "djordje"},
		{"Љубав", "ljubav"},
		{"Ќерка и ѓавол", "kjerka-i-gjavol"},
		{"Џем од ѕвезда", "dzem-od-dzvezda"},
		{"Қазақ", "qazaq"},
		{"Әсел Өмір Ұлы Үй", "asel-omir-uly-uy"},
		{"Ғалым Жаңа Һаула", "ghalym-zhanga-haula"},
		{"Ҳалво ҷӯшон", "halvo-jushon"},
		{"Ҡыҙыл Ҫәтән", "qyzyl-satan"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Make(tc.in), "Make(%q)", tc.in)
	}
}

func TestTransliterate_CyrillicAlphabets(t *testing.T) {
	alphabets := map[string]string{
		"russian":    "абвгдеёжзийклмнопрстуфхцчшщъыьэюя",
		"ukrainian":  "абвгґдеєжзиіїйклмнопрстуфхцчшщьюя",
		"belarusian": "абвгдеёжзійклмнопрстуўфхцчшыьэюя",
		"serbian":    "абвгдђежзијклљмнњопрстћуфхцчџш",
		"macedonian": "абвгдѓежзѕијклљмнњопрстќуфхцчџш",
		"kazakh":     "аәбвгғдеёжзийкқлмнңоөпрстуұүфхһцчшщъыіьэюя",
		"kyrgyz":     "абвгдеёжзийклмнңоөпрстуүфхцчшщъыьэюя",
		"tajik":      "абвгғдеёжзиӣйкқлмнопрстуӯфхҳчҷшъэюя",
		"tatar":      "абвгдеёжҗзийклмнңоөпрстуүфхһцчшщъыьэәюя",
		"bashkir":    "абвгғдҙеёжзийкҡлмнңоөпрсҫтуүфхһцчшщъыьэәюя",
	}
	for name, letters := range alphabets {
		for _, r := range letters {
			for _, in := range []string{string(r), strings.ToUpper(string(r))} {
				got := Transliterate(in)
				for _, c := range got {
					assert.Less(t, c, rune(utf8.RuneSelf), "%s: %q -> %q", name, in, got)
				}
				if r != 'ъ' && r != 'ь' {
					assert.NotEmpty(t, got, "%s: %q", name, in)
				}
			}
		}
	}
}

func TestMake_CapsLength(t *testing.T) {
	s := Make(strings.Repeat("ab ", 80))
	assert.LessOrEqual(t, len(s), MaxLen)
	assert.True(t, Valid(s), s)
}

func TestUnique_AlwaysValid(t *testing.T) {
	ctx := context.Background()
	titles := []string{"!!!", "123", "", "   ", "-", "日本語", "Суп", "Title", "#$%^&*", "— —"}
	for _, title := range titles {
		got, err := Unique(ctx, memLookup{}, title, 0)
		require.NoError(t, err)
		assert.True(t, Valid(got), "title %q produced %q", title, got)
		assert.False(t, strings.HasPrefix(got, "-"))
	}
}

func TestUnique_FallbackUsesPrefix(t *testing.T) {
	g := New("recipe")
	got, err := g.Unique(context.Background(), memLookup{}, "!!!", 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "recipe-"))
	assert.Len(t, got, len("recipe-")+SuffixLen)
}

func TestUnique_AppendsCounter(t *testing.T) {
	ctx := context.Background()
	taken := memLookup{}

	first, err := Unique(ctx, taken, "Суп", 0)
	require.NoError(t, err)
	assert.Equal(t, "sup", first)
	taken[first] = 1

	second, err := Unique(ctx, taken, "Суп", 0)
	require.NoError(t, err)
	assert.Equal(t, "sup-1", second)
	taken[second] = 2

	third, err := Unique(ctx, taken, "Суп", 0)
	require.NoError(t, err)
	assert.Equal(t, "sup-2", third)
}

func TestUnique_ExcludesOwnRow(t *testing.T) {
	taken := memLookup{"sup": 7}
	got, err := Unique(context.Background(), taken, "Суп", 7)
	require.NoError(t, err)
	assert.Equal(t, "sup", got)
}

func TestUnique_NoArbitraryCap(t *testing.T) {
	taken := memLookup{"news": 1}
	for i := 1; i < 500; i++ {
		taken["news-"+strconv.Itoa(i)] = uint(i + 1)
	}
	got, err := Unique(context.Background(), taken, "News", 0)
	require.NoError(t, err)
	assert.Equal(t, "news-500", got)
}

func TestUnique_LookupError(t *testing.T) {
	boom := errors.New("db down")
	lookup := LookupFunc(func(context.Context, string, uint) (bool, error) { return false, boom })
	_, err := Unique(context.Background(), lookup, "title", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestUnique_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Unique(ctx, memLookup{}, "title", 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithRandomSuffix(t *testing.T) {
	g := New("post")
	calls := 0
	g.random = func(n int) string {
		calls++
		return strings.Repeat("x", n)
	}
	got, err := g.WithRandomSuffix(context.Background(), memLookup{"sup": 1}, "Суп", 0)
	require.NoError(t, err)
	assert.Equal(t, "sup-xxxxxxxx", got)
	assert.Equal(t, 1, calls)
}

func TestRandomSuffix(t *testing.T) {
	s := randomSuffix(SuffixLen)
	assert.Len(t, s, SuffixLen)
	assert.True(t, Valid(s), s)
	assert.NotEqual(t, s, randomSuffix(SuffixLen))
}
