package slug

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// table maps a lowercase source rune to its Latin spelling. Add a script by
// adding its runes here; nothing else needs to change.
var table = map[rune]string{
	// Russian
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "yo",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sch", 'ъ': "",
	'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
	// Ukrainian / Belarusian extras
	'і': "i", 'ї': "yi", 'є': "ye", 'ґ': "g", 'ў': "u",
	// Serbian / Macedonian
	'ђ': "dj", 'ј': "j", 'љ': "lj", 'њ': "nj", 'ћ': "c", 'џ': "dz",
	'ѓ': "gj", 'ќ': "kj", 'ѕ': "dz",
	// Kazakh / Kyrgyz / Mongolian
	'ә': "a", 'ғ': "gh", 'қ': "q", 'ң': "ng", 'ө': "o", 'ұ': "u", 'ү': "u",
	'һ': "h",
	// Tajik / Tatar / Bashkir
	'ҳ': "h", 'ҷ': "j", 'җ': "zh", 'ҙ': "z", 'ҡ': "q", 'ҫ': "s", 'ӊ': "ng",
	// Latin letters that do not decompose under NFD
	'ß': "ss", 'æ': "ae", 'ø': "o", 'œ': "oe", 'đ': "d", 'ł': "l", 'þ': "th",
}

// Transliterate lowercases s and rewrites every rune found in the table to
// its Latin form. Diacritics on Latin letters are dropped. Unknown runes are
// passed through unchanged.
func Transliterate(s string) string {
	s = norm.NFC.String(strings.ToLower(s))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if latin, ok := table[r]; ok {
			b.WriteString(latin)
			continue
		}
		// Accented Cyrillic such as ӣ or ӧ falls back to its base letter.
		if latin, ok := table[baseRune(r)]; ok {
			b.WriteString(latin)
			continue
		}
		b.WriteRune(r)
	}

	// Chain keeps internal buffers, so build a fresh one per call.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(stripMarks, b.String())
	if err != nil {
		return b.String()
	}
	return out
}

// baseRune returns the first rune of r's canonical decomposition.
func baseRune(r rune) rune {
	if r < utf8.RuneSelf {
		return r
	}
	base, _ := utf8.DecodeRuneInString(norm.NFD.String(string(r)))
	return base
}
