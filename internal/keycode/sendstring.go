package keycode

// runeKeys maps printable ASCII to US-layout keycodes.
var runeKeys = map[rune]Keycode{
	' ':  Basic(UsageSpace),
	'\n': Basic(UsageEnter),
	'\t': Basic(UsageTab),
	'-':  Basic(UsageMinus),
	'=':  Basic(UsageEqual),
	'[':  Basic(UsageLeftBracket),
	']':  Basic(UsageRightBracket),
	'\\': Basic(UsageBackslash),
	';':  Basic(UsageSemicolon),
	'\'': Basic(UsageQuote),
	'`':  Basic(UsageGrave),
	',':  Basic(UsageComma),
	'.':  Basic(UsageDot),
	'/':  Basic(UsageSlash),
	'0':  Basic(Usage0),
}

func init() {
	for r := 'a'; r <= 'z'; r++ {
		u := UsageA + Usage(r-'a')
		runeKeys[r] = Basic(u)
		runeKeys[r-'a'+'A'] = WithMods(u, ModLShift)
	}
	for r := '1'; r <= '9'; r++ {
		runeKeys[r] = Basic(Usage1 + Usage(r-'1'))
	}
	for name, u := range shiftedAliases {
		if r, ok := aliasRunes[name]; ok {
			runeKeys[r] = WithMods(u, ModLShift)
		}
	}
}

var aliasRunes = map[string]rune{
	"KC_TILD": '~', "KC_EXLM": '!', "KC_AT": '@', "KC_HASH": '#', "KC_DLR": '$',
	"KC_PERC": '%', "KC_CIRC": '^', "KC_AMPR": '&', "KC_ASTR": '*', "KC_LPRN": '(',
	"KC_RPRN": ')', "KC_UNDS": '_', "KC_PLUS": '+', "KC_LCBR": '{', "KC_RCBR": '}',
	"KC_PIPE": '|', "KC_COLN": ':', "KC_DQUO": '"', "KC_LABK": '<', "KC_RABK": '>',
	"KC_QUES": '?',
}

// FromRune returns the keycode that types r on a US layout.
func FromRune(r rune) (Keycode, bool) {
	kc, ok := runeKeys[r]
	return kc, ok
}

// SendString returns the keycodes that type s. Characters with no keycode
// are skipped and returned separately.
func SendString(s string) (keys []Keycode, skipped []rune) {
	for _, r := range s {
		kc, ok := runeKeys[r]
		if !ok {
			skipped = append(skipped, r)
			continue
		}
		keys = append(keys, kc)
	}
	return keys, skipped
}
