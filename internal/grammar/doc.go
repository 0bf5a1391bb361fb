// Package grammar parses screenshot file names and directory names into
// ground truth records.
//
// Screenshots are labeled by their authors with names such as:
//
//	Pidgey - Lvl 20 - Cp 500 - Hp 80.png
//	Eevee-LvlX-Cp100-Hp30.jpg
//	Mr. Mime, Lvl 22.5, Cp 800, Hp 60.png
//
// and may be grouped in directories named after the player level:
//
//	Phone - Lvl 15/
//	Phone, Lvl 15/
//	Phone Lvl 15/
//
// # Separators
//
// Fields are separated by spaces, optionally combined with a single "-" or
// ",". A keyword and its value may be separated by spaces or written
// together ("Lvl 20", "LvlX", "Cp100"). Keywords (Lvl, Cp, Hp) match
// case-insensitively.
//
// # Names
//
// A name may contain spaces as long as no space is immediately followed by
// a "-". The name ends at the first position where the remainder of the
// input parses as the rest of the grammar, so multi-word names and names
// containing dashes ("Ho-Oh") are kept whole.
//
// # Levels
//
// A screenshot level is a decimal number or the literal X, which means the
// level is unknown and must not be asserted. The Lvl field may be omitted
// from a screenshot name altogether; the level then falls back to the parent
// directory hint and finally to the default player level (see Derive).
// Directory levels are integers.
//
// Screenshot names are anchored at the start only: anything after the Hp
// value (typically the file extension) is ignored. Directory names are
// anchored at both ends.
package grammar
