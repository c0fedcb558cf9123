package titles

import "strings"

// sceneGroups are release groups commonly seen as trailing tags on
// scraped posts. Matching is case-insensitive.
var sceneGroups = map[string]struct{}{
	"codex":          {},
	"plaza":          {},
	"skidrow":        {},
	"reloaded":       {},
	"flt":            {},
	"tenoke":         {},
	"rune":           {},
	"empress":        {},
	"cpy":            {},
	"hoodlum":        {},
	"darksiders":     {},
	"tinyiso":        {},
	"doge":           {},
	"razor1911":      {},
	"prophet":        {},
	"goldberg":       {},
	"fitgirl":        {},
	"dodi":           {},
	"elamigos":       {},
	"gog":            {},
	"chronos":        {},
	"i_know":         {},
	"0xdeadc0de":     {},
	"dinobytes":      {},
	"outlaws":        {},
	"anomaly":        {},
	"p2p":            {},
	"scene":          {},
	"emulators":      {},
	"simplex":        {},
	"unleashed":      {},
	"vitamin":        {},
	"steamrip":       {},
	"onlinefix":      {},
	"online-fix":     {},
	"gamebounty":     {},
	"freegogpcgames": {},
}

// IsSceneGroup reports whether name is a known release group.
func IsSceneGroup(name string) bool {
	_, ok := sceneGroups[strings.ToLower(name)]
	return ok
}
