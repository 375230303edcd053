package catalog

import "strings"

// Kind distinguishes how an entry is delivered.
type Kind int

const (
	// Link entries are sent as a titled URL.
	Link Kind = iota
	// Video entries are sent by Telegram file id.
	Video
)

// Entry is one piece of training content.
type Entry struct {
	Key    string
	Kind   Kind
	URL    string
	FileID string
}

// ContactLink is a person reachable from the contacts section.
type ContactLink struct {
	Label map[string]string
	URL   string
}

var links = map[string]string{
	"product":     "https://clck.ru/3NB2zY",
	"sales":       "https://clck.ru/3NB2wX",
	"sticks":      "https://clck.ru/3NB2ur",
	"accessories": "https://clck.ru/3NB3aW",
}

var videos = map[string]string{
	"direct":               "BAACAgIAAxkBAAIBZ2h457B6jJvSCJY7qYfqOZ_oSQjtAAIJeQACe2XJS73hNlvfZvP4NgQ",
	"reboot":               "BAACAgIAAxkBAAICcGh56dNWrQEKhRKT1SWdBNPsqbCSAAIpdAACw5XRSzq54nCgfjqQNgQ",
	"intro":                "BAACAgIAAxkBAAICqWh58qS32y4lcAABwTpXlzsrGMIELwACLXMAAntl0UsQKxQvBG_fLDYE",
	"replacement":          "CgACAgIAAxkBAAICzGh5-xBcF1InTNdiFGGthnxeLnQWAAL_cwACe2XRS2BVCLRNVS-fNgQ",
	"return":               "CgACAgIAAxkBAAICzmh5-3hrMswogfi0ZT0d7nqH9liWAAIKdAACe2XRS-e0JbA3KIndNgQ",
	"unregisteredconsumer": "CgACAgIAAxkBAAIC0Gh5-7vPyvivL9O2qAyyEum-UWn5AAIPdAACe2XRS1AKLBQAAYZLOzYE",
}

// VideoGuideOrder is the display order of the video guides section.
var VideoGuideOrder = []string{"direct", "reboot", "replacement", "return", "unregisteredconsumer"}

var keywords = map[string][]string{
	"direct":               {"direct", "ploom direct", "видео инструкция", "инструкция", "video instruction"},
	"reboot":               {"reboot", "reset", "перезагрузка", "сброс", "restart"},
	"replacement":          {"replacement", "замена", "phouse-ims", "замена phouse-ims"},
	"return":               {"return", "refund", "возврат", "phouse-ims"},
	"unregisteredconsumer": {"unregistered", "consumer", "клиент", "без регистрации", "phouse-ims"},
	"product":              {"product", "продукт", "информация", "info", "продукт информация"},
	"sales":                {"sales", "продажи", "скрипты", "scripts"},
	"sticks":               {"sticks", "stiks", "sobranie", "стики"},
	"accessories":          {"accessories", "аксессуары"},
}

// Contacts lists support and training staff; labels are keyed by language.
var Contacts = []ContactLink{
	{
		Label: map[string]string{
			"ru": "Мехти (техподдержка)",
			"az": "Mehdi Suleymanov (texniki dəstək)",
			"en": "Mehti (tech Support)",
		},
		URL: "https://t.me/mexti_s",
	},
	{
		Label: map[string]string{
			"ru": "Хайям Махмудов (тренер)",
			"az": "Xəyyam Mahmudov (təlimçi)",
			"en": "Khayyam Mahmudov (trainer)",
		},
		URL: "https://t.me/mxm086",
	},
}

// Lookup resolves a key into a deliverable entry. Video ids win over links
// when a key is present in both sets.
func Lookup(key string) (Entry, bool) {
	if id, ok := videos[key]; ok {
		return Entry{Key: key, Kind: Video, FileID: id}, true
	}
	if url, ok := links[key]; ok {
		return Entry{Key: key, Kind: Link, URL: url}, true
	}
	return Entry{}, false
}

// MaterialKeys returns the link-document keys in stable order.
func MaterialKeys() []string {
	return []string{"product", "sales", "sticks", "accessories"}
}

// IntroVideoID returns the file id of the onboarding video, if configured.
func IntroVideoID() string {
	return videos["intro"]
}

// Search matches the query against the keyword index and returns the hit
// keys in index order. Matching is case-insensitive substring containment.
func Search(query string) []string {
	q := strings.ToLower(query)
	if strings.TrimSpace(q) == "" {
		return nil
	}
	var hits []string
	for _, key := range append(MaterialKeys(), VideoGuideOrder...) {
		for _, word := range keywords[key] {
			if strings.Contains(q, word) {
				hits = append(hits, key)
				break
			}
		}
	}
	return hits
}
