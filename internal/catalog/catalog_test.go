package catalog

import "testing"

func TestLookupVideoWinsOverLink(t *testing.T) {
	e, ok := Lookup("direct")
	if !ok || e.Kind != Video || e.FileID == "" {
		t.Fatalf("direct = %+v, want video entry", e)
	}

	e, ok = Lookup("product")
	if !ok || e.Kind != Link || e.URL == "" {
		t.Fatalf("product = %+v, want link entry", e)
	}

	if _, ok := Lookup("nonsense"); ok {
		t.Fatal("unknown key resolved")
	}
}

func TestSearchMatchesKeywords(t *testing.T) {
	cases := map[string][]string{
		"нужна перезагрузка устройства": {"reboot"},
		"sobranie":                      {"sticks"},
		"":                              nil,
		"nothing matches this":          nil,
		// Matching is plain substring containment, inflected forms miss.
		"как сделать перезагрузку": nil,
	}
	for query, want := range cases {
		got := Search(query)
		if len(got) != len(want) {
			t.Errorf("Search(%q) = %v, want %v", query, got, want)
			continue
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Search(%q) = %v, want %v", query, got, want)
			}
		}
	}
}

func TestSearchPhouseIMSMatchesSeveralSections(t *testing.T) {
	got := Search("phouse-ims")
	if len(got) < 2 {
		t.Fatalf("Search(phouse-ims) = %v, want multiple hits", got)
	}
}

func TestEveryCatalogKeyHasKeywords(t *testing.T) {
	for _, key := range append(MaterialKeys(), VideoGuideOrder...) {
		if _, ok := Lookup(key); !ok {
			t.Errorf("key %q has no deliverable entry", key)
		}
		if len(keywords[key]) == 0 {
			t.Errorf("key %q has no search keywords", key)
		}
	}
}
