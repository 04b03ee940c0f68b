package hmod

import "testing"

func TestExcludeMatcher(t *testing.T) {
	t.Parallel()

	matcher, err := newExcludeMatcher([]string{
		"*.bak",
		"cache/",
		"/locale/**/*.po",
		"  ",
	})
	if err != nil {
		t.Fatalf("new matcher: %v", err)
	}

	cases := []struct {
		name  string
		path  string
		isDir bool
		want  bool
	}{
		{name: "extension rule", path: `nested\old.bak`, want: true},
		{name: "dir-only rule", path: "cache", isDir: true, want: true},
		{name: "anchored root match", path: "locale/ja/LC_MESSAGES/ui.po", want: true},
		{name: "anchored root miss", path: "x/locale/ja/ui.po", want: false},
		{name: "no match", path: "clover-ui/ui.mo", want: false},
		{name: "root itself", path: "", want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := matcher.Excluded(tc.path, tc.isDir)
			if got != tc.want {
				t.Fatalf("Excluded(%q) = %v, want %v", tc.path, got, tc.want)
			}
		})
	}
}

func TestExcludeMatcher_Empty(t *testing.T) {
	t.Parallel()

	matcher, err := newExcludeMatcher([]string{"", " "})
	if err != nil {
		t.Fatalf("new matcher: %v", err)
	}
	if matcher != nil {
		t.Fatal("expected nil matcher for empty rules")
	}
	if matcher.Excluded("anything", false) {
		t.Fatal("nil matcher excluded path")
	}
}
