package catalog

import "testing"

func TestKnownCodes(t *testing.T) {
	if got := TopicLabel("gardening"); got != "Gardening" {
		t.Fatalf("TopicLabel(gardening) = %q", got)
	}
	if got := ConcernLabel("sleep_trouble"); got != "Trouble sleeping" {
		t.Fatalf("ConcernLabel(sleep_trouble) = %q", got)
	}
	if got := FollowUpLabel("wants_more_contact"); got != "Wants more contact" {
		t.Fatalf("FollowUpLabel(wants_more_contact) = %q", got)
	}
}

func TestUnknownCodeFallsBack(t *testing.T) {
	cases := []struct {
		code string
		want string
	}{
		{code: "new_upstream_code", want: "New Upstream Code"},
		{code: "solo", want: "Solo"},
		{code: "", want: ""},
	}
	for _, tc := range cases {
		if got := TopicLabel(tc.code); got != tc.want {
			t.Fatalf("TopicLabel(%q) = %q, want %q", tc.code, got, tc.want)
		}
	}
}
