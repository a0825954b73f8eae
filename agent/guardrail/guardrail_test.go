package guardrail

import (
	"errors"
	"testing"
)

func TestCheckInputAllowsSalesTalk(t *testing.T) {
	t.Parallel()

	guard := New()

	for _, msg := range []string{
		"Hi, I'm Jane from Acme, interested in enterprise plans",
		"what does the personal plan cost?",
		"we need SSO for 1000 employees asap",
	} {
		if err := guard.CheckInput(msg); err != nil {
			t.Fatalf("CheckInput(%q) error = %v, want nil", msg, err)
		}
	}
}

func TestCheckInputBlocksJunk(t *testing.T) {
	t.Parallel()

	guard := New()

	cases := []string{
		"",
		"    ",
		"asdfasdf",
		"hello ASDFASDF world",
		"qwertyqwerty",
		"spamspamspam dot com",
	}
	for _, msg := range cases {
		if err := guard.CheckInput(msg); !errors.Is(err, ErrBlocked) {
			t.Fatalf("CheckInput(%q) error = %v, want ErrBlocked", msg, err)
		}
	}
}

func TestReviewOutputPassesCleanReplies(t *testing.T) {
	t.Parallel()

	guard := New()

	// "hello" must not trip the "hell" word check.
	reply, replaced := guard.ReviewOutput("Hello Jane, happy to help with enterprise plans.")
	if replaced {
		t.Fatal("ReviewOutput() replaced a clean reply")
	}
	if reply != "Hello Jane, happy to help with enterprise plans." {
		t.Fatalf("ReviewOutput() = %q", reply)
	}

	if _, replaced := guard.ReviewOutput("That shellfish company is crappy-sounding but fine."); replaced {
		t.Fatal("ReviewOutput() tripped on substrings inside larger words")
	}
}

func TestReviewOutputReplacesBlockedWords(t *testing.T) {
	t.Parallel()

	guard := New()

	reply, replaced := guard.ReviewOutput("That is a stupid question.")
	if !replaced {
		t.Fatal("ReviewOutput() did not replace a blocked word")
	}
	if reply != OutputFallback {
		t.Fatalf("ReviewOutput() = %q, want fallback", reply)
	}
}

func TestReviewOutputReplacesEmptyDraft(t *testing.T) {
	t.Parallel()

	guard := New()

	reply, replaced := guard.ReviewOutput("   ")
	if !replaced || reply != OutputFallback {
		t.Fatalf("ReviewOutput(blank) = (%q, %v), want fallback", reply, replaced)
	}
}
