package slug

import (
    "strings"
    "testing"
)

func TestMake(t *testing.T) {
    cases := []struct {
        in   string
        want string
    }{
        {"Hello, World!  ", "hello-world"},
        {"My Page", "my-page"},
        {"", "page"},
        {"!!!", "page"},
        {"   ", "page"},
        {"Already-hyphenated  title", "already-hyphenated-title"},
        {"Tabs\tand\nnewlines", "tabs-and-newlines"},
        {"Café Crème", "caf-crme"},
        {"--dashes--", "dashes"},
        {"non\u00a0breaking space", "non-breaking-space"},
        {"unit\x1fsep\x1crecord", "unit-sep-record"},
        {"next\u0085line\u2028para\u2029end", "next-line-para-end"},
        {"vertical\vtab", "vertical-tab"},
        {"A - B", "a---b"},
        {"2024 Report: Q1/Q2", "2024-report-q1q2"},
    }
    for _, tc := range cases {
        if got := Make(tc.in, DefaultMaxLen); got != tc.want {
            t.Errorf("Make(%q)=%q, want %q", tc.in, got, tc.want)
        }
    }
}

func TestMake_Truncates(t *testing.T) {
    long := strings.Repeat("word ", 40)
    got := Make(long, DefaultMaxLen)
    if len(got) > DefaultMaxLen {
        t.Fatalf("slug too long: %d", len(got))
    }
    if strings.HasPrefix(got, "-") || strings.HasSuffix(got, "-") {
        t.Fatalf("slug must not start or end with hyphen: %q", got)
    }
    // Truncation happens before the hyphen trim, so a cut right after a
    // separator yields a shorter slug.
    if got := Make("abcd efgh", 5); got != "abcd" {
        t.Fatalf("got %q, want abcd", got)
    }
    if got := Make("abcdefgh", 0); got != "abcdefgh" {
        t.Fatalf("non-positive max should use default, got %q", got)
    }
}

func TestMake_Deterministic(t *testing.T) {
    in := "Some Title — with Unicode ✓ and punctuation?!"
    if Make(in, 60) != Make(in, 60) {
        t.Fatalf("expected deterministic output")
    }
}
